package cmd

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/history"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/session"
)

// addSourceFlags registers the flags shared by the commands that take a source reference.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("live", "l", false, "Treat the video as a live broadcast")
	cmd.Flags().BoolP("asset", "a", false, "Treat the argument as a file under the asset root")
	cmd.MarkFlagsMutuallyExclusive("live", "asset")
}

// descriptorFromArgs builds the descriptor of the single source argument.
func descriptorFromArgs(cmd *cobra.Command, args []string) session.Descriptor {
	tier, err := requestedTier()
	handleErr(err)

	d := session.Descriptor{
		Quality: tier,
		IsLive:  lo.Must(cmd.Flags().GetBool("live")),
	}

	if lo.Must(cmd.Flags().GetBool("asset")) {
		d.Source.Asset = args[0]
	} else {
		d.Source.URI = args[0]
	}

	return d
}

// recordHistory saves a resolution when history is enabled.
func recordHistory(d session.Descriptor, r session.Resolution) {
	if !viper.GetBool(key.HistorySave) {
		return
	}

	entry := &history.Entry{
		Ref:     lo.Ternary(d.Source.Asset != "", d.Source.Asset, d.Source.URI),
		VideoID: r.VideoID,
		Mode:    string(r.Mode),
		Quality: d.Quality.String(),
		Live:    d.IsLive,
		Video:   r.VideoRepresentation,
		Audio:   r.AudioRepresentation,
	}

	if err := history.Save(entry); err != nil {
		log.Warnf("save history: %v", err)
	}
}
