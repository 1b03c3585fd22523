package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/color"
	"github.com/tubelink/tubelink/icon"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/provider"
	"github.com/tubelink/tubelink/session"
	"github.com/tubelink/tubelink/source"
	"github.com/tubelink/tubelink/style"
	"github.com/tubelink/tubelink/util"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	addSourceFlags(resolveCmd)
	resolveCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	resolveCmd.Flags().BoolP("inspect", "i", false, "List the renditions of an HLS source")

	resolveCmd.SetOut(os.Stdout)
}

// resolveCmd prints the playback source a reference resolves to without playing it.
var resolveCmd = &cobra.Command{
	Use:     "resolve <id|url|asset>",
	Short:   "Resolve a video into its playback source",
	Example: "  tubelink resolve dQw4w9WgXcQ -q 480p\n  tubelink resolve https://youtu.be/jfKfPfyJRdk --live --inspect",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			d         = descriptorFromArgs(cmd, args)
			asJson    = lo.Must(cmd.Flags().GetBool("json"))
			inspect   = lo.Must(cmd.Flags().GetBool("inspect"))
			extractor = provider.Default()
			resolver  = session.NewResolver(extractor, viper.GetString(key.PlayerAssetRoot))
			ctx       = context.Background()
		)

		erase := util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Progress), args[0]))
		res, err := resolver.Resolve(ctx, d)
		erase()
		handleErr(err)
		recordHistory(d, res)

		var playlist *provider.Playlist
		if manifest, ok := res.Source.(source.SingleManifest); ok && inspect {
			if kind, err := source.Classify(manifest.URL); err == nil && kind == source.HLS {
				p, err := extractor.InspectHLS(ctx, manifest.URL)
				handleErr(err)
				playlist = &p
			}
		}

		if asJson {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
				Mode     session.Mode          `json:"mode"`
				VideoID  string                `json:"video_id,omitempty"`
				Source   source.PlaybackSource `json:"source"`
				Playlist *provider.Playlist    `json:"playlist,omitempty"`
			}{res.Mode, res.VideoID, res.Source, playlist}))
			return
		}

		printResolution(cmd, res)
		if playlist != nil {
			printPlaylist(cmd, *playlist)
		}
	},
}

func printResolution(cmd *cobra.Command, res session.Resolution) {
	label := style.New().Bold(true).Foreground(color.HiPurple).Render
	cmd.Printf("%s %s %s\n", icon.Get(icon.Success), label("resolved"), style.Tag(color.New("230"), color.New("62"))(string(res.Mode)))

	switch s := res.Source.(type) {
	case source.Merged:
		cmd.Printf("%s %s %s\n", icon.Get(icon.Video), style.Faint(s.Video.ID), s.Video.URL)
		cmd.Printf("%s %s %s\n", icon.Get(icon.Audio), style.Faint(s.Audio.ID), s.Audio.URL)
	case source.SingleManifest:
		ic := icon.Get(icon.Video)
		if res.Mode == session.ModeLive {
			ic = icon.Get(icon.Live)
		}
		kind, err := source.Classify(s.URL)
		if err != nil {
			kind = source.Progressive
		}
		cmd.Printf("%s %s %s\n", ic, style.Faint(kind.String()), s.URL)
	}
}

func printPlaylist(cmd *cobra.Command, p provider.Playlist) {
	if !p.Master {
		cmd.Printf("%s media playlist, %s, live=%t\n", style.Faint("hls"), util.Quantify(p.Segments, "segment", "segments"), p.Live)
		return
	}

	for _, r := range p.Renditions {
		cmd.Printf("  %s %s %s\n",
			style.Fg(color.Cyan)(fmt.Sprintf("%9d", r.Bandwidth)),
			style.Bold(lo.Ternary(r.Resolution != "", r.Resolution, "audio")),
			style.Faint(r.Codecs),
		)
	}
}
