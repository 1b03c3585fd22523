// Package cmd implements the command-line interface for tubelink.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/color"
	"github.com/tubelink/tubelink/constant"
	"github.com/tubelink/tubelink/icon"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/quality"
	"github.com/tubelink/tubelink/style"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Record resolved videos in the history")
	lo.Must0(viper.BindPFlag(key.HistorySave, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.PersistentFlags().StringP("quality", "q", "", "Requested quality (144p, 240p, 360p, 480p, 720p, 1080p or default)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("quality", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(quality.Tiers(), func(t quality.Tier, _ int) string { return t.String() }), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PlayerDefaultQuality, rootCmd.PersistentFlags().Lookup("quality")))
}

// rootCmd defines the entry point for the tubelink application.
var rootCmd = &cobra.Command{
	Use:   constant.Tubelink,
	Short: "Resolve and play videos with quality fallback and live stream discovery",
	Long: style.New().Bold(true).Foreground(color.HiRed).Render(constant.Tubelink) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Resolve and play videos with quality fallback and live stream discovery"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

// requestedTier parses the quality flag, falling back to the configured default.
func requestedTier() (quality.Tier, error) {
	return quality.ParseTier(viper.GetString(key.PlayerDefaultQuality))
}
