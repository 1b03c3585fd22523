package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tubelink/tubelink/color"
	"github.com/tubelink/tubelink/history"
	"github.com/tubelink/tubelink/icon"
	"github.com/tubelink/tubelink/style"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	historyCmd.Flags().IntP("limit", "n", 0, "Show at most this many entries")
	historyCmd.Flags().Bool("clear", false, "Delete every entry")

	historyCmd.SetOut(os.Stdout)
}

// historyCmd lists previously resolved sources, most recent first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display previously resolved videos",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("clear")) {
			handleErr(history.Clear())
			cmd.Printf("%s History cleared\n", icon.Get(icon.Success))
			return
		}

		entries, err := history.Recent()
		handleErr(err)

		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && limit < len(entries) {
			entries = entries[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(entries))
			return
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("No history yet"))
			return
		}

		for _, e := range entries {
			cmd.Printf("%s %s\n",
				style.Fg(color.Yellow)(e.LastResolved.Format("2006-01-02 15:04")),
				e.String(),
			)
		}
		cmd.Println(style.Faint(fmt.Sprintf("%d total", len(entries))))
	},
}
