package cmd

import (
	"claudeswap/internal/tui"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive switcher",
	Long: `Open the interactive switcher.

The list starts with the default entry (Claude Code's own login), followed by
the saved providers. Press ? inside the switcher for key bindings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return tui.Run(a.Service, clipboardFactory(), a.Gateway.Path(), a.Logger)
	},
}
