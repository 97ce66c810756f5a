package cmd

import (
	"fmt"

	"claudeswap/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all providers",
	Long: `List all saved providers.

settings.json is checked for external changes first, so the active marker
reflects what Claude Code will actually use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		var isDefault bool
		err = withAccess(cmd, a, func() error {
			if _, err := a.Service.DetectExternalChange(); err != nil {
				return err
			}
			isDefault, err = a.Service.IsDefaultActive()
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		providers := a.Service.Providers()
		if len(providers) == 0 {
			fmt.Fprintln(out, "No providers available")
			fmt.Fprintln(out, dimStyle.Render("Add one with 'claudeswap add --template <name>' or 'claudeswap import'"))
			return nil
		}

		marker := " "
		if isDefault {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-8s  %s\n", marker, "default", "Claude (built-in credentials)")

		for _, p := range providers {
			marker := " "
			if p.IsActive {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s  %s (URL: %s, Token: %s)\n",
				marker, shortID(p.ID), p.Name, p.BaseURL(), utils.MaskToken(p.Token()))
		}
		fmt.Fprintf(out, "\n* indicates the active provider\n")
		return nil
	},
}
