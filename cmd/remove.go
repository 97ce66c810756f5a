package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

var removeCmd = &cobra.Command{
	Use:     "remove [name|id]",
	Aliases: []string{"rm"},
	Short:   "Remove a provider",
	Long: `Remove a provider.

Removing the active provider switches Claude Code back to its default
credentials by clearing the provider's keys from settings.json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		p, err := resolveProvider(a, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && isTerminal() && !confirm(cmd, fmt.Sprintf("Remove provider %q?", p.Name)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}

		err = withAccess(cmd, a, func() error {
			return a.Service.DeleteProvider(p.ID)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Removed %s", p.Name)))
		if p.IsActive {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("Switched to default credentials"))
		}
		return nil
	},
}
