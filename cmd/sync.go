package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(detectCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Adopt the provider currently configured in settings.json",
	Long: `Read settings.json and mark the matching saved provider active.

When no saved provider uses the configured token, a new provider is created
from the current env, named after the matching template or "Other".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if err := withAccess(cmd, a, a.Service.SyncOnStartup); err != nil {
			return err
		}
		if p, ok := a.Service.ActiveProvider(); ok {
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Active provider: %s", p.Name)))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No provider configured in settings.json")
		}
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Reconcile saved providers with external edits to settings.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		var changed bool
		err = withAccess(cmd, a, func() error {
			var derr error
			changed, derr = a.Service.DetectExternalChange()
			return derr
		})
		if err != nil {
			return err
		}
		if !changed {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes")
			return nil
		}
		if p, ok := a.Service.ActiveProvider(); ok {
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Active provider is now %s", p.Name)))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Using default credentials"))
		}
		return nil
	},
}
