package cmd

import (
	"fmt"
	"time"

	"claudeswap/internal/daemon"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("debounce", daemon.DefaultDebounce, "Delay before reacting to a burst of changes")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow settings.json and reconcile on every external edit",
	Long: `Watch ~/.claude/settings.json and run 'detect' whenever it changes.

Stops on Ctrl+C or SIGTERM. Send SIGHUP to force a check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")

		if err := withAccess(cmd, a, a.Service.SyncOnStartup); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := daemon.New(a.Gateway.Path(), func() error {
			changed, err := a.Service.DetectExternalChange()
			if err != nil || !changed {
				return err
			}
			name := "default credentials"
			if p, ok := a.Service.ActiveProvider(); ok {
				name = p.Name
			}
			fmt.Fprintf(out, "%s active: %s\n", time.Now().Format(time.TimeOnly), name)
			return nil
		}, daemon.WithLogger(a.Logger), daemon.WithDebounce(debounce))

		fmt.Fprintln(out, dimStyle.Render("Watching "+a.Gateway.Path()+" (Ctrl+C to stop)"))
		return w.Run(cmd.Context())
	},
}
