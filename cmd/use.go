package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(useCmd)
	useCmd.Flags().Bool("default", false, "Clear the managed keys and use Claude's built-in credentials")
}

var useCmd = &cobra.Command{
	Use:   "use [name|id]",
	Short: "Activate a provider",
	Long: `Activate a provider and write its env values into settings.json.

The keys of the previously active provider are removed first, so values that
only the old provider defined do not leak into the new configuration.

  claudeswap use DeepSeek
  claudeswap use 3f2a9c1e
  claudeswap use --default`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		useDefault, _ := cmd.Flags().GetBool("default")

		if useDefault {
			if len(args) > 0 {
				return errors.New("--default does not take a provider argument")
			}
			if err := withAccess(cmd, a, a.Service.ActivateDefault); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Switched to default credentials"))
			return nil
		}

		if len(args) == 0 {
			return errors.New("provider name or id required (or --default)")
		}
		p, err := resolveProvider(a, args[0])
		if err != nil {
			return err
		}
		err = withAccess(cmd, a, func() error {
			return a.Service.ActivateProvider(p.ID)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Switched to %s", p.Name)))
		return nil
	},
}
