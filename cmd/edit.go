package cmd

import (
	"fmt"

	"claudeswap/config/models"
	"claudeswap/config/validation"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringP("name", "n", "", "New provider name")
	editCmd.Flags().StringArrayP("set", "s", nil, "Set env value KEY=VALUE (repeatable)")
	editCmd.Flags().StringArrayP("unset", "u", nil, "Remove env key (repeatable)")
}

var editCmd = &cobra.Command{
	Use:   "edit [name|id]",
	Short: "Edit a provider",
	Long: `Edit a provider's name or env values.

Editing the active provider rewrites settings.json right away; keys removed
with --unset are removed from settings.json as well.

  claudeswap edit DeepSeek --set API_TIMEOUT_MS=300000
  claudeswap edit "My Proxy" --name Proxy --unset ANTHROPIC_DEFAULT_OPUS_MODEL`,
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
		oldToken := p.Token()
		p.EnvVariables = p.EnvVariables.Clone()

		if name, _ := cmd.Flags().GetString("name"); name != "" {
			p.Name = name
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		if err := applyAssignments(p.EnvVariables, sets); err != nil {
			return err
		}
		unsets, _ := cmd.Flags().GetStringArray("unset")
		for _, key := range unsets {
			delete(p.EnvVariables, key)
		}

		if err := validation.NewValidator().ValidateProvider(p); err != nil {
			return err
		}
		if p.Token() != oldToken {
			printTokenCheck(cmd, a.Service.CheckTokenDuplicate(p.Token(), p.BaseURL(), &p.ID))
		}

		err = withAccess(cmd, a, func() error {
			return a.Service.UpdateProvider(p)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Updated %s", p.Name)))
		if p.IsActive {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("settings.json updated for the active provider"))
		}
		return nil
	},
}

// envLines formats env for display with the token masked
func envLines(env models.EnvMap, mask func(string) string) []string {
	lines := make([]string, 0, len(env))
	for _, key := range env.Keys() {
		value := env[key].Value
		if key == models.KeyAuthToken {
			value = mask(value)
		}
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	return lines
}
