package cmd

import (
	"fmt"

	"claudeswap/config/models"
	"claudeswap/internal/envcodec"
	"claudeswap/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active provider",
	Long:  "Show the active provider and the managed env values currently in settings.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var env models.EnvMap
		err = withAccess(cmd, a, func() error {
			if _, err := a.Service.DetectExternalChange(); err != nil {
				return err
			}
			env, err = a.Service.CurrentEnv()
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Settings: %s\n", a.Gateway.Path())

		active, ok := a.Service.ActiveProvider()
		switch {
		case ok:
			fmt.Fprintf(out, "Active provider: %s (%s)\n", active.Name, shortID(active.ID))
		case env.BaseURL() == "" && env.Token() == "":
			fmt.Fprintln(out, "Active provider: default (built-in credentials)")
		default:
			fmt.Fprintln(out, "Active provider: none (settings are not managed by claudeswap)")
		}

		for _, key := range models.StandardKeys {
			v, present := env[key]
			if !present {
				continue
			}
			value := v.Value
			if key == models.KeyAuthToken {
				value = utils.MaskToken(value)
			}
			fmt.Fprintf(out, "  %-31s %s\n", envcodec.Label(key)+":", value)
		}
		return nil
	},
}
