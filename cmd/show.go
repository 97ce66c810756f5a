package cmd

import (
	"fmt"

	"claudeswap/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("reveal", false, "Print the auth token unmasked")
}

var showCmd = &cobra.Command{
	Use:   "show [name|id]",
	Short: "Show a provider's env values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		p, err := resolveProvider(a, args[0])
		if err != nil {
			return err
		}

		mask := utils.MaskToken
		if reveal, _ := cmd.Flags().GetBool("reveal"); reveal {
			mask = func(s string) string { return s }
		}

		out := cmd.OutOrStdout()
		status := "inactive"
		if p.IsActive {
			status = successStyle.Render("active")
		}
		fmt.Fprintf(out, "%s (%s) %s\n", p.Name, p.ID, status)
		fmt.Fprintf(out, "Icon: %s\n", p.Icon)
		for _, line := range envLines(p.EnvVariables, mask) {
			fmt.Fprintf(out, "  %s\n", line)
		}
		return nil
	},
}
