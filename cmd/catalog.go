package cmd

import (
	"fmt"
	"strings"

	"claudeswap/internal/envcodec"
	"claudeswap/internal/providers"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(keysCmd)
}

var templatesCmd = &cobra.Command{
	Use:         "templates",
	Short:       "List the built-in provider templates",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, t := range providers.All() {
			url := t.BaseURL()
			if url == "" {
				url = dimStyle.Render("(custom)")
			}
			fmt.Fprintf(out, "%-16s %s\n", t.Name, url)
			if t.DocLink != "" {
				fmt.Fprintf(out, "%-16s %s\n", "", dimStyle.Render(t.DocLink))
			}
		}
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List the env keys with a known type",
	Long:        `List env keys whose values are written as integers or booleans. Unlisted keys are written as strings.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, k := range envcodec.KnownKeys() {
			label := ""
			if k.Standard {
				label = k.Label
			}
			fmt.Fprintln(out, strings.TrimRight(fmt.Sprintf("%-45s %-8s %s", k.Name, k.Type, label), " "))
		}
		return nil
	},
}
