package cmd

import (
	"fmt"
	"io"
	"os"

	"claudeswap/config/models"
	syncpkg "claudeswap/config/sync"

	"github.com/spf13/cobra"
)

// clipboardFactory is replaced in tests
var clipboardFactory = func() syncpkg.Clipboard { return syncpkg.SystemClipboard{} }

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	importCmd.Flags().StringP("file", "f", "", `Read the payload from a file ("-" for stdin) instead of the clipboard`)
	exportCmd.Flags().StringP("file", "f", "", `Write the payload to a file ("-" for stdout) instead of the clipboard`)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: `Import a provider from a {"env": {...}} snippet`,
	Long: `Import a provider from a settings.json style snippet:

  {
      "env": {
          "ANTHROPIC_AUTH_TOKEN": "sk-xxx",
          "ANTHROPIC_BASE_URL": "https://api.deepseek.com/anthropic"
      }
  }

The snippet is read from the clipboard unless --file is given. Both the token
and the base URL are required. The provider is named after the matching
template, or "Custom".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		var (
			p     models.Provider
			check models.TokenCheck
		)
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			p, check, err = a.Service.ImportFromClipboard(clipboardFactory())
		} else {
			var data []byte
			data, err = readInput(cmd, file)
			if err != nil {
				return err
			}
			p, check, err = a.Service.ImportProvider(data)
		}
		if err != nil {
			return err
		}

		printTokenCheck(cmd, check)
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Imported %s (%s)", p.Name, shortID(p.ID))))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [name|id]",
	Short: `Export a provider as a {"env": {...}} snippet`,
	Long: `Export a provider's env values as a settings.json style snippet.

The snippet contains the auth token in clear text. It is copied to the
clipboard unless --file is given.`,
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

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			if err := a.Service.ExportToClipboard(clipboardFactory(), p.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Copied %s to the clipboard", p.Name)))
			return nil
		}

		data, err := a.Service.Export(p)
		if err != nil {
			return err
		}
		if file == "-" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if err := os.WriteFile(file, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Exported %s to %s", p.Name, file)))
		return nil
	},
}

// readInput reads a file, or stdin for "-"
func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
