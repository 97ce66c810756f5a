package cmd

import (
	"fmt"
	"path/filepath"

	"claudeswap/config"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing settings file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage claudeswap's own settings",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a settings file with the default values",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			// 默认写入 data_dir，CLAUDESWAP_DATA_DIR 同样生效
			settings, err := config.LoadSettings("")
			if err != nil {
				return err
			}
			path = filepath.Join(settings.DataDir, config.SettingsFile)
		}
		force, _ := cmd.Flags().GetBool("force")
		if err := config.WriteSettings(path, config.DefaultSettings(), force); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Wrote "+path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective settings",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings(cfgFile)
		if err != nil {
			return err
		}
		data, err := settings.Encode()
		if err != nil {
			return err
		}
		source := settings.Source()
		if source == "" {
			source = "defaults"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, dimStyle.Render("# source: "+source))
		fmt.Fprint(out, string(data))
		return nil
	},
}
