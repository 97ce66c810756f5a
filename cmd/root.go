package cmd

import (
	"github.com/spf13/cobra"

	"claudeswap/config"
)

// Version information
var (
	version string
	commit  string
	date    string
)

// SetVersionInfo sets the version information
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

var cfgFile string

// skipAppAnnotation marks commands that run without the store and gateway
const skipAppAnnotation = "claudeswap/skip-app"

var rootCmd = &cobra.Command{
	Use:   "claudeswap",
	Short: "Switch Claude Code between API provider profiles",
	Long: `claudeswap keeps a list of API provider profiles and writes the active one
into the env section of ~/.claude/settings.json, leaving every other setting untouched.

Run without a subcommand on a terminal to open the interactive switcher.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, skip := cmd.Annotations[skipAppAnnotation]; skip {
			return nil
		}
		settings, err := config.LoadSettings(cfgFile)
		if err != nil {
			return err
		}
		a, err := newApp(settings, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cmd.SetContext(withApp(cmd.Context(), a))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal() {
			return cmd.Help()
		}
		return tuiCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default $XDG_CONFIG_HOME/claudeswap/config.toml)")
}

// executeC runs the command tree and closes the application afterwards
func executeC() (*cobra.Command, error) {
	cmd, err := rootCmd.ExecuteC()
	if cmd != nil {
		if a, aerr := appFrom(cmd); aerr == nil {
			a.Close()
		}
	}
	return cmd, err
}

// Execute executes the root command
func Execute() error {
	// 设置版本信息
	rootCmd.Version = version

	// 设置版本输出格式
	rootCmd.SetVersionTemplate(`claudeswap {{.Version}}
Commit: ` + commit + `
Date: ` + date + `
`)

	_, err := executeC()
	return err
}
