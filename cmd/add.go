package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"claudeswap/config/models"
	"claudeswap/config/validation"
	"claudeswap/internal/envcodec"
	"claudeswap/internal/providers"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("template", "t", providers.CustomName, "Template to start from (see 'claudeswap templates')")
	addCmd.Flags().StringP("name", "n", "", "Provider name (defaults to the template name)")
	addCmd.Flags().StringP("url", "u", "", "ANTHROPIC_BASE_URL")
	addCmd.Flags().String("token", "", "ANTHROPIC_AUTH_TOKEN (prompted on a terminal when omitted)")
	addCmd.Flags().StringArrayP("env", "e", nil, "Extra env value KEY=VALUE (repeatable)")
	addCmd.Flags().Bool("activate", false, "Activate the provider after adding it")
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a provider",
	Long: `Add a provider, optionally seeded from a built-in template.

  claudeswap add --template DeepSeek --token sk-xxx
  claudeswap add --name "My Proxy" --url https://proxy.example.com --token xxx \
      -e ANTHROPIC_DEFAULT_OPUS_MODEL=opus -e API_TIMEOUT_MS=600000

New providers are inactive; pass --activate to switch to it right away.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		templateName, _ := cmd.Flags().GetString("template")
		tmpl, err := providers.Get(templateName)
		if err != nil {
			return err
		}
		p := tmpl.NewProvider()

		if name, _ := cmd.Flags().GetString("name"); name != "" {
			p.Name = name
		}
		if url, _ := cmd.Flags().GetString("url"); url != "" {
			p.EnvVariables[models.KeyBaseURL] = models.String(url)
		}
		token, _ := cmd.Flags().GetString("token")
		if token == "" && isTerminal() {
			token, err = promptSecret(cmd, "Auth token: ")
			if err != nil {
				return err
			}
		}
		if token != "" {
			p.EnvVariables[models.KeyAuthToken] = models.String(token)
		}

		assignments, _ := cmd.Flags().GetStringArray("env")
		if err := applyAssignments(p.EnvVariables, assignments); err != nil {
			return err
		}
		if tmpl.Name == providers.CustomName {
			p.Icon = providers.InferIcon(p.EnvVariables)
		}
		dropEmptyModels(p.EnvVariables)

		if err := validation.NewValidator().ValidateProvider(p); err != nil {
			return err
		}
		if tmpl.Validate != nil && tmpl.Name != providers.CustomName {
			if verr := tmpl.Validate(p.EnvVariables); verr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("⚠️  "+verr.Error()))
			}
		}
		printTokenCheck(cmd, a.Service.CheckTokenDuplicate(p.Token(), p.BaseURL(), nil))

		stored, err := a.Service.AddProvider(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Added %s (%s)", stored.Name, shortID(stored.ID))))

		if activate, _ := cmd.Flags().GetBool("activate"); activate {
			err := withAccess(cmd, a, func() error {
				return a.Service.ActivateProvider(stored.ID)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Switched to %s", stored.Name)))
		}
		return nil
	},
}

// applyAssignments parses KEY=VALUE pairs into env
func applyAssignments(env models.EnvMap, assignments []string) error {
	iv := validation.NewInputValidator()
	for _, s := range assignments {
		key, raw, err := iv.ParseAssignment(s)
		if err != nil {
			return err
		}
		v, err := envcodec.ParseValue(key, raw)
		if err != nil {
			return err
		}
		env[key] = v
	}
	return nil
}

// dropEmptyModels removes model keys left blank by a template
func dropEmptyModels(env models.EnvMap) {
	for _, key := range []string{models.KeyHaikuModel, models.KeySonnetModel, models.KeyOpusModel} {
		if v, ok := env[key]; ok && strings.TrimSpace(v.Value) == "" {
			delete(env, key)
		}
	}
}

// promptSecret reads a value without echo
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", errors.New("failed to read token")
	}
	return strings.TrimSpace(string(data)), nil
}
