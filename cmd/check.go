package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"claudeswap/config/models"
	"claudeswap/internal/compatibility"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("endpoint check failed")

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("all", false, "Check every stored provider")
	checkCmd.Flags().Bool("stream", false, "Also check the streaming response")
	checkCmd.Flags().StringP("model", "m", "", "Model to request (default: the provider's own model env)")
	checkCmd.Flags().Duration("timeout", compatibility.DefaultTimeout, "Timeout per request")
	checkCmd.Flags().Bool("json", false, "Print results as JSON")
	checkCmd.Flags().BoolP("verbose", "v", false, "Include request and response bodies")
}

var checkCmd = &cobra.Command{
	Use:   "check [name|id]",
	Short: "Send a test request to a provider's endpoint",
	Long: `Send a one message request to the provider's Messages API endpoint using its
base URL, token and model, and report whether Claude Code can work with it.

Without an argument the active provider is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		var targets []models.Provider
		switch {
		case all:
			if len(args) > 0 {
				return errors.New("--all does not take a provider argument")
			}
			targets = a.Store.Providers()
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers configured")
				return nil
			}
		case len(args) == 1:
			p, err := resolveProvider(a, args[0])
			if err != nil {
				return err
			}
			targets = append(targets, p)
		default:
			p, ok := a.Service.ActiveProvider()
			if !ok {
				return errors.New("no active provider, pass a name or id")
			}
			targets = append(targets, p)
		}

		stream, _ := cmd.Flags().GetBool("stream")
		model, _ := cmd.Flags().GetString("model")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")

		prober := compatibility.New(
			compatibility.WithHTTPClient(&http.Client{Timeout: timeout}),
			compatibility.WithModel(model),
			compatibility.WithLogger(a.Logger),
		)

		var results []*compatibility.Result
		failed := false
		for _, p := range targets {
			res := prober.Probe(cmd.Context(), p, false)
			if stream && res.Level != compatibility.LevelNone {
				sres := prober.Probe(cmd.Context(), p, true)
				res = merge(res, sres)
			}
			if res.Level == compatibility.LevelNone {
				failed = true
			}
			results = append(results, res)
		}

		reporter := compatibility.NewReporter(cmd.OutOrStdout(),
			compatibility.AsJSON(asJSON),
			compatibility.Verbose(verbose),
		)
		if err := reporter.Report(results...); err != nil {
			return err
		}
		if failed {
			return errCheckFailed
		}
		return nil
	},
}

// merge folds a streaming probe into the basic one
func merge(basic, streamed *compatibility.Result) *compatibility.Result {
	out := *basic
	out.Checks = append(append([]compatibility.Check{}, basic.Checks...), streamed.Checks...)
	out.Level = compatibility.Grade(out.Checks)
	out.Latency = basic.Latency + streamed.Latency
	if out.Error == "" {
		out.Error = streamed.Error
	}
	if streamed.ResponseBody != "" {
		out.ResponseBody += "\n" + streamed.ResponseBody
	}
	return &out
}
