package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var errDirectAccess = errors.New("access grants are only used with access = \"scoped\"")

func init() {
	rootCmd.AddCommand(accessCmd)
	accessCmd.AddCommand(accessGrantCmd)
	accessCmd.AddCommand(accessRevokeCmd)
	accessCmd.AddCommand(accessStatusCmd)
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Manage the grant to modify the Claude settings directory",
	Long: `In scoped access mode claudeswap only touches the .claude directory after
the user grants it explicitly. These commands manage that grant.`,
}

var accessGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant access to the Claude settings directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if a.Scoped == nil {
			return errDirectAccess
		}
		if err := a.Scoped.RequestAccess(a.Gateway.Dir()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Access granted to "+a.Gateway.Dir()))
		return nil
	},
}

var accessRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke access to the Claude settings directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if a.Scoped == nil {
			return errDirectAccess
		}
		if err := a.Scoped.Revoke(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Access revoked"))
		return nil
	},
}

var accessStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored access grant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if a.Scoped == nil {
			fmt.Fprintln(out, "Access mode: direct (file permissions apply)")
			return nil
		}
		record, ok, err := a.Scoped.Status()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Access mode: scoped, no grant")
			return nil
		}
		fmt.Fprintf(out, "Access mode: scoped, granted %s for %s\n", record.GrantedAt.Local().Format(time.DateTime), record.Dir)
		if record.Dir != a.Gateway.Dir() {
			fmt.Fprintln(out, warnStyle.Render("⚠️  Grant does not cover "+a.Gateway.Dir()))
		}
		return nil
	},
}
