package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/imagevault/imagevault-server/internal/service"
)

func newAccountCmd(flags *storeFlags) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the single user account",
	}
	accountCmd.AddCommand(newAccountSetCmd(flags))
	accountCmd.AddCommand(newAccountVerifyCmd(flags))
	return accountCmd
}

type credentials struct {
	email    string
	name     string
	password string
}

func (c *credentials) bind(cmd *cobra.Command, withName bool) {
	cmd.Flags().StringVar(&c.email, "email", "", "Account email")
	cmd.Flags().StringVar(&c.password, "password", "", "Account password (read from stdin when omitted)")
	if withName {
		cmd.Flags().StringVar(&c.name, "name", "", "Display name")
	}
	_ = cmd.MarkFlagRequired("email")
}

// resolvePassword reads the first stdin line when --password was not given.
func (c *credentials) resolvePassword(cmd *cobra.Command) error {
	if c.password != "" {
		return nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return errors.New("password required: pass --password or pipe it on stdin")
	}
	c.password = strings.TrimRight(line, "\r\n")
	return nil
}

func newAccountSetCmd(flags *storeFlags) *cobra.Command {
	creds := &credentials{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create the account or replace its name and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := creds.resolvePassword(cmd); err != nil {
				return err
			}

			injector, err := flags.container()
			if err != nil {
				return err
			}
			defer shutdown(cmd, injector)

			authService, err := do.Invoke[*service.AuthService](injector)
			if err != nil {
				return err
			}
			user, err := authService.BootstrapAccount(cmd.Context(), creds.email, creds.name, creds.password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "account %s saved\n", user.Email)
			return nil
		},
	}
	creds.bind(cmd, true)
	return cmd
}

func newAccountVerifyCmd(flags *storeFlags) *cobra.Command {
	creds := &credentials{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a password against the stored account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := creds.resolvePassword(cmd); err != nil {
				return err
			}

			injector, err := flags.container()
			if err != nil {
				return err
			}
			defer shutdown(cmd, injector)

			authService, err := do.Invoke[*service.AuthService](injector)
			if err != nil {
				return err
			}
			ok, err := authService.VerifyAccount(cmd.Context(), creds.email, creds.password)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("invalid credentials")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "credentials ok")
			return nil
		},
	}
	creds.bind(cmd, false)
	return cmd
}
