package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"compilestrength/internal/client"
)

func newLoginCmd(newClient func() *client.Client) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := newClient().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export COACH_TOKEN=%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
