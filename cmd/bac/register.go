package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func registerCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register an ACME account and save it to the account path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, log, err := opts.client()
			if err != nil {
				return err
			}

			acct, _, err := opts.account(cmd.Context(), c)
			if err != nil {
				return err
			}

			log.Info("account ready",
				zap.String("id", acct.ID),
				zap.String("path", opts.AccountPath))
			fmt.Fprintln(cmd.OutOrStdout(), acct.ID)
			return nil
		},
	}
}
