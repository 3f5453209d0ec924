package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func directoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "Fetch and print the ACME server's directory resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := opts.client()
			if err != nil {
				return err
			}

			dir, err := c.Directory(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(dir, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
