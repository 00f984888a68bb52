// Package testconn implements "plastron test-connection".
package testconn

import (
	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/cmdutil"
)

// NewCommand builds the test-connection subcommand.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "verify connectivity to the configured repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, logger, _, err := cmdutil.Bootstrap(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return r.Client.TestConnection(cmd.Context())
		},
	}
}
