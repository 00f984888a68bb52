// Package unpublish implements "plastron unpublish".
//
// Grounded on the unpublish command in plastron-cli/.../commands/unpublish.py.
package unpublish

import (
	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/cmdutil"
	"github.com/umd-lib/plastron-go/pkg/publish"
	"github.com/umd-lib/plastron-go/pkg/rdf"
)

// NewCommand builds the unpublish subcommand.
func NewCommand() *cobra.Command {
	var hidden, visible bool

	cmd := &cobra.Command{
		Use:   "unpublish <uri>...",
		Short: "remove the Published access class from one or more resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, logger, _, err := cmdutil.Bootstrap(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			schema := rdf.Schema{}.Merge(publish.HandleSchema)

			for _, uri := range args {
				res, err := r.ResourceAt(cmd.Context(), uri, "PublishableResource", schema)
				if err != nil {
					logger.Errorf("unable to retrieve %s: %v", uri, err)
					continue
				}

				if err := publish.Unpublish(cmd.Context(), r.Client, res, hidden, visible); err != nil {
					logger.Errorf("unable to unpublish %s: %v", uri, err)
					continue
				}

				logger.Infof("publication status of %s is %s", uri, publish.Status(res))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&hidden, "hidden", false, `set the "Hidden" state on these resources`)
	cmd.Flags().BoolVar(&visible, "visible", false, `remove the "Hidden" state from these resources`)
	cmd.MarkFlagsMutuallyExclusive("hidden", "visible")

	return cmd
}
