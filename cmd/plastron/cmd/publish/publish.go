// Package publish implements "plastron publish".
//
// Grounded on the publish command in plastron-cli/.../commands/publish.py.
package publish

import (
	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/cmdutil"
	"github.com/umd-lib/plastron-go/pkg/handles"
	"github.com/umd-lib/plastron-go/pkg/publish"
	"github.com/umd-lib/plastron-go/pkg/rdf"
)

// NewCommand builds the publish subcommand.
func NewCommand() *cobra.Command {
	var hidden, visible bool

	cmd := &cobra.Command{
		Use:   "publish <uri>...",
		Short: "publish one or more resources, minting or reconciling their handles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, logger, cfg, err := cmdutil.Bootstrap(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			handleClient := handles.NewHandleServiceClient(cfg.PublicationWorkflow.HandleEndpoint, cfg.PublicationWorkflow.HandleJWTToken)

			schema := rdf.Schema{}.Merge(publish.HandleSchema)

			for _, uri := range args {
				res, err := r.ResourceAt(cmd.Context(), uri, "PublishableResource", schema)
				if err != nil {
					logger.Errorf("unable to retrieve %s: %v", uri, err)
					continue
				}

				publicURL, err := publish.BuildPublicURL(cfg.PublicationWorkflow.PublicURLPattern, r.Client.Repo, res.URI())
				if err != nil {
					logger.Errorf("unable to build public URL for %s: %v", uri, err)
					continue
				}

				handleInfo, err := publish.Publish(cmd.Context(), r.Client, handleClient, res, publicURL, cfg.PublicationWorkflow.HandleRepo, hidden, visible, logger)
				if err != nil {
					logger.Errorf("unable to publish %s: %v", uri, err)
					continue
				}

				logger.Infof("publication status of %s is %s", uri, publish.Status(res))
				logger.Infof("handle for %s is %s with target URL %s", uri, handleInfo.HdlURI(), handleInfo.URL)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&hidden, "hidden", false, `set the "Hidden" state on these resources`)
	cmd.Flags().BoolVar(&visible, "visible", false, `remove the "Hidden" state from these resources`)
	cmd.MarkFlagsMutuallyExclusive("hidden", "visible")

	return cmd
}
