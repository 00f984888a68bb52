// Package delete implements "plastron delete", a recursive, transactional
// deletion of a resource tree.
//
// Grounded on end-to-end scenario 4 (spec.md §8) and Client.recursive_get /
// ResourceList.process in the reference implementation.
package delete

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/cmdutil"
	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/pkg/rdf"
	"github.com/umd-lib/plastron-go/pkg/repo"
)

// NewCommand builds the delete subcommand.
func NewCommand() *cobra.Command {
	var (
		traverse []string
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "delete <uri>",
		Short: "recursively delete a resource tree within a single transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, logger, _, err := cmdutil.Bootstrap(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			predicates := make([]rdf.Term, len(traverse))
			for i, p := range traverse {
				predicates[i] = rdf.URI(p)
			}

			base, _ := r.Resolve(args[0])

			var uris []string

			walkErr := repo.Walk(cmd.Context(), r, base, repo.WalkOptions{Traverse: predicates, MaxDepth: maxDepth},
				func(resource repo.ResourceURI, graph *rdf.Graph, depth int, tombstone *repo.Tombstone) error {
					if tombstone != nil {
						return nil
					}

					uris = append(uris, resource.URI)
					return nil
				},
			)
			if walkErr != nil {
				return walkErr
			}

			logger.Infof("deleting %d resource(s) under %s", len(uris), base)

			txn, err := repo.Begin(cmd.Context(), r.Client)
			if err != nil {
				return err
			}

			for i := len(uris) - 1; i >= 0; i-- {
				uri := uris[i]

				resp, deleteErr := txn.Delete(cmd.Context(), uri, nil)
				if deleteErr != nil {
					txn.Rollback(cmd.Context()) //nolint:errcheck
					return deleteErr
				}

				resp.Body.Close()

				if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusGone {
					txn.Rollback(cmd.Context()) //nolint:errcheck
					return merrors.ClientError{Method: "DELETE", URL: uri, StatusCode: resp.StatusCode}
				}

				logger.Infof("deleted %s", uri)
			}

			return txn.Commit(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&traverse, "traverse", nil, "predicate URIs to follow when discovering child resources")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum recursion depth (0 means unbounded)")

	return cmd
}
