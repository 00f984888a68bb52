// Package load implements "plastron load", which reads a CSV manifest of
// items and creates one repository resource per row.
//
// Grounded on the load command in plastron-cli/.../commands/load.py.
package load

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/cmdutil"
	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/pkg/batch"
	"github.com/umd-lib/plastron-go/pkg/rdf"
	"github.com/umd-lib/plastron-go/pkg/repo"
)

const (
	pcdmObject     = "http://pcdm.org/models#Object"
	dctermsTitle   = "http://purl.org/dc/terms/title"
	dctermsCreated = "http://purl.org/dc/terms/created"
	xsdDateTime    = "http://www.w3.org/2001/XMLSchema#dateTime"
)

var itemSchema = rdf.Schema{
	{Name: "Title", Predicate: rdf.URI(dctermsTitle), Kind: rdf.DataProperty, Required: true},
	{Name: "Created", Predicate: rdf.URI(dctermsCreated), Kind: rdf.DataProperty, Datatype: xsdDateTime},
}

var logFieldnames = []string{"number", "path", "title", "uri", "timestamp"}

// NewCommand builds the load subcommand.
func NewCommand() *cobra.Command {
	var (
		manifestPath    string
		containerPath   string
		extraPath       string
		completedPath   string
		ignoredPath     string
		skippedPath     string
		useTransactions bool
		limit           int
		percent         int
		wait            time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "load a CSV manifest of items into the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, logger, _, err := cmdutil.Bootstrap(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			items, err := readManifest(manifestPath)
			if err != nil {
				return err
			}

			completed, err := batch.OpenItemLog(completedPath, logFieldnames, "path", true, logger)
			if err != nil {
				return err
			}
			defer completed.Close() //nolint:errcheck

			var ignored, skipped *batch.ItemLog

			if ignoredPath != "" {
				ignored, err = batch.OpenItemLog(ignoredPath, logFieldnames, "path", true, logger)
				if err != nil {
					return err
				}
				defer ignored.Close() //nolint:errcheck
			}

			skipped, err = batch.OpenItemLog(skippedPath, logFieldnames, "path", true, logger)
			if err != nil {
				return err
			}
			defer skipped.Close() //nolint:errcheck

			opts := batch.Options{
				Client:          r.Client,
				UseTransactions: useTransactions,
				Limit:           limit,
				Percent:         percent,
				Completed:       completed,
				Ignored:         ignored,
				Skipped:         skipped,
				ExtraPath:       extraPath,
				Wait:            wait,
				Logger:          logger,
				Load:            buildLoadFunc(containerPath),
			}

			result, err := batch.Run(cmd.Context(), items, opts)

			logger.Infof("loaded %d, skipped %d, ignored %d", result.Loaded, result.Skipped, result.Ignored)

			return err
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the CSV manifest of items (required)")
	cmd.Flags().StringVar(&containerPath, "container-path", "", "path under the repository root new items are created in")
	cmd.Flags().StringVar(&extraPath, "extra", "", "path to a file of extra triples merged into every item")
	cmd.Flags().StringVar(&completedPath, "completed-log", "completed.csv", "path to the completed-item log")
	cmd.Flags().StringVar(&ignoredPath, "ignored-log", "", "path to a log of items to skip without counting as failures")
	cmd.Flags().StringVar(&skippedPath, "skipped-log", "skipped.csv", "path to the skipped-item log")
	cmd.Flags().BoolVar(&useTransactions, "use-transactions", true, "wrap each item's creation in a repository transaction")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many items (0 means unlimited)")
	cmd.Flags().IntVar(&percent, "percent", 100, "percentage of the manifest to select")
	cmd.Flags().DurationVar(&wait, "wait", 0, "delay between items")

	cmd.MarkFlagRequired("manifest") //nolint:errcheck

	return cmd
}

// readManifest parses a CSV file with "path", "title", and
// "creation_timestamp" columns (case-insensitive) into batch Items.
func readManifest(path string) ([]batch.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, merrors.DataReadError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, merrors.DataReadError{Path: path, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	pathCol, ok := index["path"]
	if !ok {
		return nil, merrors.DataReadError{Path: path, Err: errMissingColumn("path")}
	}

	titleCol, hasTitle := index["title"]
	createdCol, hasCreated := index["creation_timestamp"]

	var items []batch.Item

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, merrors.DataReadError{Path: path, Err: err}
		}

		item := batch.Item{Path: record[pathCol]}

		if hasTitle && titleCol < len(record) {
			item.Title = record[titleCol]
		}

		if hasCreated && createdCol < len(record) {
			item.CreationTimestamp = record[createdCol]
		}

		items = append(items, item)
	}

	return items, nil
}

type errMissingColumn string

func (e errMissingColumn) Error() string { return "missing required column: " + string(e) }

// buildLoadFunc returns a LoadFunc that creates a pcdm:Object resource
// carrying the item's title and creation timestamp, plus any triples
// supplied by --extra (re-subjected onto the new resource).
func buildLoadFunc(containerPath string) batch.LoadFunc {
	return func(ctx context.Context, client repo.RequestClient, item batch.Item, extra *rdf.Graph) (string, error) {
		res := rdf.NewResource("Item", itemSchema, "", nil)
		res.AddRDFType(pcdmObject)

		if item.Title != "" {
			res.Property("Title").Add(rdf.Literal(item.Title))
		}

		if item.CreationTimestamp != "" {
			res.Property("Created").Add(rdf.TypedLiteral(item.CreationTimestamp, xsdDateTime))
		}

		if extra != nil {
			subject := rdf.URI(res.URI())
			for _, t := range extra.All() {
				res.Graph().Add(rdf.Triple{Subject: subject, Predicate: t.Predicate, Object: t.Object})
			}
		}

		var buf bytes.Buffer
		if err := rdf.EncodeNTriples(res.Graph(), &buf); err != nil {
			return "", merrors.DataReadError{Path: item.Path, Err: err}
		}

		created, err := client.Create(ctx, repo.CreateOptions{
			ContainerPath: containerPath,
			Body:          &buf,
			Headers:       map[string]string{"Content-Type": "application/n-triples"},
		})
		if err != nil {
			return "", err
		}

		return created.URI, nil
	}
}
