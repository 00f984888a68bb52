// Package cmd assembles the plastron command-line tree.
//
// Grounded on components/mdz/cmd/root.go.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/cmdutil"
	delcmd "github.com/umd-lib/plastron-go/cmd/plastron/cmd/delete"
	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/load"
	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/publish"
	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/testconn"
	"github.com/umd-lib/plastron-go/cmd/plastron/cmd/unpublish"
)

// NewRootCommand builds the plastron root command and its subcommands.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plastron",
		Short:         "plastron is a batch client for an LDP/Fedora 4 repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP(cmdutil.ConfigFlag, "c", "config.yml", "path to the YAML configuration file")
	cmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")

	cmd.AddCommand(load.NewCommand())
	cmd.AddCommand(publish.NewCommand())
	cmd.AddCommand(unpublish.NewCommand())
	cmd.AddCommand(delcmd.NewCommand())
	cmd.AddCommand(testconn.NewCommand())

	return cmd
}

// Execute runs the root command and maps its outcome to an exit code:
// 0 success, 1 general failure, 2 interrupted.
//
// Grounded on spec.md's error handling design (§7) and
// components/mdz/cmd/root.go's Execute.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := NewRootCommand().ExecuteContext(ctx)

	switch {
	case err == nil:
		os.Exit(0)
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
