package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worldsnap",
		Short: "Restore world regions from chunk snapshots",
		Long: `
worldsnap restores regions of a voxel world from point-in-time snapshots of
its chunks. Snapshots are resolved either from a repository directory or from
an indexed snapshot database.
`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}

	globalOptions.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRestoreCommand(),
		newSnapshotsCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			Printf("worldsnap %s compiled with %v on %v/%v\n",
				version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func createGlobalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

func main() {
	debug.Log("main %#v", os.Args)

	ctx := createGlobalContext()
	err := newRootCommand().ExecuteContext(ctx)
	if err == nil {
		err = ctx.Err()
	}

	var exitMessage string
	switch {
	case err == nil:
	case errors.IsFatal(err):
		exitMessage = err.Error()
	default:
		exitMessage = fmt.Sprintf("%+v", err)
	}

	var exitCode int
	switch {
	case err == nil:
		exitCode = 0
	case errors.Is(err, context.Canceled):
		exitCode = 130
	default:
		exitCode = 1
	}

	if exitCode != 0 {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", exitMessage)
	}
	os.Exit(exitCode)
}
