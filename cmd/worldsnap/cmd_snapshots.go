package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/snapshot"
)

func newSnapshotsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots [flags] world",
		Short: "List the snapshots of a world",
		Long: `
The "snapshots" command lists all snapshots of a world known to the
configured snapshot source, newest first.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshots(cmd.Context(), globalOptions, args)
		},
	}
}

// snapshotLister is implemented by both catalog backends.
type snapshotLister interface {
	Snapshots(ctx context.Context, worldName string) ([]*snapshot.Snapshot, error)
}

func runSnapshots(ctx context.Context, gopts GlobalOptions, args []string) error {
	if len(args) != 1 {
		return errors.Fatal("wrong number of arguments, expected: world")
	}
	worldName := args[0]

	catalog, cleanup, err := openCatalog(&gopts)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			Warnf("closing snapshot catalog failed: %v\n", err)
		}
	}()

	lister, ok := catalog.(snapshotLister)
	if !ok {
		return errors.Fatal("the configured snapshot source cannot list snapshots")
	}

	snapshots, err := lister.Snapshots(ctx, worldName)
	switch {
	case errors.Is(err, snapshot.ErrWorldUnknown):
		return errors.Fatalf("world %q is unknown to the snapshot backend", worldName)
	case err != nil:
		return err
	}

	if len(snapshots) == 0 {
		Verbosef("no snapshots were found for world %q\n", worldName)
		return nil
	}

	for _, sn := range snapshots {
		Printf("%s  %s\n", sn.TakenAt.Format(TimeFormat), sn.Name)
	}
	Verbosef("%d snapshots\n", len(snapshots))

	return nil
}
