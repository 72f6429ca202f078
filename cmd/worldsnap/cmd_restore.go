package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/restorer"
	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/world"
)

func newRestoreCommand() *cobra.Command {
	var opts RestoreOptions

	cmd := &cobra.Command{
		Use:   "restore [flags] world [snapshot]",
		Short: "Restore a region from a snapshot",
		Long: `
The "restore" command restores a region of a world from a snapshot. When no
snapshot name is given, the most recent snapshot of the world is used.

Chunks that are missing from the snapshot or cannot be read are skipped, the
remaining chunks are restored and a summary is printed at the end.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd.Context(), opts, globalOptions, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.From, "from", "", "first corner of the region to restore, as `x,y,z`")
	flags.StringVar(&opts.To, "to", "", "second corner of the region to restore, as `x,y,z`")

	return cmd
}

// RestoreOptions collects all options for the restore command.
type RestoreOptions struct {
	From string
	To   string
}

// parseBlockPos parses a position given as "x,y,z".
func parseBlockPos(s string) (world.BlockPos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return world.BlockPos{}, errors.Errorf("invalid position %q, expected x,y,z", s)
	}

	var coords [3]int32
	for i, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return world.BlockPos{}, errors.Errorf("invalid coordinate %q in position %q", part, s)
		}
		coords[i] = int32(v)
	}

	return world.BlockPos{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func resolveSnapshot(ctx context.Context, catalog snapshot.Catalog, worldName, snapshotName string) (*snapshot.Snapshot, error) {
	if snapshotName != "" {
		sn, err := catalog.Named(ctx, snapshotName)
		switch {
		case errors.Is(err, snapshot.ErrSnapshotNotFound):
			return nil, errors.Fatalf("snapshot %q does not exist or is not available", snapshotName)
		case errors.Is(err, snapshot.ErrInvalidName):
			return nil, errors.Fatalf("invalid snapshot name %q", snapshotName)
		case err != nil:
			return nil, err
		}
		return sn, nil
	}

	sn, err := catalog.Latest(ctx, worldName)
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshotFound):
		return nil, errors.Fatalf("no snapshots were found for world %q", worldName)
	case errors.Is(err, snapshot.ErrWorldUnknown):
		return nil, errors.Fatalf("world %q is unknown to the snapshot backend", worldName)
	case err != nil:
		return nil, err
	}
	return sn, nil
}

func runRestore(ctx context.Context, opts RestoreOptions, gopts GlobalOptions, args []string) error {
	var worldName, snapshotName string
	switch len(args) {
	case 1:
		worldName = args[0]
	case 2:
		worldName, snapshotName = args[0], args[1]
	default:
		return errors.Fatal("wrong number of arguments, expected: world [snapshot]")
	}

	if opts.From == "" || opts.To == "" {
		return errors.Fatal("please specify the region to restore (--from and --to)")
	}

	from, err := parseBlockPos(opts.From)
	if err != nil {
		return errors.Fatalf("%v", err)
	}
	to, err := parseBlockPos(opts.To)
	if err != nil {
		return errors.Fatalf("%v", err)
	}
	region := world.NewCuboidRegion(from, to)

	catalog, cleanup, err := openCatalog(&gopts)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			Warnf("closing snapshot catalog failed: %v\n", err)
		}
	}()

	sn, err := resolveSnapshot(ctx, catalog, worldName, snapshotName)
	if err != nil {
		return err
	}

	Verbosef("snapshot %v loaded; now restoring...\n", sn)
	debug.Log("restore %v into region %v..%v", sn, region.Min, region.Max)

	target := world.NewMemoryTarget(region)

	// the restore runs on its own goroutine so that the command loop stays
	// responsive to cancellation
	var report *restorer.Report
	wg, wgCtx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		var err error
		report, err = restorer.New().RestoreSnapshot(wgCtx, sn, target, region)
		return err
	})
	if err := wg.Wait(); err != nil {
		return err
	}

	if report.TotalFailure() {
		switch {
		case report.MissingCount() > 0:
			return errors.Fatal("chunks were not present in snapshot")
		case report.LastErrorMessage() != "":
			Warnf("errors prevented any blocks from being restored\n")
			return errors.Fatalf("last error: %v", report.LastErrorMessage())
		default:
			return errors.Fatal("no chunks could be loaded (bad archive?)")
		}
	}

	Printf("restored %d blocks; %d missing chunks and %d other errors\n",
		target.Len(), report.MissingCount(), report.ErrorCount())

	return nil
}
