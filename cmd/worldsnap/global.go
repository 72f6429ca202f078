package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/snapshot/indexdb"
	"github.com/worldsnap/worldsnap/internal/snapshot/repo"
)

var version = "0.2.0-dev (compiled manually)"

// TimeFormat is the format used for all timestamps printed by worldsnap.
const TimeFormat = "2006-01-02 15:04:05"

// GlobalOptions hold all global options for worldsnap.
type GlobalOptions struct {
	Config string
	Repo   string
	Index  string
	Quiet  bool

	stdout io.Writer
	stderr io.Writer
}

var globalOptions = GlobalOptions{
	stdout: os.Stdout,
	stderr: os.Stderr,
}

func (opts *GlobalOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVarP(&opts.Config, "config", "c", os.Getenv("WORLDSNAP_CONFIG"), "read settings from `file` (default: $WORLDSNAP_CONFIG)")
	f.StringVarP(&opts.Repo, "repo", "r", os.Getenv("WORLDSNAP_REPO"), "snapshot repository `directory` (default: $WORLDSNAP_REPO)")
	f.StringVar(&opts.Index, "index", os.Getenv("WORLDSNAP_INDEX"), "snapshot index database `file` (default: $WORLDSNAP_INDEX)")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not output progress messages")
}

// configFile is the yaml layout of the optional settings file. Command line
// flags and environment variables take precedence over it.
type configFile struct {
	Repo  string `yaml:"repo"`
	Index string `yaml:"index"`
}

func loadConfig(opts *GlobalOptions) error {
	if opts.Config == "" {
		return nil
	}

	buf, err := os.ReadFile(opts.Config)
	if err != nil {
		return errors.Fatalf("unable to read config file: %v", err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return errors.Fatalf("unable to parse config file %v: %v", opts.Config, err)
	}

	if opts.Repo == "" {
		opts.Repo = cfg.Repo
	}
	if opts.Index == "" {
		opts.Index = cfg.Index
	}

	debug.Log("config %v: repo %q, index %q", opts.Config, opts.Repo, opts.Index)
	return nil
}

// openCatalog selects and opens the snapshot catalog backend. The returned
// cleanup function releases it.
func openCatalog(opts *GlobalOptions) (snapshot.Catalog, func() error, error) {
	if err := loadConfig(opts); err != nil {
		return nil, nil, err
	}

	switch {
	case opts.Index != "":
		debug.Log("using snapshot index database %v", opts.Index)
		idx, err := indexdb.Open(opts.Index)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil

	case opts.Repo != "":
		debug.Log("using snapshot repository %v", opts.Repo)
		return repo.New(opts.Repo), func() error { return nil }, nil

	default:
		return nil, nil, errors.Fatal("snapshot restoration is not configured (set --repo or --index)")
	}
}

// Printf writes the message to the configured stdout stream.
func Printf(format string, args ...interface{}) {
	_, err := fmt.Fprintf(globalOptions.stdout, format, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to write to stdout: %v\n", err)
	}
}

// Verbosef calls Printf to write the message when the verbose flag is set.
func Verbosef(format string, args ...interface{}) {
	if globalOptions.Quiet {
		return
	}

	Printf(format, args...)
}

// Warnf writes the message to the configured stderr stream.
func Warnf(format string, args ...interface{}) {
	_, err := fmt.Fprintf(globalOptions.stderr, format, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to write to stderr: %v\n", err)
	}
}
