// Package main provides the lautan command-line pipeline for fetching
// subsets of oceanographic variables from OPeNDAP archives.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lautanlab/lautan/internal/adapter/archive"
	"github.com/lautanlab/lautan/internal/adapter/archive/ncfile"
	"github.com/lautanlab/lautan/internal/adapter/archive/opendap"
	"github.com/lautanlab/lautan/internal/adapter/catalog"
	"github.com/lautanlab/lautan/internal/adapter/export"
	"github.com/lautanlab/lautan/internal/config"
	"github.com/lautanlab/lautan/internal/domain"
	"github.com/lautanlab/lautan/internal/usecase"
)

const version = "0.1.0"

const dateLayout = "2006-01-02"

type fetchOptions struct {
	configPath string
	parameter  string
	temporal   string
	start      string
	stop       string
	lonMin     float64
	lonMax     float64
	latMin     float64
	latMax     float64
	depthMin   float64
	depthMax   float64
	output     string
	format     string
	verbose    bool
}

func main() {
	root := &cobra.Command{
		Use:     "lautan",
		Short:   "Fetch subsets of oceanographic variables from OPeNDAP archives",
		Version: version,
	}
	root.AddCommand(newFetchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newFetchCmd() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one variable over a space, depth and time subset",
		Long: `Fetch looks the requested parameter up in the archive catalog, routes the
date range across the multi-year and near-real-time archives, fetches and
merges the subsets and writes the result as CSV rows or a gridded NetCDF
file. Equal start/stop dates (or depth bounds) select the nearest archive
grid point instead of a range.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runFetch(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Config file path (default: lautan.yaml if present)")
	flags.StringVarP(&opts.parameter, "parameter", "p", "", "Parameter short name (e.g. arus, sst, salinitas)")
	flags.StringVar(&opts.temporal, "temporal", "monthly", "Temporal resolution: daily, monthly or annual")
	flags.StringVar(&opts.start, "start", "", "Start date (YYYY-MM-DD)")
	flags.StringVar(&opts.stop, "stop", "", "Stop date (YYYY-MM-DD, default: today)")
	flags.Float64Var(&opts.lonMin, "lon-min", 114.35, "Minimum longitude in degrees")
	flags.Float64Var(&opts.lonMax, "lon-max", 116.0, "Maximum longitude in degrees")
	flags.Float64Var(&opts.latMin, "lat-min", -8.35, "Minimum latitude in degrees")
	flags.Float64Var(&opts.latMax, "lat-max", -7.0, "Maximum latitude in degrees")
	flags.Float64Var(&opts.depthMin, "depth-min", 0, "Minimum depth in meters")
	flags.Float64Var(&opts.depthMax, "depth-max", 0, "Maximum depth in meters")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout, CSV only)")
	flags.StringVarP(&opts.format, "format", "f", "csv", "Output format: csv or netcdf")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("parameter")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func runFetch(opts *fetchOptions) error {
	logger := newLogger(opts.verbose)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	store, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	dapClient := opendap.NewClient(cfg.Timeout, cfg.Username, cfg.Password, logger)
	opener := archive.SchemeOpener{
		"http":  dapClient,
		"https": dapClient,
		"file":  ncfile.Opener{},
		"":      ncfile.Opener{},
	}

	uc := usecase.NewFetchUseCase(store, opener, logger)
	ds, err := uc.Execute(req)
	if err != nil {
		return err
	}

	logger.Info().Int("rows", len(ds.Rows)).Msg("pipeline complete")

	switch opts.format {
	case "csv":
		if opts.output == "" {
			return ds.WriteCSV(os.Stdout)
		}
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return ds.WriteCSV(f)
	case "netcdf":
		if opts.output == "" {
			return fmt.Errorf("netcdf output requires --output")
		}
		return export.WriteGrid(opts.output, ds)
	default:
		return fmt.Errorf("unknown output format %q (use csv or netcdf)", opts.format)
	}
}

func buildRequest(opts *fetchOptions) (domain.Request, error) {
	start, err := time.ParseInLocation(dateLayout, opts.start, time.UTC)
	if err != nil {
		return domain.Request{}, fmt.Errorf("invalid start date: %w", err)
	}

	stop := time.Now().UTC().Truncate(24 * time.Hour)
	if opts.stop != "" {
		stop, err = time.ParseInLocation(dateLayout, opts.stop, time.UTC)
		if err != nil {
			return domain.Request{}, fmt.Errorf("invalid stop date: %w", err)
		}
	}

	return domain.Request{
		Parameter: opts.parameter,
		Temporal:  opts.temporal,
		Start:     start,
		Stop:      stop,
		LonMin:    opts.lonMin,
		LonMax:    opts.lonMax,
		LatMin:    opts.latMin,
		LatMax:    opts.latMax,
		DepthMin:  opts.depthMin,
		DepthMax:  opts.depthMax,
	}, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
