/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/onai/SMTexperiments/internal/collector"
	"github.com/onai/SMTexperiments/internal/config"
	"github.com/onai/SMTexperiments/internal/metrics"
	"github.com/onai/SMTexperiments/internal/output"
	"github.com/onai/SMTexperiments/internal/simulation"
)

// NewCmdSimulate builds the simulate command
func NewCmdSimulate(parent string) *cobra.Command {
	flags := NewSimulateFlags()
	cmd := &cobra.Command{
		Use:                   "simulate",
		DisableFlagsInUseLine: true,
		Short:                 simulateShort,
		Long:                  simulateLong,
		Example:               simulateExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := flags.ToOptions(cmd, args)
			if err != nil {
				return err
			}
			if o.Out == nil {
				o.Out = cmd.OutOrStdout()
			}
			return o.Run(cmd.Context())
		},
	}

	flags.AddFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(NewCmdSimulate(rootCmd.Name()))
}

var (
	simulateLong = `
		Partition a generated collection of amounts into a fixed number of bins and track,
		round after round, how well the bin centers describe the true shares.

		Each round first scores the current state and emits a record with the fidelity error
		(the sum of squared differences between true and bin-based shares) and histograms of
		the per-amount differences and of the amounts themselves. It then halves a batch of
		randomly chosen amounts and appends a batch of new ones, moving each touched amount to
		its nearest bin. Bins are never recomputed from scratch.

		The same configuration and seed always produce the same records. A summary with the
		error distribution across rounds is printed at the end.`

	simulateExample = `
		# Run the default simulation (128000 amounts, 128 bins, 100 rounds)
		binsim simulate

		# A small, quick run with a fixed seed
		binsim simulate --initial-count 2000 --bin-count 16 --rounds 20 --seed 7

		# Same run, one JSON document per record written to a file
		binsim simulate --initial-count 2000 --bin-count 16 --rounds 20 --json -o run.json

		# Read settings from YAML and override the strategy
		binsim simulate --config run.yaml --strategy sorted

		# Expose Prometheus metrics while the run is in progress
		binsim simulate --metrics-addr :9464`
	simulateShort = "Run the incremental bin maintenance simulation."
)

// SimulateFlags will be converted to options, which drive the run and its output
type SimulateFlags struct {
	ConfigPath string

	// Core surface
	InitialCount   int
	BinCount       int
	RoundBatchSize int
	Seed           uint64

	// Run shape
	Rounds              int
	Strategy            string
	HistogramBuckets    int
	PartitionIterations int

	// Output selection
	JSON   bool
	Pretty bool
	Output string // -o / --output file path (empty => stdout)

	// Stats config
	Percentiles []string

	MetricsAddr string
}

// NewSimulateFlags returns flags holding the default configuration
func NewSimulateFlags() *SimulateFlags {
	def := config.Default()
	return &SimulateFlags{
		InitialCount:        def.InitialCount,
		BinCount:            def.BinCount,
		RoundBatchSize:      def.RoundBatchSize,
		Seed:                def.Seed,
		Rounds:              def.Rounds,
		Strategy:            def.Strategy,
		HistogramBuckets:    def.HistogramBuckets,
		PartitionIterations: def.PartitionIterations,
	}
}

// AddFlags registers flags for a cli
func (flags *SimulateFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.ConfigPath, "config", flags.ConfigPath,
		"YAML file with run settings. Flags set explicitly take precedence.")

	// Core surface
	cmd.Flags().IntVar(&flags.InitialCount, "initial-count", flags.InitialCount,
		"Number of amounts generated before the first round.")
	cmd.Flags().IntVar(&flags.BinCount, "bin-count", flags.BinCount,
		"Number of bins the amounts are partitioned into.")
	cmd.Flags().IntVar(&flags.RoundBatchSize, "round-batch-size", flags.RoundBatchSize,
		"Amounts halved and amounts appended in every round.")
	cmd.Flags().Uint64Var(&flags.Seed, "seed", flags.Seed,
		"Seed of the random generator. The same seed reproduces the same run.")

	// Run shape
	cmd.Flags().IntVar(&flags.Rounds, "rounds", flags.Rounds,
		"Number of rounds to run.")
	cmd.Flags().StringVar(&flags.Strategy, "strategy", flags.Strategy,
		"Nearest-bin lookup: linear or sorted. Both pick the same bin.")
	cmd.Flags().IntVar(&flags.HistogramBuckets, "histogram-buckets", flags.HistogramBuckets,
		"Number of equal-width buckets in the error and amount histograms.")
	cmd.Flags().IntVar(&flags.PartitionIterations, "partition-iterations", flags.PartitionIterations,
		"Maximum k-means iterations for the initial partition.")

	// Stats config
	cmd.Flags().StringSliceVar(&flags.Percentiles, "percentiles", flags.Percentiles,
		"Error percentiles for the summary: default, tail, or a list such as 50,90,99.")

	// Output selection
	cmd.Flags().BoolVar(&flags.JSON, "json", flags.JSON,
		"If true, output results as JSON")
	cmd.Flags().BoolVar(&flags.Pretty, "pretty", flags.Pretty,
		"If true, pretty-print JSON output (only applies with --json).")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output,
		"Write output to a file instead of stdout.")

	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", flags.MetricsAddr,
		"If set, serve Prometheus metrics on this address during the run.")
}

// ToOptions merges the config file with the flags set on the command line
// and validates the result.
func (flags *SimulateFlags) ToOptions(cmd *cobra.Command, args []string) (*SimulateOptions, error) {
	if len(args) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", args)
	}

	cfg := config.Default()
	if flags.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(flags.ConfigPath); err != nil {
			return nil, err
		}
	}

	// A flag overrides the file only when it was given explicitly.
	set := cmd.Flags().Changed
	fromFile := flags.ConfigPath != ""
	if !fromFile || set("initial-count") {
		cfg.InitialCount = flags.InitialCount
	}
	if !fromFile || set("bin-count") {
		cfg.BinCount = flags.BinCount
	}
	if !fromFile || set("round-batch-size") {
		cfg.RoundBatchSize = flags.RoundBatchSize
	}
	if !fromFile || set("seed") {
		cfg.Seed = flags.Seed
	}
	if !fromFile || set("rounds") {
		cfg.Rounds = flags.Rounds
	}
	if !fromFile || set("strategy") {
		cfg.Strategy = flags.Strategy
	}
	if !fromFile || set("histogram-buckets") {
		cfg.HistogramBuckets = flags.HistogramBuckets
	}
	if !fromFile || set("partition-iterations") {
		cfg.PartitionIterations = flags.PartitionIterations
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &SimulateOptions{
		Config:      cfg,
		MetricsAddr: flags.MetricsAddr,
		Verbose:     verbose,
	}

	// Determine output format
	if flags.JSON {
		o.Format = OutputJSON
	} else {
		o.Format = OutputText
	}
	o.Pretty = flags.Pretty
	o.OutputPath = flags.Output

	o.PercentileKeys = normalizePercentiles(flags.Percentiles)

	return o, nil
}

// normalizePercentiles converts user input to normalized keys
// e.g., ["50", "99.9"] -> ["p50", "p99_9"]
// e.g., ["default"] -> ["p50", "p90", "p99"]
// e.g., ["tail"] -> ["p90", "p95", "p99", "p99_9"]
func normalizePercentiles(input []string) []string {
	if len(input) == 0 {
		return []string{"p50", "p90", "p99"} // default
	}

	if len(input) == 1 {
		switch input[0] {
		case "default":
			return []string{"p50", "p90", "p99"}
		case "tail":
			return []string{"p90", "p95", "p99", "p99_9"}
		}
	}

	result := make([]string, 0, len(input))
	for _, p := range input {
		p = strings.TrimPrefix(strings.TrimSpace(p), "p")
		p = strings.ReplaceAll(p, ".", "_")
		result = append(result, "p"+p)
	}
	return result
}

type SimulateOptions struct {
	Config config.Config

	// Output selection
	Format     OutputFormat
	Pretty     bool
	Out        io.Writer
	OutputPath string // file path (if specified)

	PercentileKeys []string // normalized: ["p50","p90","p99"]

	MetricsAddr string
	Verbose     bool

	// Internal (set during Run)
	logger    *zap.Logger
	outputter output.ParameterOutput
	collector *collector.ErrorCollector
	metrics   *metrics.Metrics
}

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

func (o *SimulateOptions) Run(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if o.logger == nil {
		if o.logger, err = newLogger(o.Verbose); err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}
		defer func() { _ = o.logger.Sync() }()
	}

	// Setup output writer
	if err := o.setupOutput(); err != nil {
		return fmt.Errorf("setup output: %w", err)
	}
	defer o.closeOutput()

	if o.outputter, err = output.New(string(o.Format), o.Pretty); err != nil {
		return err
	}

	cfg := o.Config
	o.logger.Info("configuration",
		zap.Int("initial_count", cfg.InitialCount),
		zap.Int("bin_count", cfg.BinCount),
		zap.Int("round_batch_size", cfg.RoundBatchSize),
		zap.Uint64("seed", cfg.Seed),
		zap.Int("rounds", cfg.Rounds),
		zap.String("strategy", cfg.Strategy))

	o.collector, err = collector.NewErrorCollector(collector.RunInfo{
		InitialCount:   cfg.InitialCount,
		BinCount:       cfg.BinCount,
		RoundBatchSize: cfg.RoundBatchSize,
		Seed:           cfg.Seed,
		Strategy:       cfg.Strategy,
	}, o.PercentileKeys)
	if err != nil {
		return fmt.Errorf("percentiles: %w", err)
	}

	reg := prometheus.NewRegistry()
	o.metrics = metrics.New(reg)
	if o.MetricsAddr != "" {
		srv, err := metrics.Serve(o.MetricsAddr, reg, o.logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				o.logger.Warn("metrics server shutdown", zap.Error(serr))
			}
		}()
	}

	sim, err := simulation.New(cfg, simulation.WithLogger(o.logger))
	if err != nil {
		return err
	}

	if err := o.collector.Start(); err != nil {
		return fmt.Errorf("start collector: %w", err)
	}

	final, runErr := sim.Run(ctx, o.observe)
	if runErr == nil {
		o.collector.SetFinal(final.Round)
		o.metrics.Observe(final.Round, final.Diffs)
	}

	// Output final statistics even when the run stopped early
	return errors.Join(runErr, o.outputFinalStats())
}

// observe is the sink of the simulation: one record per round.
func (o *SimulateOptions) observe(obs simulation.Observation) error {
	o.collector.Observe(obs.Round)
	o.metrics.Observe(obs.Round, obs.Diffs)
	if err := o.outputter.OutputParam(obs.Round, o.Out); err != nil {
		return fmt.Errorf("output round: %w", err)
	}
	return nil
}

func (o *SimulateOptions) setupOutput() error {
	if o.OutputPath != "" {
		f, err := os.Create(o.OutputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		o.Out = f
	} else if o.Out == nil {
		o.Out = os.Stdout
	}

	return nil
}

func (o *SimulateOptions) closeOutput() {
	if f, ok := o.Out.(*os.File); ok && f != os.Stdout {
		f.Close()
	}
}

func (o *SimulateOptions) outputFinalStats() error {
	if err := o.collector.Stop(); err != nil {
		return fmt.Errorf("stop collector: %w", err)
	}

	snapshot, err := o.collector.Snapshot()
	if err != nil {
		return fmt.Errorf("get final snapshot: %w", err)
	}

	if o.Format == OutputText {
		fmt.Fprintln(o.Out, "\n=== Final Statistics ===")
	}

	if err := o.outputter.OutputParam(snapshot, o.Out); err != nil {
		return fmt.Errorf("output statistics: %w", err)
	}

	return nil
}
