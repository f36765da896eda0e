package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// options are the parsed command line flags.
type options struct {
	csvOut    string
	xlsxOut   string
	dashboard bool
	inputs    []string
}

// fileReport is one line of the outcome table.
type fileReport struct {
	Name      string
	Format    dataprocessing.Format
	Status    string
	Records   int
	Dropped   int
	Diagnosis string
}

var errNoInputs = errors.New("no input files or directories given")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	cfg.Logging.Output = "console"
	cfg.Logging.Format = "text"

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(ctx, os.Args[1:], cfg, os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		infrastructure.WithError(logger, err).Error("Ingest failed")
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.csvOut, "csv", "", "write parsed transactions to this CSV file (relative paths land in the exports directory)")
	fs.StringVar(&opts.xlsxOut, "xlsx", "", "write parsed transactions to this XLSX file")
	fs.BoolVar(&opts.dashboard, "dashboard", false, "print the dashboard computed over the parsed transactions as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ingest [flags] <file|dir>...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.inputs = fs.Args()
	if len(opts.inputs) == 0 {
		fs.Usage()
		return nil, errNoInputs
	}
	return opts, nil
}

// run parses every input once, prints one outcome line per file and
// writes the requested exports. Files repeating earlier content are
// reported as duplicates and not parsed again.
func run(ctx context.Context, args []string, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}

	inputs, err := files.NewDiscovery(paths.BaseDir).Expand(opts.inputs)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Ingesting files", slog.Int("count", len(inputs)))

	pipeline := dataprocessing.NewPipeline(cfg.Ingest, nil, logger)
	seen := make(map[string]string, len(inputs))
	var (
		reports []fileReport
		txs     []domain.Transaction
	)
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(in.Path)
		if err != nil {
			reports = append(reports, fileReport{Name: in.Name, Status: string(domain.FileStatusError), Diagnosis: err.Error()})
			continue
		}
		hash := files.Hash(data)
		if first, ok := seen[hash]; ok {
			reports = append(reports, fileReport{Name: in.Name, Status: string(domain.FileStatusDuplicate), Diagnosis: "same content as " + first})
			continue
		}
		seen[hash] = in.Name

		res := pipeline.Process(ctx, in.Name, data)
		reports = append(reports, fileReport{
			Name:      in.Name,
			Format:    res.Format,
			Status:    string(res.Status),
			Records:   len(res.Transactions),
			Dropped:   res.Stats.Dropped(),
			Diagnosis: res.Diagnostic,
		})
		txs = append(txs, res.Transactions...)
	}

	if err := printReports(stdout, reports); err != nil {
		return err
	}

	if opts.csvOut != "" {
		written, err := exporter.NewCSVWriter(paths, logger).WriteTransactions(opts.csvOut, txs)
		if err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %d transactions to %s\n", len(txs), written)
	}
	if opts.xlsxOut != "" {
		if err := writeXLSX(opts.xlsxOut, txs); err != nil {
			return fmt.Errorf("xlsx export: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %d transactions to %s\n", len(txs), opts.xlsxOut)
	}
	if opts.dashboard {
		dashboard := analytics.NewEngine(logger, analytics.DefaultConfig()).Compute(ctx, txs)
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dashboard); err != nil {
			return fmt.Errorf("failed to encode dashboard: %w", err)
		}
	}
	return nil
}

func printReports(out io.Writer, reports []fileReport) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tFORMAT\tSTATUS\tRECORDS\tDROPPED\tNOTE")
	for _, r := range reports {
		format := string(r.Format)
		if format == "" {
			format = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.Name, format, r.Status, r.Records, r.Dropped, r.Diagnosis)
	}
	return tw.Flush()
}

func writeXLSX(path string, txs []domain.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.WriteTransactionsXLSX(f, txs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
