package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nao1215/leakscan/internal/config"
	"github.com/nao1215/leakscan/internal/database"
	"github.com/nao1215/leakscan/internal/fetch"
	leaklog "github.com/nao1215/leakscan/internal/log"
	"github.com/nao1215/leakscan/internal/metrics"
	"github.com/nao1215/leakscan/internal/pipeline"
	"github.com/nao1215/leakscan/internal/report"
	"github.com/nao1215/leakscan/internal/sink"
	"github.com/nao1215/leakscan/internal/source"
	"github.com/nao1215/leakscan/internal/tor"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan <location>",
		Aliases: []string{"leaks"},
		Short:   "Scan files and URLs for leaked secrets",
		Long: `Scan fetches each location and prints every rule match found in it.

A location is a file path or an http(s) URL. Pass - to read locations
from stdin, one per line; scanning starts before the input ends.

Examples:
  # Scan a single file
  leakscan scan ./dist/app.js

  # Scan a URL with an authorization header
  leakscan scan -H "Authorization: Bearer $TOKEN" https://example.com/main.js

  # Scan a list of URLs, 10 at a time, at most 4 requests in flight
  cat urls.txt | leakscan scan -C 10 -c 4 -

  # Stream JSON records, suppress repeated secrets and keep a copy
  leakscan scan -j -u -w findings.jsonl -

  # Record findings for "leakscan history"
  leakscan scan --db ~/.local/share/leakscan/history.db -`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	f := cmd.Flags()

	// Request flags
	f.StringArrayP(config.FlagHeader, "H", nil,
		`Request header as "Name: value" (repeatable)`)
	f.IntP(config.FlagRetry, "r", config.DefaultRetry,
		"Additional attempts after a failed request")
	f.IntP(config.FlagTimeout, "t", int(config.DefaultTimeout/time.Millisecond),
		"Per-attempt request timeout in milliseconds")
	f.IntP(config.FlagTaskConcurrency, "C", config.DefaultTaskConcurrency,
		"Locations processed at once (0 = unbounded)")
	f.IntP(config.FlagRequestConcurrency, "c", config.DefaultRequestConcurrency,
		"Requests in flight across all locations (0 = unbounded)")
	f.Float64(config.FlagRate, 0,
		"Requests per second across the run (0 = unlimited)")
	f.Int64(config.FlagMaxBody, config.DefaultMaxBodySize,
		"Maximum response body size in bytes (0 = unlimited)")
	f.String(config.FlagUserAgent, config.DefaultUserAgent,
		"User-Agent sent when no header sets one")

	// Output flags
	f.BoolP(config.FlagSummary, "s", false,
		"Describe each match on stderr")
	f.BoolP(config.FlagJSON, "j", false,
		"Print each match as a JSON record")
	f.BoolP(config.FlagUnique, "u", false,
		"Report each matched text only once per run")
	f.BoolP(config.FlagEmbed, "e", false,
		"Include the scanned text in every record")
	f.StringP(config.FlagWrite, "w", "",
		"Append a JSON record per match to this file")
	f.String(config.FlagReport, "",
		"Write a Markdown summary to this file at the end of the run")
	f.String(config.FlagMetricsFile, "",
		"Write run metrics in the Prometheus text format to this file")
	f.String(config.FlagDB, "",
		"Record the run and its findings in this SQLite database")

	// Rule flags
	f.String(config.FlagRules, "",
		"Rule database file replacing the built-in rules")
	f.Bool(config.FlagGitleaks, false,
		"Add the gitleaks default rules")
	f.String(config.FlagGitleaksConfig, "",
		"Add the rules of a gitleaks TOML configuration")

	// Transport flags
	f.Bool(config.FlagOffline, false,
		"Do not fetch URLs; they scan as empty documents")
	f.String(config.FlagProxy, "",
		"Route requests through a SOCKS5 proxy at host:port")
	f.Bool(config.FlagTor, false,
		"Route requests through an embedded Tor daemon")
	f.Duration(config.FlagTorTimeout, config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	f.String(config.FlagConfig, "",
		"Configuration file path (default: .leakscan.yaml in current, XDG config or home directory)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	// The first SIGINT stops admission and lets running tasks finish.
	// Restoring the default handler then lets a second one kill the process.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, stop)

	return runScan(ctx, cfg, streams{
		in:  cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	})
}

// streams are the standard streams of a scan.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// buildConfig layers the configuration file, the environment and the flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	if len(args) > 0 {
		cfg.Location = args[0]
	}

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString(config.FlagConfig)
	if err != nil {
		return nil, err
	}

	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		cfg.File, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := config.Bind(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runScan performs one run. The returned error is non-nil when the
// run could not start, when any location failed, or when the run was
// interrupted.
func runScan(ctx context.Context, cfg *config.Config, std streams) error {
	db, err := loadRules(ruleSelection{
		file:           cfg.RulesFile,
		gitleaks:       cfg.Gitleaks,
		gitleaksConfig: cfg.GitleaksConfig,
	})
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	logger := leaklog.New(std.err, cfg.Verbose, false, db.Patterns()...)
	slog.SetDefault(logger)

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	network, closeNetwork, err := newNetworkFetcher(ctx, cfg, recorder, logger)
	if err != nil {
		return err
	}
	defer closeNetwork()

	router := fetch.NewRouter(&fetch.FileFetcher{Observer: recorder.FetchObserver()}, network, logger)

	runID := uuid.NewString()
	started := time.Now()
	logger.Info("starting scan", "run", runID, "location", cfg.Location, "rules", db.Len())

	var history *database.FindingsDB
	if cfg.DBPath != "" {
		history, err = database.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer history.Close()
		if err := history.BeginRun(ctx, runID, started); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	var jsonl *report.JSONLWriter
	if cfg.WriteFile != "" {
		jsonl, err = report.OpenJSONL(cfg.WriteFile)
		if err != nil {
			return err
		}
		defer jsonl.Close()
	}

	var collector *report.Collector
	if cfg.ReportFile != "" {
		collector = report.NewCollector(started)
	}

	mws := buildMiddlewares(cfg, jsonl, history, runID, collector, recorder)
	console := sink.NewConsole(std.out, std.err, sink.ConsoleOptions{
		JSON:    cfg.JSON,
		Summary: cfg.Summary,
		Embed:   cfg.Embed,
	})
	chain := sink.Chain(console, mws...)
	logger.Debug("sink chain", "middlewares", sink.Names(mws...))

	p := pipeline.New([]pipeline.Step{
		pipeline.NewFetchStep(router),
		pipeline.NewScanStep(db, chain),
	}, pipeline.WithLogger(logger))
	logger.Debug("pipeline", "steps", p.StepNames())

	runner := pipeline.NewRunner(
		pipeline.WithConcurrency(cfg.TaskConcurrency),
		pipeline.WithRunnerLogger(logger),
		pipeline.WithTaskDone(func(doc *pipeline.Document) {
			recorder.TaskDone(doc.Err)
		}),
	)

	stats, runErr := runner.Run(ctx, newSource(cfg.Location, std), p.Execute)

	finished := time.Now()
	totals := report.Totals{
		Admitted:  stats.Admitted,
		Succeeded: stats.Succeeded,
		Failed:    stats.Failed,
	}

	// Outputs are written even when the run was interrupted.
	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if history != nil {
		if err := history.FinishRun(context.WithoutCancel(ctx), runID, finished, totals, stats.Matches); err != nil {
			errs = append(errs, fmt.Errorf("failed to record run: %w", err))
		}
	}
	if collector != nil {
		if err := writeMarkdownReport(cfg.ReportFile, collector.Summary(runID, totals, finished)); err != nil {
			errs = append(errs, err)
		}
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildMiddlewares returns the enabled middlewares, outermost first.
// Dedup runs before anything records a match so suppressed repeats
// are neither written, stored nor printed.
func buildMiddlewares(
	cfg *config.Config,
	jsonl *report.JSONLWriter,
	history *database.FindingsDB,
	runID string,
	collector *report.Collector,
	recorder *metrics.Recorder,
) []sink.Middleware {
	var mws []sink.Middleware
	if cfg.Unique {
		mws = append(mws, sink.Dedup(sink.NewDedupSet()))
	}
	if jsonl != nil {
		mws = append(mws, sink.Persist(jsonl, cfg.Embed))
	}
	if history != nil {
		mws = append(mws, sink.Store(history, runID))
	}
	if collector != nil {
		mws = append(mws, sink.Collect(collector))
	}
	if recorder != nil {
		mws = append(mws, sink.Observe(recorder))
	}
	return mws
}

// newSource returns the location source for the scan argument.
func newSource(location string, std streams) source.Source {
	if location != source.StdinMarker {
		return source.Single(location)
	}
	if f, ok := std.in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprintln(std.err, "Reading locations from stdin, one per line (Ctrl-D to finish)...")
	}
	return source.Lines(std.in)
}

// newNetworkFetcher builds the URL fetcher for the configured transport.
// It returns a nil fetcher in offline mode. The returned func releases
// the transport and is always safe to call.
func newNetworkFetcher(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) (fetch.Fetcher, func(), error) {
	noop := func() {}

	// Headers are validated even when offline.
	headers, err := fetch.ParseHeaders(cfg.Headers)
	if err != nil {
		return nil, noop, fmt.Errorf("configuration error: %w", err)
	}
	hostHeaders := make(map[string]fetch.HeaderSet)
	for host, entries := range cfg.File.HostHeaders() {
		hs, err := fetch.ParseHeaders(entries)
		if err != nil {
			return nil, noop, fmt.Errorf("configuration error: host %s: %w", host, err)
		}
		hostHeaders[host] = hs
	}
	if cfg.Offline {
		return nil, noop, nil
	}

	client, closeTransport, err := newHTTPClient(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	f := fetch.NewHTTPFetcher(
		fetch.WithClient(client),
		fetch.WithHeaders(headers),
		fetch.WithHostHeaders(hostHeaders),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithRetry(cfg.Retry),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRequestConcurrency(cfg.RequestConcurrency),
		fetch.WithRate(cfg.Rate),
		fetch.WithObserver(recorder.FetchObserver()),
		fetch.WithLogger(logger),
	)
	return f, closeTransport, nil
}

// newHTTPClient returns the client for the configured transport: direct,
// a SOCKS5 proxy, or an embedded Tor daemon. A proxy that does not answer
// a SOCKS5 handshake is a configuration error.
func newHTTPClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	noop := func() {}

	switch {
	case cfg.ProxyAddress != "":
		client, err := tor.NewClient(cfg.ProxyAddress)
		if err != nil {
			return nil, noop, fmt.Errorf("configuration error: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, noop, fmt.Errorf("proxy check failed at %s: %w", cfg.ProxyAddress, status.Err())
		}
		logger.Info("SOCKS5 proxy connection verified", "address", client.ProxyAddress())
		return client.HTTPClient(), noop, nil

	case cfg.UseTor:
		return startEmbeddedTor(ctx, cfg, logger)
	}

	return &http.Client{}, noop, nil
}

// startEmbeddedTor starts a Tor daemon for the run and returns a client
// routed through it.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	logger.Warn("starting embedded Tor daemon, this may take a few minutes")

	et := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
		tor.WithEmbeddedLogger(logger),
	)
	if err := et.Start(ctx); err != nil {
		return nil, func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	stop := func() {
		if err := et.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	client, err := et.NewClient()
	if err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		stop()
		return nil, func() {}, fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
	}

	logger.Info("embedded Tor daemon started", "socksAddr", et.SocksAddr())
	return client.HTTPClient(), stop, nil
}

// writeMarkdownReport renders the run summary to path.
func writeMarkdownReport(path string, s report.Summary) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	// Reports name the locations that leaked, so they stay private.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := report.NewMarkdownWriter(f).Write(s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
