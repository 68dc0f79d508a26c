// Command lendingctl operates the library lending system from the command line.
//
//	lendingctl [global flags] <group> <action> [flags]
//
// Groups are student, book, copy and loan; init-schema creates the PostgreSQL tables.
// Run lendingctl -h for the global flags and lendingctl <group> <action> -h for the command flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/AntonStoeckl/library-lending-go/catalog"
	"github.com/AntonStoeckl/library-lending-go/circulation"
	"github.com/AntonStoeckl/library-lending-go/config"
)

const (
	version = "0.1.0"

	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Config holds the global flags.
type Config struct {
	Backend      string
	DSN          string
	StateFile    string
	Isolation    string
	JSON         bool
	LogLevel     string
	OTel         bool
	OTLPEndpoint string
	Today        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	cmd, cmdArgs, ok := lookupCommand(rest)
	if !ok {
		printUsage(stderr)
		return exitUsage
	}

	obs, err := newObservability(ctx, cfg, stderr)
	if err != nil {
		return exitCode(err, stderr)
	}
	defer obs.shutdown()

	b, err := openBackend(ctx, cfg, obs)
	if err != nil {
		return exitCode(err, stderr)
	}
	defer b.close()

	a, err := newApp(cfg, b, obs, stdout, stderr)
	if err != nil {
		return exitCode(err, stderr)
	}

	err = cmd.run(ctx, a, cmdArgs)
	if err == nil {
		err = b.save()
	}

	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	var refused refusedError

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &refused):
		fmt.Fprintf(stderr, "%s: %v\n", refused.outcome, refused.reason)
		return exitFailure
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}

func parseFlags(args []string, stderr io.Writer) (Config, []string, error) {
	fs := flag.NewFlagSet("lendingctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	var cfg Config
	fs.StringVar(&cfg.Backend, "backend", backendPGX, "storage backend: pgx, sql, sqlx or memory")
	fs.StringVar(&cfg.DSN, "dsn", config.PostgresDSN(), "PostgreSQL DSN for the pgx, sql and sqlx backends")
	fs.StringVar(&cfg.StateFile, "state", "", "JSON snapshot file that persists the memory backend between runs")
	fs.StringVar(&cfg.Isolation, "isolation", isolationSerializable, "isolation of write transactions: serializable or repeatable-read")
	fs.BoolVar(&cfg.JSON, "json", false, "print results as JSON")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.OTel, "otel", false, "export traces and metrics via OTLP gRPC")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", config.OTLPEndpoint(), "OTLP gRPC collector endpoint")
	fs.StringVar(&cfg.Today, "today", "", "override the current date (yyyy-mm-dd)")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	return cfg, fs.Args(), nil
}

func parseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("%w: invalid log level %q", errUsage, level)
	}

	return l, nil
}

// newApp wires the circulation engine and the catalog service to the backend.
func newApp(cfg Config, b *backend, obs *observability, stdout, stderr io.Writer) (*app, error) {
	engineOptions := []circulation.Option{
		circulation.WithContextualLogger(obs.logger),
	}

	catalogOptions := []catalog.Option{
		catalog.WithContextualLogger(obs.logger),
	}

	if obs.metrics != nil {
		engineOptions = append(engineOptions, circulation.WithMetrics(obs.metrics))
		catalogOptions = append(catalogOptions, catalog.WithMetrics(obs.metrics))
	}

	if obs.tracing != nil {
		engineOptions = append(engineOptions, circulation.WithTracing(obs.tracing))
		catalogOptions = append(catalogOptions, catalog.WithTracing(obs.tracing))
	}

	if cfg.Today != "" {
		today, err := parseDate(cfg.Today)
		if err != nil {
			return nil, err
		}

		engineOptions = append(engineOptions, circulation.WithClock(func() time.Time { return today }))
	}

	engine, err := circulation.NewEngine(b.repo, engineOptions...)
	if err != nil {
		return nil, err
	}

	service, err := catalog.NewService(b.repo, catalogOptions...)
	if err != nil {
		return nil, err
	}

	return &app{
		engine:     engine,
		catalog:    service,
		out:        printer{w: stdout, json: cfg.JSON},
		stderr:     stderr,
		initSchema: b.initSchema,
	}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "lendingctl %s\n\nUsage: lendingctl [global flags] <command> [flags]\n\nCommands:\n", version)

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "  %-22s %s\n", name, commands[name].summary)
	}

	fmt.Fprintf(w, "\nGlobal flags:\n  %s\n", strings.Join([]string{
		"-backend pgx|sql|sqlx|memory", "-dsn", "-state", "-isolation", "-json",
		"-log-level", "-otel", "-otlp-endpoint", "-today",
	}, "\n  "))
}
