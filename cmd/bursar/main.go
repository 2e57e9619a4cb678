// Bursar is a multi-turn financial discovery interviewer.
//
// It runs a structured interview over HTTP and WebSocket: each user
// message is classified, facts are extracted into a session profile,
// goal-discovery probes are raised, and once the required scope is
// complete a risk profile is computed. Configuration is loaded from a
// single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	bursar serve             Start the API server
//	bursar version           Print version and build information
//	bursar -o json version   Output version information as JSON
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/quillfin/bursar/internal/advisor"
	"github.com/quillfin/bursar/internal/api"
	"github.com/quillfin/bursar/internal/buildinfo"
	"github.com/quillfin/bursar/internal/config"
	"github.com/quillfin/bursar/internal/conversation"
	"github.com/quillfin/bursar/internal/email"
	"github.com/quillfin/bursar/internal/events"
	"github.com/quillfin/bursar/internal/extract"
	"github.com/quillfin/bursar/internal/goals"
	"github.com/quillfin/bursar/internal/intent"
	"github.com/quillfin/bursar/internal/oracle"
	"github.com/quillfin/bursar/internal/profile"
	"github.com/quillfin/bursar/internal/risk"
	"github.com/quillfin/bursar/internal/scope"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the bursar command. All OS-level
// dependencies are injected as parameters so the full lifecycle can be
// driven from tests. Arguments are parsed by hand: the flag package
// relies on package-level globals, and our argument surface is small
// enough that manual parsing is clearer than a CLI framework.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, stderr, configPath)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Bursar - Financial Discovery Interviewer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: bursar [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	return nil
}

// runServe handles the "bursar serve" subcommand. It is the primary
// operating mode: loads config, opens the session database, builds the
// interview engine, starts the API server, and blocks until a shutdown
// signal arrives.
func runServe(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting Bursar", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure logger now that we know the desired level. The
	// initial Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("config %s: %w", cfgPath, err)
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"oracle_provider", cfg.Oracle.Provider,
		"oracle_enabled", cfg.Oracle.Enabled,
	)

	// --- Data directory ---
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	// --- Session database ---
	// Profiles and conversation history share one SQLite database so a
	// session is a single unit of state.
	dbPath := cfg.DataDir + "/bursar.db"
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("open session database %s: %w", dbPath, err)
	}
	defer db.Close()

	store, err := profile.NewStoreWithDB(db)
	if err != nil {
		return fmt.Errorf("init profile store: %w", err)
	}
	history, err := conversation.NewStoreWithDB(db)
	if err != nil {
		return fmt.Errorf("init conversation store: %w", err)
	}
	logger.Info("session database opened", "path", dbPath)

	// --- Oracle client ---
	// Built even when disabled: the engine consults cfg-level enablement
	// for classification, and a dead oracle degrades turns rather than
	// failing them.
	oc, err := buildOracle(cfg, logger)
	if err != nil {
		return err
	}

	// --- Event publisher ---
	var pub *events.Publisher
	var sink advisor.EventSink
	if cfg.MQTT.Enabled {
		if cfg.MQTT.Instance == "" {
			cfg.MQTT.Instance = "bursar"
		}
		pub = events.New(cfg.MQTT, logger)
		go func() {
			if err := pub.Start(ctx); err != nil {
				logger.Error("event publisher failed", "error", err)
			}
		}()
		sink = pub
		logger.Info("event publishing enabled", "broker", cfg.MQTT.Broker, "instance", cfg.MQTT.Instance)
	} else {
		logger.Info("event publishing disabled")
	}

	// --- Summary email ---
	var notifier advisor.Notifier
	if cfg.Email.Enabled {
		notifier = email.NewMailer(cfg.Email, logger)
		logger.Info("summary email enabled", "smtp_host", cfg.Email.SMTPHost, "to", cfg.Email.To)
	} else {
		logger.Info("summary email disabled")
	}

	// --- Interview engine ---
	engine := advisor.NewEngine(store, history,
		intent.NewClassifier(oc, logger),
		extract.NewExtractor(oc, store, logger),
		goals.NewClassifier(oc, store, logger),
		scope.NewTracker(store, logger),
		risk.NewProfiler(oc, store, logger),
		advisor.Options{
			Events:        sink,
			Notifier:      notifier,
			Logger:        logger,
			OracleEnabled: cfg.Oracle.Enabled,
		})

	// --- API server ---
	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, engine, store, history, logger)

	// --- Signal handling and graceful shutdown ---
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		if pub != nil {
			offlineCtx, offlineCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer offlineCancel()
			if err := pub.Stop(offlineCtx); err != nil {
				logger.Error("event publisher shutdown failed", "error", err)
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Bursar stopped")
	return nil
}

// newLogger creates a structured text logger that writes to w at the
// given level. All log output goes through slog; this helper
// standardizes the handler configuration across subcommands.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file. If
// explicit is non-empty, that exact path is used (and must exist).
// Otherwise [config.FindConfig] searches the default locations.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// buildOracle constructs the configured oracle backend, wrapped with
// the per-call timeout from config.
func buildOracle(cfg *config.Config, logger *slog.Logger) (oracle.Client, error) {
	var client oracle.Client
	switch cfg.Oracle.Provider {
	case "anthropic":
		if cfg.Oracle.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("oracle provider anthropic requires anthropic.api_key")
		}
		client = oracle.NewAnthropicClient(cfg.Oracle.Anthropic.APIKey, cfg.Oracle.Model, logger)
	case "ollama", "":
		client = oracle.NewOllamaClient(cfg.Oracle.OllamaURL, cfg.Oracle.Model)
	default:
		return nil, fmt.Errorf("unknown oracle provider: %q", cfg.Oracle.Provider)
	}

	return &timedOracle{
		inner:   client,
		timeout: time.Duration(cfg.Oracle.Timeout()) * time.Second,
	}, nil
}

// timedOracle bounds every oracle call with the configured timeout so
// a stalled backend degrades the turn instead of hanging it.
type timedOracle struct {
	inner   oracle.Client
	timeout time.Duration
}

func (t *timedOracle) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Complete(ctx, system, user, temperature)
}

func (t *timedOracle) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Ping(ctx)
}
