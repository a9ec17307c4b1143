package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/hackmonkey/praline-config"
	"github.com/hackmonkey/praline-config/internal/logging"
	"github.com/hackmonkey/praline-config/sourceenv"
	"github.com/hackmonkey/praline-config/sourcefile"
)

// User is one entry of the users list.
type User struct {
	Name string `conf:"required"`
	Age  int    `conf:"min:0"`
}

// AppConfig is the configuration loaded by the example.
type AppConfig struct {
	praline.EnvConfig

	ServerAddress string        `conf:"default:0.0.0.0:8080"`
	Threads       int           `conf:"default:4,min:1,max:64"`
	Environment   string        `conf:"default:dev,oneof:dev,staging,prod"`
	Timeout       time.Duration `conf:"default:30s"`
	Started       time.Time     `conf:"factory:datetime"`
	APIKey        praline.SecureValue
	Users         []User
	Labels        map[string]string
}

type options struct {
	configFiles  []string
	dotEnvFiles  []string
	envPrefix    string
	overrides    []string
	asJSON       bool
	snapshotPath string
	logLevel     string
	trace        bool
	watch        time.Duration
}

func main() {
	app := kingpin.New("praline-example", "Loads an example configuration from files, environment and flags and prints it")
	opts := options{}
	app.Flag("config", "Configuration file (YAML, JSON, TOML or HCL). Repeatable; later files win.").StringsVar(&opts.configFiles)
	app.Flag("dotenv", ".env file loaded into the environment before reading it. Repeatable.").StringsVar(&opts.dotEnvFiles)
	app.Flag("env-prefix", "Only read environment variables with this prefix").Default("PRALINE_").StringVar(&opts.envPrefix)
	app.Flag("set", "Override a value, e.g. --set server_address=:9000. Repeatable.").StringsVar(&opts.overrides)
	app.Flag("json", "Print the effective configuration as JSON").BoolVar(&opts.asJSON)
	app.Flag("snapshot", "Write a snapshot of the effective configuration; {{timestamp}} is expanded").StringVar(&opts.snapshotPath)
	app.Flag("log-level", "Log level (debug, info, warn, error)").Default("warn").StringVar(&opts.logLevel)
	app.Flag("trace", "Log every field as it is loaded (needs --log-level=debug)").BoolVar(&opts.trace)
	app.Flag("watch", "Poll configuration files at this interval and print every reload").DurationVar(&opts.watch)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := logging.New(opts.logLevel, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(2)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("configuration failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger, out io.Writer) error {
	loader, err := newLoader(opts, logger)
	if err != nil {
		return err
	}

	if opts.watch > 0 {
		return watch(ctx, loader, opts, logger, out)
	}

	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	return report(cfg, opts, logger, out)
}

func newLoader(opts options, logger *zap.Logger) (*praline.Loader[AppConfig], error) {
	overrides, err := parseOverrides(opts.overrides)
	if err != nil {
		return nil, err
	}

	loader := praline.NewLoader[AppConfig]().
		WithLogger(logger).
		WithTrace(opts.trace).
		WithOverrides(overrides)
	for _, path := range opts.configFiles {
		loader.WithSource(sourcefile.New(path, sourcefile.Options{Required: true, PollInterval: opts.watch}))
	}
	loader.WithSource(sourceenv.New(sourceenv.Options{Prefix: opts.envPrefix, DotEnv: opts.dotEnvFiles}))
	return loader, nil
}

// parseOverrides turns key=value pairs into a dotted-key map.
func parseOverrides(pairs []string) (map[string]any, error) {
	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q: expected key=value", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

func report(cfg *AppConfig, opts options, logger *zap.Logger, out io.Writer) error {
	dumpOpts := []praline.DumpOption{praline.WithSources()}
	if opts.asJSON {
		dumpOpts = []praline.DumpOption{praline.AsJSON()}
	}
	if err := praline.DumpEffective(out, cfg, dumpOpts...); err != nil {
		return fmt.Errorf("dump configuration: %w", err)
	}

	if opts.snapshotPath == "" {
		return nil
	}
	snap, err := praline.CreateSnapshot(cfg)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := praline.WriteSnapshot(snap, opts.snapshotPath); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info("snapshot written",
		zap.String("id", snap.ID),
		zap.String("path", praline.ExpandPathWithTime(opts.snapshotPath, snap.Timestamp)))
	return nil
}

func watch(ctx context.Context, loader *praline.Loader[AppConfig], opts options, logger *zap.Logger, out io.Writer) error {
	snapshots, errs, err := loader.Watch(ctx)
	if err != nil {
		return err
	}

	var current *AppConfig
	for snapshots != nil || errs != nil {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			if current != nil {
				praline.ReleaseProvenance(current)
			}
			current = snap.Config
			logger.Info("configuration loaded", zap.Int64("version", snap.Version), zap.String("cause", snap.Source))
			fmt.Fprintf(out, "--- version %d (%s)\n", snap.Version, snap.Source)
			if err := report(current, opts, logger, out); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("reload failed, keeping the previous configuration", zap.Error(err))
		}
	}
	return nil
}
