package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"aaronromeo.com/triager/internal/classifier"
	"aaronromeo.com/triager/internal/config"
	"aaronromeo.com/triager/internal/credential"
	"aaronromeo.com/triager/internal/mailbox"
	"aaronromeo.com/triager/internal/pipeline"
	"aaronromeo.com/triager/internal/storage"
	"aaronromeo.com/triager/internal/telemetry"
)

const configEnvVar = "TRIAGER_CONFIG"
const defaultEnvFile = ".env"

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to YAML config file (or set TRIAGER_CONFIG)")
	cmd.Flags().Bool("dry-run", false, "Classify and log without changing the mailbox")
	cmd.Flags().Bool("verbose", false, "Enable verbose logging")
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(configEnvVar)
	}
	if strings.TrimSpace(cfgPath) == "" {
		return "", errors.New("config path is required via --config or TRIAGER_CONFIG")
	}
	return cfgPath, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}

// loadConfig resolves, loads and validates configuration and prints its
// summary.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, err := resolveConfigPath(cmd)
	if err != nil {
		return config.Config{}, err
	}

	if err := loadEnvFile(); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}

	if err := config.ValidateEnv(cfg); err != nil {
		return config.Config{}, err
	}

	fmt.Fprintln(cmd.OutOrStdout(), config.Summary(cfg))
	return cfg, nil
}

// session is what a command needs to run cycles.
type session struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func newSession(ctx context.Context, cmd *cobra.Command, cfg config.Config) (*session, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	shutdown := func(context.Context) error { return nil }
	bridge := config.TelemetryEnabled(cfg)
	if bridge {
		shutdown, err = telemetry.Setup(ctx, telemetry.OptionsFromEnv(cfg.Telemetry.ServiceName))
		if err != nil {
			return nil, err
		}
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := telemetry.NewLogger(telemetry.LoggerOptions{
		Format:      cfg.Logging.Format,
		Level:       level,
		Output:      cmd.ErrOrStderr(),
		Bridge:      bridge,
		ServiceName: cfg.Telemetry.ServiceName,
	})

	p, err := buildPipeline(ctx, cfg, logger, dryRun)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	return &session{pipeline: p, logger: logger, shutdown: shutdown}, nil
}

func buildPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger, dryRun bool) (*pipeline.Pipeline, error) {
	token, source, err := credential.NewLoader(cfg).Load()
	if err != nil {
		return nil, err
	}
	logger.Debug("google token loaded", slog.String("source", source))

	httpClient, err := credential.HTTPClient(ctx, token)
	if err != nil {
		return nil, err
	}

	mail, err := mailbox.NewGmail(ctx, httpClient, mailbox.WithGmailLogger(logger))
	if err != nil {
		return nil, err
	}

	directives, err := config.LoadDirectives(cfg)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithDirectives(directives),
		pipeline.WithCategorizer(classifier.FromAPIKey(config.APIKey(), cfg.Model.Name, classifier.WithLogger(logger))),
		pipeline.WithAccountingEmail(config.AccountingEmail()),
		pipeline.WithWindow(cfg.Poll.WindowDuration(), cfg.Poll.PageSize),
		pipeline.WithDryRun(dryRun),
	}
	if name := strings.TrimSpace(cfg.ProcessedLabel); name != "" {
		opts = append(opts, pipeline.WithProcessedLabel(name))
	}

	store, err := newStore(ctx, cfg.Storage.BackendName(), httpClient, logger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, pipeline.WithStorage(store))
	}

	return pipeline.New(mail, opts...)
}

// newStore returns the attachment store for backend, or nil for "none".
func newStore(ctx context.Context, backend string, httpClient *http.Client, logger *slog.Logger) (storage.Service, error) {
	switch backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendS3:
		env, err := config.S3EnvFromEnv()
		if err != nil {
			return nil, err
		}
		store, err := storage.NewS3(storage.S3Config{
			Endpoint: env.Endpoint,
			Region:   env.Region,
			Bucket:   env.Bucket,
			Key:      env.Key,
			Secret:   env.Secret,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendDrive:
		store, err := storage.NewDrive(ctx, httpClient, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
