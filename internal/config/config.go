package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envGoogleTokenJSON = "GOOGLE_TOKEN_JSON"
	envGoogleTokenFile = "TRIAGER_GOOGLE_TOKEN_FILE"
	envOpenAIKey       = "OPENAI_API_KEY"
	envGroqKey         = "GROQ_API_KEY"
	envAccountingEmail = "ACCOUNTING_EMAIL"
	envS3Endpoint      = "TRIAGER_S3_ENDPOINT"
	envS3Region        = "TRIAGER_S3_REGION"
	envS3Bucket        = "TRIAGER_S3_BUCKET"
	envS3Key           = "TRIAGER_S3_KEY"
	envS3Secret        = "TRIAGER_S3_SECRET"
	envOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envWebhookURL      = "TRIAGER_WEBHOOK_URL"
)

// Storage backends.
const (
	BackendNone  = "none"
	BackendDrive = "drive"
	BackendS3    = "s3"
)

// Config holds non-secret configuration loaded from YAML.
type Config struct {
	Directives     DirectivesConfig `yaml:"directives"`
	ProcessedLabel string           `yaml:"processed_label"`
	Poll           Poll             `yaml:"poll"`
	Storage        Storage          `yaml:"storage"`
	Model          Model            `yaml:"model"`
	Credential     Credential       `yaml:"credential"`
	Telemetry      Telemetry        `yaml:"telemetry"`
	Status         Status           `yaml:"status"`
	Logging        Logging          `yaml:"logging"`
}

// DirectivesConfig points at the operator's markdown directives. Inline values
// win over the files.
type DirectivesConfig struct {
	Dir          string `yaml:"dir"`
	RootFolderID string `yaml:"root_folder_id"`
	Instructions string `yaml:"instructions"`
}

// Poll controls which messages a cycle looks at and how often watch runs.
type Poll struct {
	Window   string `yaml:"window"`
	PageSize int    `yaml:"page_size"`
	Interval string `yaml:"interval"`
}

type Storage struct {
	Backend string `yaml:"backend"`
}

type Model struct {
	Name string `yaml:"name"`
}

// Credential selects where the Google token comes from when it is not in the
// environment.
type Credential struct {
	KeyringService string `yaml:"keyring_service"`
	KeyringItem    string `yaml:"keyring_item"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type Status struct {
	Listen string `yaml:"listen"`
}

type Logging struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// S3Env holds the S3 connection details from environment variables.
type S3Env struct {
	Endpoint string
	Region   string
	Bucket   string
	Key      string
	Secret   string
}

const (
	defaultInterval = time.Minute
	maxPageSize     = 500
)

func ParseRelativeDuration(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	if strings.HasSuffix(trimmed, "d") {
		daysValue := strings.TrimSuffix(trimmed, "d")
		days, err := strconv.ParseFloat(strings.TrimSpace(daysValue), 64)
		if err != nil {
			return 0, err
		}
		if days < 0 {
			return 0, errors.New("duration must be positive")
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	dur, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if dur < 0 {
		return 0, errors.New("duration must be positive")
	}
	return dur, nil
}

// WindowDuration returns the poll window; zero means the pipeline default.
func (p Poll) WindowDuration() time.Duration {
	dur, _ := ParseRelativeDuration(p.Window)
	return dur
}

// IntervalDuration returns the watch interval, one minute when unset.
func (p Poll) IntervalDuration() time.Duration {
	dur, _ := ParseRelativeDuration(p.Interval)
	if dur <= 0 {
		return defaultInterval
	}
	return dur
}

// BackendName returns the configured storage backend, drive when unset.
func (s Storage) BackendName() string {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		return BackendDrive
	}
	return backend
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate performs basic validation on non-secret config.
func Validate(cfg Config) error {
	if _, err := ParseRelativeDuration(cfg.Poll.Window); err != nil {
		return fmt.Errorf("invalid poll.window: %w", err)
	}
	if _, err := ParseRelativeDuration(cfg.Poll.Interval); err != nil {
		return fmt.Errorf("invalid poll.interval: %w", err)
	}
	if cfg.Poll.PageSize < 0 || cfg.Poll.PageSize > maxPageSize {
		return fmt.Errorf("poll.page_size must be between 0 and %d", maxPageSize)
	}
	switch cfg.Storage.BackendName() {
	case BackendNone, BackendDrive, BackendS3:
	default:
		return fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown logging.format %q", cfg.Logging.Format)
	}
	if len(cfg.ProcessedLabel) > 225 {
		return errors.New("processed_label is too long")
	}
	return nil
}

// ValidateEnv ensures required environment variables are set.
func ValidateEnv(cfg Config) error {
	missing := []string{}
	if !hasGoogleToken(cfg) {
		missing = append(missing, envGoogleTokenJSON+" or "+envGoogleTokenFile)
	}
	if cfg.Storage.BackendName() == BackendS3 {
		for _, name := range s3EnvVars() {
			if strings.TrimSpace(os.Getenv(name)) == "" {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
}

func hasGoogleToken(cfg Config) bool {
	if strings.TrimSpace(cfg.Credential.KeyringService) != "" {
		return true
	}
	return strings.TrimSpace(os.Getenv(envGoogleTokenJSON)) != "" ||
		strings.TrimSpace(os.Getenv(envGoogleTokenFile)) != ""
}

func s3EnvVars() []string {
	return []string{
		envS3Region,
		envS3Bucket,
		envS3Key,
		envS3Secret,
	}
}

// GoogleTokenJSON returns the inline token, if any.
func GoogleTokenJSON() string {
	return strings.TrimSpace(os.Getenv(envGoogleTokenJSON))
}

// GoogleTokenFile returns the token file path, if any.
func GoogleTokenFile() string {
	return strings.TrimSpace(os.Getenv(envGoogleTokenFile))
}

// APIKey returns the model API key, preferring OpenAI over Groq.
func APIKey() string {
	if key := strings.TrimSpace(os.Getenv(envOpenAIKey)); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(envGroqKey))
}

// AccountingEmail returns the forward address; empty means the mailbox owner.
func AccountingEmail() string {
	return strings.TrimSpace(os.Getenv(envAccountingEmail))
}

// WebhookURL returns the announcement webhook base URL, if any.
func WebhookURL() string {
	return strings.TrimSpace(os.Getenv(envWebhookURL))
}

// TelemetryEnabled reports whether OTel export is switched on.
func TelemetryEnabled(cfg Config) bool {
	return cfg.Telemetry.Enabled || strings.TrimSpace(os.Getenv(envOTLPEndpoint)) != ""
}

// S3EnvFromEnv loads S3 connection details and validates required entries.
func S3EnvFromEnv() (S3Env, error) {
	missing := []string{}
	for _, name := range s3EnvVars() {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return S3Env{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return S3Env{
		Endpoint: strings.TrimSpace(os.Getenv(envS3Endpoint)),
		Region:   strings.TrimSpace(os.Getenv(envS3Region)),
		Bucket:   strings.TrimSpace(os.Getenv(envS3Bucket)),
		Key:      strings.TrimSpace(os.Getenv(envS3Key)),
		Secret:   strings.TrimSpace(os.Getenv(envS3Secret)),
	}, nil
}

// Summary returns a concise config summary for validation runs.
func Summary(cfg Config) string {
	modelStatus := "disabled (all mail classified as Misc)"
	if APIKey() != "" {
		modelStatus = "enabled"
	}
	telemetryStatus := "disabled"
	if TelemetryEnabled(cfg) {
		telemetryStatus = "enabled"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- directives dir: %s\n"+
			"- processed label: %s\n"+
			"- poll window: %s\n"+
			"- poll interval: %s\n"+
			"- storage backend: %s\n"+
			"- model: %s\n"+
			"- telemetry: %s\n"+
			"- status listen: %s",
		defaultIfEmpty(cfg.Directives.Dir, "(not set)"),
		defaultIfEmpty(cfg.ProcessedLabel, "AI Processed"),
		defaultIfEmpty(cfg.Poll.Window, "20m"),
		cfg.Poll.IntervalDuration(),
		cfg.Storage.BackendName(),
		modelStatus,
		telemetryStatus,
		defaultIfEmpty(cfg.Status.Listen, "(not set)"),
	)
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
