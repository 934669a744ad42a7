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

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Auth            AuthConfig            `yaml:"auth"`
	Database        DatabaseConfig        `yaml:"database"`
	Storage         StorageConfig         `yaml:"storage"`
	Ledger          LedgerConfig          `yaml:"ledger"`
	Gate            GateConfig            `yaml:"gate"`
	Notify          NotifyConfig          `yaml:"notify"`
	Backup          BackupConfig          `yaml:"backup"`
	SnapshotStorage SnapshotStorageConfig `yaml:"snapshot_storage"`
	Log             LogConfig             `yaml:"log"`
	Profile         ProfileConfig         `yaml:"profile"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a reverse proxy that sets those headers.
	TrustProxy bool `yaml:"trust_proxy"`
}

// AuthConfig contains authentication settings. An empty key leaves the API
// open, which suits a loopback-only deployment.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig names the keys the state and PIN are stored under.
type StorageConfig struct {
	StateKey string `yaml:"state_key"`
	PINKey   string `yaml:"pin_key"`
}

// LedgerConfig contains XP settings.
type LedgerConfig struct {
	XPPerLevel int `yaml:"xp_per_level"`
}

// GateConfig limits PIN attempts.
type GateConfig struct {
	AttemptsPerMinute int `yaml:"attempts_per_minute"`
}

// NotifyConfig contains notification presentation settings.
type NotifyConfig struct {
	ToastDuration Duration `yaml:"toast_duration"`
}

// BackupConfig controls the periodic export backup. A zero interval
// disables it.
type BackupConfig struct {
	Interval Duration `yaml:"interval"`
	Dir      string   `yaml:"dir"`
}

// SnapshotStorageConfig contains S3-compatible settings for uploading
// backups. An empty bucket keeps backups local.
type SnapshotStorageConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProfileConfig contains what the dashboard shows about its owner.
type ProfileConfig struct {
	Name string `yaml:"name"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("LIFERPG_CONFIG_PATH", "config/liferpg.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit config paths.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	useSSL := true
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/liferpg.db",
		},
		Storage: StorageConfig{
			StateKey: "life-rpg-state",
			PINKey:   "life-rpg-pin",
		},
		Ledger: LedgerConfig{
			XPPerLevel: 1000,
		},
		Gate: GateConfig{
			AttemptsPerMinute: 5,
		},
		Notify: NotifyConfig{
			ToastDuration: Duration(3 * time.Second),
		},
		Backup: BackupConfig{
			Interval: Duration(1 * time.Hour),
			Dir:      "data/backups",
		},
		SnapshotStorage: SnapshotStorageConfig{
			Region:    "us-east-1",
			UseSSL:    &useSSL,
			URLExpiry: Duration(15 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	envInt("LIFERPG_PORT", &cfg.Server.Port)
	envDuration("LIFERPG_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("LIFERPG_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("LIFERPG_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	if v := os.Getenv("LIFERPG_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.TrustProxy = b
		}
	}

	// Auth
	envString("LIFERPG_API_KEY", &cfg.Auth.APIKey)

	// Database and keys
	envString("LIFERPG_DB_PATH", &cfg.Database.Path)
	envString("LIFERPG_STATE_KEY", &cfg.Storage.StateKey)
	envString("LIFERPG_PIN_KEY", &cfg.Storage.PINKey)

	// Ledger and gate
	envInt("LIFERPG_XP_PER_LEVEL", &cfg.Ledger.XPPerLevel)
	envInt("LIFERPG_PIN_ATTEMPTS_PER_MINUTE", &cfg.Gate.AttemptsPerMinute)
	envDuration("LIFERPG_TOAST_DURATION", &cfg.Notify.ToastDuration)

	// Backup
	envDuration("LIFERPG_BACKUP_INTERVAL", &cfg.Backup.Interval)
	envString("LIFERPG_BACKUP_DIR", &cfg.Backup.Dir)

	// Snapshot storage
	envString("LIFERPG_SNAPSHOT_BUCKET", &cfg.SnapshotStorage.Bucket)
	envString("LIFERPG_S3_ENDPOINT", &cfg.SnapshotStorage.Endpoint)
	envString("LIFERPG_S3_REGION", &cfg.SnapshotStorage.Region)
	envString("LIFERPG_S3_ACCESS_KEY", &cfg.SnapshotStorage.AccessKey)
	envString("LIFERPG_S3_SECRET_KEY", &cfg.SnapshotStorage.SecretKey)
	if v := os.Getenv("LIFERPG_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SnapshotStorage.UseSSL = &b
		}
	}
	envDuration("LIFERPG_S3_URL_EXPIRY", &cfg.SnapshotStorage.URLExpiry)

	// Log
	envString("LIFERPG_LOG_LEVEL", &cfg.Log.Level)
	envString("LIFERPG_LOG_FORMAT", &cfg.Log.Format)

	// Profile
	envString("LIFERPG_PROFILE_NAME", &cfg.Profile.Name)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate rejects values the rest of the program cannot work with.
func (c *Config) validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Storage.StateKey == "" || c.Storage.PINKey == "" {
		errs = append(errs, errors.New("storage.state_key and storage.pin_key are required"))
	}
	if c.Storage.StateKey != "" && c.Storage.StateKey == c.Storage.PINKey {
		errs = append(errs, errors.New("storage.state_key and storage.pin_key must differ"))
	}
	if c.Ledger.XPPerLevel <= 0 {
		errs = append(errs, fmt.Errorf("ledger.xp_per_level must be positive, got %d", c.Ledger.XPPerLevel))
	}
	if c.Gate.AttemptsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("gate.attempts_per_minute must be positive, got %d", c.Gate.AttemptsPerMinute))
	}
	if c.Backup.Interval < 0 {
		errs = append(errs, errors.New("backup.interval must not be negative"))
	}
	if c.Backup.Interval > 0 && c.Backup.Dir == "" {
		errs = append(errs, errors.New("backup.dir is required when backups are enabled"))
	}
	if c.SnapshotStorage.Bucket != "" && c.SnapshotStorage.Endpoint == "" {
		errs = append(errs, errors.New("snapshot_storage.endpoint is required when a bucket is set"))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
