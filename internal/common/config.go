package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration for the bountyforged
// process: everything the engine needs that is NOT part of a single job.
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Queue       QueueConfig     `toml:"queue"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Workers     WorkersConfig   `toml:"workers"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Scanners    ScannersConfig  `toml:"scanners"`
}

// ServerConfig controls the HTTP driver (job submission + SSE/WS event stream).
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// QueueConfig controls the durable job queue workers drain from.
type QueueConfig struct {
	PollInterval string `toml:"poll_interval"` // e.g. "1s"
	Concurrency  int    `toml:"concurrency"`
}

// StorageConfig controls the result store gateway's backing BadgerDB.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// LoggingConfig controls arbor's writer set and level.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Output     []string `toml:"output"` // "console", "file"
	TimeFormat string   `toml:"time_format"`
}

// WorkersConfig bounds the job runner's worker pool.
type WorkersConfig struct {
	Concurrency  int    `toml:"concurrency"`
	StageTimeout string `toml:"stage_timeout"` // default per-stage timeout
}

// SchedulerConfig controls the periodic adapter-availability recheck.
type SchedulerConfig struct {
	AvailabilitySpec string `toml:"availability_spec"` // cron spec, e.g. "@every 5m"
}

// ScannersConfig points at the YAML file holding per-tool default options
// consumed by the Configuration Merger (internal/merge).
type ScannersConfig struct {
	DefaultsFile string `toml:"defaults_file"`
}

// NewDefaultConfig returns the built-in defaults, overridden by config
// files and then environment variables in LoadFromFiles.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8088,
		},
		Queue: QueueConfig{
			PollInterval: "500ms",
			Concurrency:  4,
		},
		Storage: StorageConfig{
			DataDir: "./data/bountyforge",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"console"},
			TimeFormat: "15:04:05.000",
		},
		Workers: WorkersConfig{
			Concurrency:  4,
			StageTimeout: "30m",
		},
		Scheduler: SchedulerConfig{
			AvailabilitySpec: "@every 5m",
		},
		Scanners: ScannersConfig{
			DefaultsFile: "config/scanners.yaml",
		},
	}
}

// LoadFromFile loads configuration from a single TOML file, or returns
// defaults if path is empty.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 ->
// file2 -> ... -> environment. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		if err := mergeTOMLFile(config, path); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// mergeTOMLFile reads path and unmarshals it onto config, overwriting
// only the fields present in the file (go-toml/v2 merges onto the
// existing struct value rather than zeroing it first).
func mergeTOMLFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return err
	}
	return nil
}

// applyEnvOverrides applies BOUNTYFORGE_* environment variables, which
// take priority over every config file.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BOUNTYFORGE_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("BOUNTYFORGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("BOUNTYFORGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if dir := os.Getenv("BOUNTYFORGE_DATA_DIR"); dir != "" {
		config.Storage.DataDir = dir
	}
	if level := os.Getenv("BOUNTYFORGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if n := os.Getenv("BOUNTYFORGE_WORKERS"); n != "" {
		if c, err := strconv.Atoi(n); err == nil {
			config.Workers.Concurrency = c
		}
	}
}

// ApplyFlagOverrides layers CLI flag values over the loaded config,
// the highest-priority source.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction reports whether the process is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// StageTimeout parses Workers.StageTimeout, falling back to 30 minutes
// on an empty or malformed value.
func (c *Config) StageTimeout() time.Duration {
	if c.Workers.StageTimeout == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(c.Workers.StageTimeout)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// PollInterval parses Queue.PollInterval, falling back to 500ms.
func (c *Config) PollInterval() time.Duration {
	if c.Queue.PollInterval == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(c.Queue.PollInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
