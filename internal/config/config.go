package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultThreshold = 0.1

// RankerConfig controls sentence scoring. Threshold is a pointer so that an
// explicit 0 in the file is kept rather than replaced by the default.
type RankerConfig struct {
	Threshold   *float64 `yaml:"threshold"`
	Workers     int      `yaml:"workers"`
	ParallelMin int      `yaml:"parallel_min"`
}

// ThresholdValue returns the configured threshold, or the default when unset.
func (r RankerConfig) ThresholdValue() float64 {
	if r.Threshold == nil {
		return defaultThreshold
	}
	return *r.Threshold
}

func float64Ptr(v float64) *float64 { return &v }

// ReportConfig controls how the generation timestamp is rendered.
type ReportConfig struct {
	TimeLayout string `yaml:"time_layout"`
	Timezone   string `yaml:"timezone"`
}

// DecoderConfig controls document decoding.
type DecoderConfig struct {
	Workers int `yaml:"workers"`
}

// ExportConfig selects the export format and destination.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// StorageConfig points at the account and session database.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// ArchiveConfig points at the report history database.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig configures the watch-folder mode.
type WatchConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	Prompt     string   `yaml:"prompt"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Ranker  RankerConfig  `yaml:"ranker"`
	Report  ReportConfig  `yaml:"report"`
	Decoder DecoderConfig `yaml:"decoder"`
	Export  ExportConfig  `yaml:"export"`
	Storage StorageConfig `yaml:"storage"`
	Archive ArchiveConfig `yaml:"archive"`
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/reportgen/config.yaml.
// If neither exists, it writes defaults to ~/.config/reportgen/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects values the rest of the program cannot work with.
func (c *AppConfig) Validate() error {
	if t := c.Ranker.ThresholdValue(); t < 0 || t >= 1 {
		return fmt.Errorf("%w: ranker.threshold %v not in [0,1)", ErrInvalidConfig, t)
	}
	switch c.Export.Format {
	case "pdf", "txt":
	default:
		return fmt.Errorf("%w: unknown export format %q", ErrInvalidConfig, c.Export.Format)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Location resolves report.timezone; empty means the local zone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Report.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Report.Timezone)
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reportgen", "config.yaml"), nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "reportgen")
}

func defaultConfig() *AppConfig {
	dataDir := defaultDataDir()
	cfg := &AppConfig{
		Ranker:  RankerConfig{Threshold: float64Ptr(defaultThreshold), ParallelMin: 64},
		Report:  ReportConfig{TimeLayout: "1/2/2006, 3:04:05 PM"},
		Export:  ExportConfig{Dir: ".", Format: "pdf"},
		Storage: StorageConfig{DataDir: filepath.Join(dataDir, "accounts")},
		Archive: ArchiveConfig{Path: filepath.Join(dataDir, "reports.db")},
		Server:  ServerConfig{Addr: ":8080"},
		Watch:   WatchConfig{Dir: "inbox", Extensions: []string{".pdf", ".txt", ".md"}},
		Log:     LogConfig{Level: "info"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Ranker.Threshold == nil {
		cfg.Ranker.Threshold = def.Ranker.Threshold
	}
	if cfg.Ranker.ParallelMin == 0 {
		cfg.Ranker.ParallelMin = def.Ranker.ParallelMin
	}
	if cfg.Report.TimeLayout == "" {
		cfg.Report.TimeLayout = def.Report.TimeLayout
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = def.Export.Dir
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = def.Export.Format
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = def.Storage.DataDir
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = def.Archive.Path
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Watch.Dir == "" {
		cfg.Watch.Dir = def.Watch.Dir
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = def.Watch.Extensions
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// applyEnvOverrides lets REPORTGEN_* variables (typically from .env) win over the file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("REPORTGEN_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranker.Threshold = &f
		}
	}
	if v := os.Getenv("REPORTGEN_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = filepath.Join(v, "accounts")
		cfg.Archive.Path = filepath.Join(v, "reports.db")
	}
	if v := os.Getenv("REPORTGEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("REPORTGEN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
