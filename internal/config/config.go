package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/bizwire/internal/dataset"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	NewsAPI  NewsAPI  `yaml:"newsapi"`
	Dataset  Dataset  `yaml:"dataset"`
	Schedule Schedule `yaml:"schedule"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Mirror   Mirror   `yaml:"mirror"`
}

type NewsAPI struct {
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Language  string        `yaml:"language"`
	Country   string        `yaml:"country"`
	PageSize  int           `yaml:"page_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Dataset struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

type Schedule struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Mirror struct {
	S3 S3Mirror `yaml:"s3"`
}

type S3Mirror struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// ConfigDir returns the XDG config directory for bizwire.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "bizwire")
}

// DataDir returns the XDG data directory for bizwire.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "bizwire")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/bizwire/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'bizwire init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		NewsAPI: NewsAPI{
			APIKeyEnv: "NEWSAPI_KEY",
			BaseURL:   "https://newsapi.org/v2",
			Language:  "en",
			Country:   "us",
			PageSize:  70,
			Timeout:   30 * time.Second,
		},
		Dataset: Dataset{
			Path:   "business_news.xlsx",
			Format: dataset.FormatAuto,
		},
		Schedule: Schedule{Interval: time.Minute},
		Server:   Server{Port: 8000},
		Logging:  Logging{Level: "INFO"},
		Mirror:   Mirror{S3: S3Mirror{Prefix: "bizwire/"}},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at the first cycle.
func (c *Config) Validate() error {
	var errs []error
	if c.Schedule.Interval <= 0 {
		errs = append(errs, fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval))
	}
	if c.NewsAPI.PageSize < 1 || c.NewsAPI.PageSize > 100 {
		errs = append(errs, fmt.Errorf("newsapi.page_size must be between 1 and 100, got %d", c.NewsAPI.PageSize))
	}
	if c.Dataset.Path == "" {
		errs = append(errs, errors.New("dataset.path must be set"))
	} else if _, err := dataset.ResolveFormat(c.Dataset.Path, c.Dataset.Format); err != nil {
		errs = append(errs, fmt.Errorf("dataset: %w", err))
	}
	return errors.Join(errs...)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatasetPath returns the dataset location, resolving relative paths
// against the data directory.
func (c *Config) DatasetPath() string {
	if filepath.IsAbs(c.Dataset.Path) {
		return c.Dataset.Path
	}
	return filepath.Join(c.GetDataDir(), c.Dataset.Path)
}

// HistoryDBPath returns the path of the run history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.GetDataDir(), "bizwire.db")
}

// LoadEnv loads variables from .env files without overriding ones already
// set. Missing files are ignored.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// APIKey returns the NewsAPI key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.NewsAPI.APIKeyEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
