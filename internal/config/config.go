package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL           = "http://localhost:8080/api/v1"
	DefaultRequestTimeout   = 10 * time.Second
	DefaultCacheTTL         = 30 * time.Second
	DefaultRebalanceEpsilon = 1e-6
)

// Config holds the unified application configuration
type Config struct {
	APIURL           string
	Token            string
	DefaultBoard     string
	Boards           []string
	RequestTimeout   time.Duration
	LogDir           string
	LogLevel         string
	StrictPositions  bool
	RebalanceEpsilon float64
	RedisURL         string
	CacheTTL         time.Duration
	ExportDir        string
}

// Settings represents the config file structure
type Settings struct {
	APIURL           string   `yaml:"api_url"`
	Token            string   `yaml:"token,omitempty"`
	TokenFile        string   `yaml:"token_file,omitempty"`
	DefaultBoard     string   `yaml:"default_board,omitempty"`
	Boards           []string `yaml:"boards,omitempty"`
	RequestTimeout   string   `yaml:"request_timeout,omitempty"`
	LogDir           string   `yaml:"log_dir,omitempty"`
	LogLevel         string   `yaml:"log_level,omitempty"`
	StrictPositions  bool     `yaml:"strict_positions,omitempty"`
	RebalanceEpsilon float64  `yaml:"rebalance_epsilon,omitempty"`
	RedisURL         string   `yaml:"redis_url,omitempty"`
	CacheTTL         string   `yaml:"cache_ttl,omitempty"`
	ExportDir        string   `yaml:"export_dir,omitempty"`
}

// CLIFlags holds parsed CLI flags. Empty values are unset.
type CLIFlags struct {
	ConfigPath string
	APIURL     string
	Token      string
	Board      string
	Strict     bool
}

var globalConfig *Config

// Load loads configuration with priority: CLI flags > env vars > config file > default
func Load(flags CLIFlags) (*Config, error) {
	cfg := &Config{
		APIURL:           DefaultAPIURL,
		RequestTimeout:   DefaultRequestTimeout,
		LogLevel:         "info",
		RebalanceEpsilon: DefaultRebalanceEpsilon,
		CacheTTL:         DefaultCacheTTL,
	}
	if dir, err := GetDefaultDir(); err == nil {
		cfg.LogDir = filepath.Join(dir, "logs")
	}

	configPath := flags.ConfigPath
	if configPath == "" {
		var err error
		if configPath, err = getConfigPath(); err != nil {
			configPath = ""
		}
	}
	if configPath != "" {
		fileConfig, err := loadConfigFile(expandPath(configPath))
		switch {
		case err == nil:
			if err := cfg.apply(fileConfig); err != nil {
				return nil, fmt.Errorf("config %s: %w", configPath, err)
			}
		case flags.ConfigPath != "" || !os.IsNotExist(err):
			// An explicit --config must exist; a broken default file is reported too.
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	// Priority 2: Environment variables override config file
	if v := os.Getenv("NEXUS_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("NEXUS_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("NEXUS_BOARD"); v != "" {
		cfg.DefaultBoard = v
	}
	if v := os.Getenv("NEXUS_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("NEXUS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Priority 1: CLI flags override everything
	if flags.APIURL != "" {
		cfg.APIURL = flags.APIURL
	}
	if flags.Token != "" {
		cfg.Token = flags.Token
	}
	if flags.Board != "" {
		cfg.DefaultBoard = flags.Board
	}
	if flags.Strict {
		cfg.StrictPositions = true
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	globalConfig = cfg
	return cfg, nil
}

// apply merges file settings over the defaults.
func (c *Config) apply(s *Settings) error {
	if s.APIURL != "" {
		c.APIURL = s.APIURL
	}
	c.Token = s.Token
	if c.Token == "" && s.TokenFile != "" {
		data, err := os.ReadFile(expandPath(s.TokenFile))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read token file: %w", err)
		}
		c.Token = strings.TrimSpace(string(data))
	}
	if s.DefaultBoard != "" {
		c.DefaultBoard = s.DefaultBoard
	}
	c.Boards = append([]string(nil), s.Boards...)
	if s.RequestTimeout != "" {
		d, err := time.ParseDuration(s.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if s.LogDir != "" {
		c.LogDir = expandPath(s.LogDir)
	}
	if s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	c.StrictPositions = s.StrictPositions
	if s.RebalanceEpsilon > 0 {
		c.RebalanceEpsilon = s.RebalanceEpsilon
	}
	c.RedisURL = s.RedisURL
	if s.CacheTTL != "" {
		d, err := time.ParseDuration(s.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		c.CacheTTL = d
	}
	if s.ExportDir != "" {
		c.ExportDir = expandPath(s.ExportDir)
	}
	return nil
}

// Get returns the loaded config
func Get() *Config {
	return globalConfig
}

// GetDefaultDir returns the default directory path
func GetDefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "nexus"), nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "nexus", "config.yaml"), nil
}

// loadConfigFile loads configuration from the settings file
func loadConfigFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// PickerBoards returns the board ids offered by the board picker: the
// configured list with the default board first.
func (c *Config) PickerBoards() []string {
	var ids []string
	seen := map[string]bool{}
	for _, id := range append([]string{c.DefaultBoard}, c.Boards...) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// ExportPath returns the directory a board export goes to when none is given.
func (c *Config) ExportPath(boardID string) string {
	dir := c.ExportDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, boardID)
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	settings := Settings{
		APIURL:         DefaultAPIURL,
		TokenFile:      "~/.config/nexus/token",
		RequestTimeout: DefaultRequestTimeout.String(),
		LogLevel:       "info",
		CacheTTL:       DefaultCacheTTL.String(),
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
