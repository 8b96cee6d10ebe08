// Package config provides configuration for the autoitem agent and CLI.
// Values come from defaults, then an optional YAML file, then AUTOITEM_*
// environment variables, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort     = 8797
	DefaultLogLevel = "info"
	DefaultDataDir  = ".autoitem"
	DefaultTempo    = 120

	EnvPort       = "AUTOITEM_PORT"
	EnvLogLevel   = "AUTOITEM_LOG_LEVEL"
	EnvDataDir    = "AUTOITEM_DATA_DIR"
	EnvTempo      = "AUTOITEM_TEMPO"
	EnvOutputDir  = "AUTOITEM_OUTPUT_DIR"
	EnvHeadless   = "AUTOITEM_HEADLESS"
	EnvConfigPath = "AUTOITEM_CONFIG_PATH"

	DBFilename = "autoitem.db"

	reaperDir          = "REAPER"
	automationItemsDir = "AutomationItems"

	minTempo = 1
	maxTempo = 1024
)

type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	DefaultTempo() int
	DefaultOutputDir() string
	Headless() bool
}

// fileConfig mirrors the YAML file. Pointers distinguish absent keys.
type fileConfig struct {
	Port      *int    `yaml:"port"`
	LogLevel  *string `yaml:"log_level"`
	DataDir   *string `yaml:"data_dir"`
	Tempo     *int    `yaml:"tempo"`
	OutputDir *string `yaml:"output_dir"`
	Headless  *bool   `yaml:"headless"`
}

type EnvConfig struct {
	port      int
	logLevel  string
	dataDir   string
	tempo     int
	outputDir string
	headless  bool
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are given) into the process environment. Missing files are skipped and
// variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:      DefaultPort,
		logLevel:  DefaultLogLevel,
		dataDir:   defaultDataDir(),
		tempo:     DefaultTempo,
		outputDir: defaultOutputDir(),
	}

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != nil {
		c.port = *fc.Port
	}
	if fc.LogLevel != nil {
		c.logLevel = *fc.LogLevel
	}
	if fc.DataDir != nil {
		c.dataDir = *fc.DataDir
	}
	if fc.Tempo != nil {
		c.tempo = *fc.Tempo
	}
	if fc.OutputDir != nil {
		c.outputDir = *fc.OutputDir
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	return nil
}

func (c *EnvConfig) loadEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.dataDir = dd
	}

	if t := os.Getenv(EnvTempo); t != "" {
		tempo, err := strconv.Atoi(t)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTempo, err)
		}
		c.tempo = tempo
	}

	if od := os.Getenv(EnvOutputDir); od != "" {
		c.outputDir = od
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.headless = headless
	}
	return nil
}

func (c *EnvConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port)
	}
	if c.tempo < minTempo || c.tempo > maxTempo {
		return fmt.Errorf("invalid default tempo %d: must be between %d and %d", c.tempo, minTempo, maxTempo)
	}
	if c.outputDir != "" && !filepath.IsAbs(c.outputDir) {
		return fmt.Errorf("invalid default output dir %q: must be absolute", c.outputDir)
	}
	return nil
}

func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

func (c *EnvConfig) DefaultTempo() int {
	return c.tempo
}

// DefaultOutputDir is REAPER's automation item folder unless configured.
// It is empty when the user config directory cannot be resolved.
func (c *EnvConfig) DefaultOutputDir() string {
	return c.outputDir
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// defaultOutputDir is where REAPER looks for automation items:
// ~/Library/Application Support/REAPER/AutomationItems on macOS,
// ~/.config/REAPER/AutomationItems on Linux and %AppData%\REAPER\AutomationItems
// on Windows.
func defaultOutputDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || !filepath.IsAbs(dir) {
		return ""
	}
	return filepath.Join(dir, reaperDir, automationItemsDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
