// Package config provides CLI configuration management for the audiencia command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultOutputFormat    = OutputFormatText
	DefaultConfigDir       = ".audiencia"
	DefaultConfigFile      = "config.yaml"
	DefaultContextWindow   = 2
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultRedisAddress    = "localhost:6379"
	DefaultChannelPrefix   = "events.audiencia"
	DefaultUser            = "usuario"
	configDirEnv           = "AUDIENCIA_CONFIG_DIR"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// MarkersConfig overrides the tokens that lower a record's confidence. Blank
// fields keep the built-in marker.
type MarkersConfig struct {
	Ellipsis      string `yaml:"ellipsis,omitempty"`
	Hesitation    string `yaml:"hesitation,omitempty"`
	RhetoricalTag string `yaml:"rhetorical_tag,omitempty"`
	Negation      string `yaml:"negation,omitempty"`
}

// CaseConfig maps a case number to its hearing files and header fields.
type CaseConfig struct {
	// Transcript is the path of the transcript file (json, vtt or txt).
	Transcript string `yaml:"transcript"`

	// Video is the path or URL of the hearing recording.
	Video string `yaml:"video,omitempty"`

	Title       string `yaml:"title,omitempty"`
	Court       string `yaml:"court,omitempty"`
	HearingType string `yaml:"hearing_type,omitempty"`
	HearingDate string `yaml:"hearing_date,omitempty"`
	Claimant    string `yaml:"claimant,omitempty"`
	Respondent  string `yaml:"respondent,omitempty"`
}

// EventsConfig holds Redis pub/sub settings for change notifications.
type EventsConfig struct {
	// Enabled turns on event publishing.
	Enabled bool `yaml:"enabled"`

	// Address is the Redis server (host:port).
	Address string `yaml:"address,omitempty"`

	// Password is the Redis password.
	Password string `yaml:"password,omitempty"`

	// DB is the Redis database number.
	DB int `yaml:"db,omitempty"`

	// ChannelPrefix is prepended to every event type.
	ChannelPrefix string `yaml:"channel_prefix,omitempty"`
}

// ServeConfig holds settings for the HTTP API.
type ServeConfig struct {
	// ListenAddress is the host:port the API listens on.
	ListenAddress string `yaml:"listen_address"`

	// PlaybackDuration is the length of the simulated media. Zero uses the
	// end of the last record.
	PlaybackDuration time.Duration `yaml:"playback_duration,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// LogJSON forces JSON log lines even on a terminal.
	LogJSON bool `yaml:"log_json,omitempty"`

	// User is recorded as the author of edits.
	User string `yaml:"user,omitempty"`

	// ContextWindow is the number of records shown around a filtered speaker.
	ContextWindow int `yaml:"context_window"`

	// Markers overrides the confidence markers.
	Markers *MarkersConfig `yaml:"markers,omitempty"`

	// Palette replaces the speaker color palette.
	Palette []string `yaml:"palette,omitempty"`

	// DefaultColor is used for unknown speakers.
	DefaultColor string `yaml:"default_color,omitempty"`

	// Cases maps case numbers to hearing files.
	Cases map[string]CaseConfig `yaml:"cases,omitempty"`

	// Events configures change notifications.
	Events EventsConfig `yaml:"events"`

	// Serve configures the HTTP API.
	Serve ServeConfig `yaml:"serve"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		OutputFormat:  DefaultOutputFormat,
		ContextWindow: DefaultContextWindow,
		Events: EventsConfig{
			Address:       DefaultRedisAddress,
			ChannelPrefix: DefaultChannelPrefix,
		},
		Serve: ServeConfig{
			ListenAddress:   DefaultListenAddress,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $AUDIENCIA_CONFIG_DIR if set, otherwise ~/.audiencia
func ConfigDir() (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.audiencia/config.yaml or $AUDIENCIA_CONFIG_DIR/config.yaml)
// 3. Environment variables (AUDIENCIA_*)
func LoadConfig() (*CLIConfig, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile is LoadConfig reading the given file. A missing file leaves
// the defaults in place.
func LoadConfigFile(configPath string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors CLIConfig with durations as strings.
type configFile struct {
	OutputFormat  OutputFormat          `yaml:"output_format,omitempty"`
	Debug         bool                  `yaml:"debug,omitempty"`
	LogJSON       bool                  `yaml:"log_json,omitempty"`
	User          string                `yaml:"user,omitempty"`
	ContextWindow *int                  `yaml:"context_window,omitempty"`
	Markers       *MarkersConfig        `yaml:"markers,omitempty"`
	Palette       []string              `yaml:"palette,omitempty"`
	DefaultColor  string                `yaml:"default_color,omitempty"`
	Cases         map[string]CaseConfig `yaml:"cases,omitempty"`
	Events        *EventsConfig         `yaml:"events,omitempty"`
	Serve         *serveFile            `yaml:"serve,omitempty"`
}

type serveFile struct {
	ListenAddress    string `yaml:"listen_address,omitempty"`
	PlaybackDuration string `yaml:"playback_duration,omitempty"`
	ShutdownTimeout  string `yaml:"shutdown_timeout,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug
	cfg.LogJSON = fileCfg.LogJSON
	if fileCfg.User != "" {
		cfg.User = fileCfg.User
	}
	if fileCfg.ContextWindow != nil {
		cfg.ContextWindow = *fileCfg.ContextWindow
	}
	if fileCfg.Markers != nil {
		cfg.Markers = fileCfg.Markers
	}
	if len(fileCfg.Palette) > 0 {
		cfg.Palette = fileCfg.Palette
	}
	if fileCfg.DefaultColor != "" {
		cfg.DefaultColor = fileCfg.DefaultColor
	}
	if fileCfg.Cases != nil {
		cfg.Cases = fileCfg.Cases
	}
	if ev := fileCfg.Events; ev != nil {
		cfg.Events.Enabled = ev.Enabled
		if ev.Address != "" {
			cfg.Events.Address = ev.Address
		}
		cfg.Events.Password = ev.Password
		cfg.Events.DB = ev.DB
		if ev.ChannelPrefix != "" {
			cfg.Events.ChannelPrefix = ev.ChannelPrefix
		}
	}
	if sv := fileCfg.Serve; sv != nil {
		if sv.ListenAddress != "" {
			cfg.Serve.ListenAddress = sv.ListenAddress
		}
		if sv.PlaybackDuration != "" {
			d, err := time.ParseDuration(sv.PlaybackDuration)
			if err != nil {
				return fmt.Errorf("parsing serve.playback_duration: %w", err)
			}
			cfg.Serve.PlaybackDuration = d
		}
		if sv.ShutdownTimeout != "" {
			d, err := time.ParseDuration(sv.ShutdownTimeout)
			if err != nil {
				return fmt.Errorf("parsing serve.shutdown_timeout: %w", err)
			}
			cfg.Serve.ShutdownTimeout = d
		}
	}

	return nil
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("AUDIENCIA_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if envBool("AUDIENCIA_DEBUG") {
		cfg.Debug = true
	}

	if envBool("AUDIENCIA_LOG_JSON") {
		cfg.LogJSON = true
	}

	if v := os.Getenv("AUDIENCIA_USER"); v != "" {
		cfg.User = v
	}

	if v := os.Getenv("AUDIENCIA_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ContextWindow = n
		}
	}

	if v := os.Getenv("AUDIENCIA_DEFAULT_COLOR"); v != "" {
		cfg.DefaultColor = v
	}

	// Event publishing.
	if envBool("AUDIENCIA_EVENTS_ENABLED") {
		cfg.Events.Enabled = true
	}
	if v := os.Getenv("AUDIENCIA_REDIS_ADDRESS"); v != "" {
		cfg.Events.Address = v
	}
	if v := os.Getenv("AUDIENCIA_REDIS_PASSWORD"); v != "" {
		cfg.Events.Password = v
	}
	if v := os.Getenv("AUDIENCIA_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Events.DB = n
		}
	}

	// HTTP API.
	if v := os.Getenv("AUDIENCIA_LISTEN_ADDRESS"); v != "" {
		cfg.Serve.ListenAddress = v
	}
	if v := os.Getenv("AUDIENCIA_PLAYBACK_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Serve.PlaybackDuration = d
		}
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if c.ContextWindow < 0 {
		return fmt.Errorf("context_window must not be negative")
	}

	for _, color := range c.Palette {
		if !hexColor.MatchString(color) {
			return fmt.Errorf("invalid palette color: %q (must be #rrggbb)", color)
		}
	}
	if c.DefaultColor != "" && !hexColor.MatchString(c.DefaultColor) {
		return fmt.Errorf("invalid default_color: %q (must be #rrggbb)", c.DefaultColor)
	}

	for number, cs := range c.Cases {
		if strings.TrimSpace(number) == "" {
			return fmt.Errorf("case number must not be empty")
		}
		if cs.Transcript == "" {
			return fmt.Errorf("case %s: transcript is required", number)
		}
	}

	if c.Events.Enabled && c.Events.Address == "" {
		return fmt.Errorf("events.address is required when events are enabled")
	}

	if c.Serve.ListenAddress == "" {
		return fmt.Errorf("serve.listen_address is required")
	}
	if c.Serve.PlaybackDuration < 0 {
		return fmt.Errorf("serve.playback_duration must not be negative")
	}
	if c.Serve.ShutdownTimeout <= 0 {
		return fmt.Errorf("serve.shutdown_timeout must be positive")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// ResolveCase returns the configured case with the given number.
func (c *CLIConfig) ResolveCase(number string) (CaseConfig, error) {
	cs, ok := c.Cases[strings.TrimSpace(number)]
	if !ok {
		return CaseConfig{}, &auerrors.NotFoundError{Kind: auerrors.KindCase, Key: number}
	}
	cs.Transcript = ExpandPath(cs.Transcript)
	cs.Video = ExpandPath(cs.Video)
	return cs, nil
}

// CaseNumbers returns the configured case numbers in sorted order.
func (c *CLIConfig) CaseNumbers() []string {
	out := make([]string, 0, len(c.Cases))
	for n := range c.Cases {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// GetUser returns the configured edit author, falling back to the OS user.
func (c *CLIConfig) GetUser() string {
	if c.User != "" {
		return c.User
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return DefaultUser
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	// Ensure config directory exists.
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	window := cfg.ContextWindow
	fileCfg := configFile{
		OutputFormat:  cfg.OutputFormat,
		Debug:         cfg.Debug,
		LogJSON:       cfg.LogJSON,
		User:          cfg.User,
		ContextWindow: &window,
		Markers:       cfg.Markers,
		Palette:       cfg.Palette,
		DefaultColor:  cfg.DefaultColor,
		Cases:         cfg.Cases,
		Events:        &cfg.Events,
		Serve: &serveFile{
			ListenAddress:   cfg.Serve.ListenAddress,
			ShutdownTimeout: cfg.Serve.ShutdownTimeout.String(),
		},
	}
	if cfg.Serve.PlaybackDuration > 0 {
		fileCfg.Serve.PlaybackDuration = cfg.Serve.PlaybackDuration.String()
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
