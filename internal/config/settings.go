package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadSettings.
const (
	EnvConfigFile      = "EMPIRE_SEARCH_CONFIG"
	EnvServerURL       = "EMPIRE_SEARCH_URL"
	EnvSocketPath      = "EMPIRE_SEARCH_PATH"
	EnvNamespace       = "EMPIRE_SEARCH_NAMESPACE"
	EnvConnectTimeout  = "EMPIRE_SEARCH_CONNECT_TIMEOUT"
	EnvResponseTimeout = "EMPIRE_SEARCH_RESPONSE_TIMEOUT"
	EnvRecover         = "EMPIRE_SEARCH_RECOVER"
	EnvLogLevel        = "EMPIRE_SEARCH_LOG"
)

// Settings is the file and environment configuration of the command-line client.
type Settings struct {
	ServerURL              string `yaml:"server_url"`
	SocketPath             string `yaml:"socket_path"`
	Namespace              string `yaml:"namespace"`
	ConnectTimeout         string `yaml:"connect_timeout"`
	ResponseTimeout        string `yaml:"response_timeout"`
	RecoverTransportErrors bool   `yaml:"recover_transport_errors"`
	LogLevel               string `yaml:"log_level"`
}

// LoadSettings reads settings from the YAML file named by EMPIRE_SEARCH_CONFIG,
// if set, and then applies environment overrides.
func LoadSettings(getenv func(string) string) (*Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	settings := &Settings{}

	if path := getenv(EnvConfigFile); path != "" {
		loaded, err := LoadSettingsFile(path)
		if err != nil {
			return nil, err
		}

		settings = loaded
	}

	if err := settings.applyEnv(getenv); err != nil {
		return nil, err
	}

	return settings, nil
}

// LoadSettingsFile reads settings from a YAML file.
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &settings, nil
}

func (s *Settings) applyEnv(getenv func(string) string) error {
	overrideString(&s.ServerURL, getenv(EnvServerURL))
	overrideString(&s.SocketPath, getenv(EnvSocketPath))
	overrideString(&s.Namespace, getenv(EnvNamespace))
	overrideString(&s.ConnectTimeout, getenv(EnvConnectTimeout))
	overrideString(&s.ResponseTimeout, getenv(EnvResponseTimeout))
	overrideString(&s.LogLevel, getenv(EnvLogLevel))

	if v := getenv(EnvRecover); v != "" {
		recoverErrors, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRecover, err)
		}

		s.RecoverTransportErrors = recoverErrors
	}

	return nil
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Options converts the settings into client options.
// Unset fields keep their defaults.
func (s *Settings) Options() (*Options, error) {
	opts := &Options{
		ServerURL:              s.ServerURL,
		SocketPath:             s.SocketPath,
		Namespace:              s.Namespace,
		RecoverTransportErrors: s.RecoverTransportErrors,
	}

	var err error

	if opts.ConnectTimeout, err = parseDuration("connect_timeout", s.ConnectTimeout); err != nil {
		return nil, err
	}

	if opts.ResponseTimeout, err = parseDuration("response_timeout", s.ResponseTimeout); err != nil {
		return nil, err
	}

	return opts, nil
}

// Level returns the configured log level, defaulting to error.
func (s *Settings) Level() (slog.Level, error) {
	return ParseLevel(s.LogLevel)
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, v)
	}

	return d, nil
}

// ParseLevel parses a log level name. An empty string means error.
func ParseLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug", "trace":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", v)
	}
}
