package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configDir  = ".config/exati"
	configName = "config"
	configType = "toml"
	dotEnvFile = ".env"
	envPrefix  = "EXATI"

	KeyBackendURL            = "backend.url"
	KeyBackendCredentials    = "backend.credentials"
	KeyBackendCredentialsRef = "backend.credentials_ref"
	KeyBackendMaxAttempts    = "backend.max_attempts"
	KeyBackendBaseDelay      = "backend.base_delay"
	KeyBackendRequestTimeout = "backend.request_timeout"
	KeyBackendRateLimit      = "backend.rate_limit"
	KeyBackendRateBurst      = "backend.rate_burst"
	KeyLoggingLevel          = "logging.level"
	KeyLoggingFormat         = "logging.format"
	KeySecretsDir            = "secrets.dir"

	DefaultCredentialsRef = "exati/credentials"
)

// Keys that also answer to the variable names used by existing deployments.
var envAliases = map[string][]string{
	KeyBackendURL:         {"EXATI_URL"},
	KeyBackendCredentials: {"EXATI_USER_PASS"},
	KeyLoggingLevel:       {"EXATI_LOG_LEVEL"},
	KeyLoggingFormat:      {"EXATI_LOG_FORMAT"},
}

var allKeys = []string{
	KeyBackendURL,
	KeyBackendCredentials,
	KeyBackendCredentialsRef,
	KeyBackendMaxAttempts,
	KeyBackendBaseDelay,
	KeyBackendRequestTimeout,
	KeyBackendRateLimit,
	KeyBackendRateBurst,
	KeyLoggingLevel,
	KeyLoggingFormat,
	KeySecretsDir,
}

type Config struct {
	Backend BackendConfig
	Logging LoggingConfig
	Secrets SecretsConfig
}

type BackendConfig struct {
	URL string
	// Credentials is the user:password pair. When empty it is read from the
	// secret store under CredentialsRef.
	Credentials    string
	CredentialsRef string
	MaxAttempts    int
	BaseDelay      time.Duration
	RequestTimeout time.Duration
	// RateLimit is in requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type SecretsConfig struct {
	Dir string
}

// New returns a viper instance reading, from highest to lowest precedence,
// environment variables, a .env file in workDir, the TOML config file under
// homeDir and the defaults.
func New(homeDir, workDir string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyBackendCredentialsRef, DefaultCredentialsRef)
	v.SetDefault(KeyBackendMaxAttempts, 4)
	v.SetDefault(KeyBackendBaseDelay, 250*time.Millisecond)
	v.SetDefault(KeyBackendRequestTimeout, 30*time.Second)
	v.SetDefault(KeyBackendRateLimit, 0)
	v.SetDefault(KeyBackendRateBurst, 1)
	v.SetDefault(KeyLoggingLevel, "info")
	v.SetDefault(KeyLoggingFormat, "text")
	v.SetDefault(KeySecretsDir, filepath.Join(homeDir, configDir, "secrets"))

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(homeDir, configDir))
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := mergeDotEnv(v, filepath.Join(workDir, dotEnvFile)); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, envName(key)}, names...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	return v, nil
}

// mergeDotEnv lays the variables of a .env file over the config file values.
func mergeDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dotEnv := viper.New()
	dotEnv.SetConfigFile(path)
	dotEnv.SetConfigType("env")
	if err := dotEnv.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	merged := map[string]any{}
	for _, key := range allKeys {
		names := append([]string{envName(key)}, envAliases[key]...)
		for _, name := range names {
			if !dotEnv.IsSet(strings.ToLower(name)) {
				continue
			}
			setNested(merged, key, dotEnv.Get(strings.ToLower(name)))
			break
		}
	}
	if len(merged) == 0 {
		return nil
	}

	if err := v.MergeConfigMap(merged); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the configuration.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("config source is nil")
	}

	cfg := Config{
		Backend: BackendConfig{
			URL:            strings.TrimSpace(v.GetString(KeyBackendURL)),
			Credentials:    strings.TrimSpace(v.GetString(KeyBackendCredentials)),
			CredentialsRef: strings.TrimSpace(v.GetString(KeyBackendCredentialsRef)),
			MaxAttempts:    v.GetInt(KeyBackendMaxAttempts),
			BaseDelay:      v.GetDuration(KeyBackendBaseDelay),
			RequestTimeout: v.GetDuration(KeyBackendRequestTimeout),
			RateLimit:      v.GetFloat64(KeyBackendRateLimit),
			RateBurst:      v.GetInt(KeyBackendRateBurst),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLoggingLevel))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString(KeyLoggingFormat))),
		},
		Secrets: SecretsConfig{
			Dir: strings.TrimSpace(v.GetString(KeySecretsDir)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Backend.CredentialsRef == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyBackendCredentialsRef))
	}
	if c.Backend.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyBackendMaxAttempts, c.Backend.MaxAttempts))
	}
	if c.Backend.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyBackendBaseDelay))
	}
	if c.Backend.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyBackendRequestTimeout))
	}
	if c.Backend.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyBackendRateLimit))
	}
	if c.Backend.RateLimit > 0 && c.Backend.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1 when %s is set", KeyBackendRateBurst, KeyBackendRateLimit))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("unsupported %s %q", KeyLoggingFormat, c.Logging.Format))
	}
	if c.Secrets.Dir == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeySecretsDir))
	}
	return errors.Join(errs...)
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func setNested(target map[string]any, key string, value any) {
	section, leaf, ok := strings.Cut(key, ".")
	if !ok {
		target[key] = value
		return
	}
	child, ok := target[section].(map[string]any)
	if !ok {
		child = map[string]any{}
		target[section] = child
	}
	setNested(child, leaf, value)
}
