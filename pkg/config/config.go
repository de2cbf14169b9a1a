// Package config loads server and CLI settings from flags, environment
// variables (BLOBDB_<KEY>, with dashes as underscores) and .env files.
package config

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/adfharrison1/go-blobdb/pkg/records"
	"github.com/adfharrison1/go-blobdb/pkg/storage"
)

const envPrefix = "blobdb"

// Setting keys
const (
	KeyPort             = "port"
	KeyBackend          = "backend"
	KeyDataFile         = "data-file"
	KeyMergeWrites      = "merge-writes"
	KeyForce            = "force"
	KeySQLitePath       = "sqlite-path"
	KeySlot             = "slot"
	KeyHTTPURL          = "http-url"
	KeyHTTPRetries      = "http-retries"
	KeyHTTPHeaders      = "http-headers"
	KeyConcurrentWrites = "concurrent-writes"
	KeyRetryMaxAttempts = "retry-max-attempts"
	KeyRetryBaseDelay   = "retry-base-delay"
	KeyLogLevel         = "log-level"
	KeyLogJSON          = "log-json"
)

var backends = []string{"memory", "file", "godb", "sqlite", "http"}

// Config holds the resolved settings
type Config struct {
	Port             string
	Backend          string
	DataFile         string
	MergeWrites      bool
	Force            bool
	SQLitePath       string
	Slot             string
	HTTPURL          string
	HTTPRetries      int
	HTTPHeaders      map[string]string
	ConcurrentWrites bool
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	LogLevel         string
	LogJSON          bool

	v *viper.Viper
}

// RegisterFlags adds every setting as a flag with its default value
func RegisterFlags(flags *pflag.FlagSet) {
	policy := records.DefaultRetryPolicy()

	flags.String(KeyPort, "8080", "Server port")
	flags.String(KeyBackend, "memory", "Storage backend (memory, file, godb, sqlite, http)")
	flags.String(KeyDataFile, "go-blobdb_data.json", "Data file path for the file and godb backends")
	flags.Bool(KeyMergeWrites, true, "Keep collections on disk that are missing from a written document (file and godb backends)")
	flags.Bool(KeyForce, false, "Disable write conflict detection (memory, sqlite and http backends)")
	flags.String(KeySQLitePath, "go-blobdb.sqlite", "Database path for the sqlite backend")
	flags.String(KeySlot, "default", "Slot name for the sqlite backend")
	flags.String(KeyHTTPURL, "", "Slot URL for the http backend")
	flags.Int(KeyHTTPRetries, 2, "Transport retries for the http backend")
	flags.StringToString(KeyHTTPHeaders, nil, "Extra headers for the http backend (key=value,...)")
	flags.Bool(KeyConcurrentWrites, true, "Run writes concurrently; when false, writes are queued and run one at a time")
	flags.Int(KeyRetryMaxAttempts, policy.MaxAttempts, "Maximum attempts of a write that lost a conflict")
	flags.Duration(KeyRetryBaseDelay, policy.BaseDelay, "Delay before the first retry of a conflicting write")
	flags.String(KeyLogLevel, "info", "Log level (trace, debug, info, warn, error)")
	flags.Bool(KeyLogJSON, false, "Write logs as JSON")
}

// LoadEnvFiles loads .env and .env.local from the working directory, if present
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load resolves the settings from flags and environment variables. Flags
// that were set explicitly win over the environment, which wins over flag
// defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	headers, err := stringMapSetting(v, KeyHTTPHeaders)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             v.GetString(KeyPort),
		Backend:          v.GetString(KeyBackend),
		DataFile:         v.GetString(KeyDataFile),
		MergeWrites:      v.GetBool(KeyMergeWrites),
		Force:            v.GetBool(KeyForce),
		SQLitePath:       v.GetString(KeySQLitePath),
		Slot:             v.GetString(KeySlot),
		HTTPURL:          v.GetString(KeyHTTPURL),
		HTTPRetries:      v.GetInt(KeyHTTPRetries),
		HTTPHeaders:      headers,
		ConcurrentWrites: v.GetBool(KeyConcurrentWrites),
		RetryMaxAttempts: v.GetInt(KeyRetryMaxAttempts),
		RetryBaseDelay:   v.GetDuration(KeyRetryBaseDelay),
		LogLevel:         v.GetString(KeyLogLevel),
		LogJSON:          v.GetBool(KeyLogJSON),
		v:                v,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringMapSetting reads a key=value map setting. Flags arrive already parsed;
// environment values are raw strings in the flag syntax, k1=v1,k2=v2.
func stringMapSetting(v *viper.Viper, key string) (map[string]string, error) {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringMapString(key), nil
	}

	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]"))
	result := make(map[string]string)
	if raw == "" {
		return result, nil
	}

	pairs, err := csv.NewReader(strings.NewReader(raw)).Read()
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	for _, pair := range pairs {
		k, val, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid %s entry %q: must be formatted as key=value", key, pair)
		}
		result[strings.TrimSpace(k)] = val
	}
	return result, nil
}

// Validate checks that the settings can be used to build a provider
func (c *Config) Validate() error {
	known := false
	for _, backend := range backends {
		if c.Backend == backend {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("invalid backend %q (supported: %s)", c.Backend, strings.Join(backends, ", "))
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyRetryMaxAttempts, c.RetryMaxAttempts)
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyRetryBaseDelay, c.RetryBaseDelay)
	}
	if c.HTTPRetries < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyHTTPRetries, c.HTTPRetries)
	}
	if c.Backend == "http" && c.HTTPURL == "" {
		return fmt.Errorf("%s is required for the http backend", KeyHTTPURL)
	}
	return nil
}

// Setting returns the raw value of any setting by key, or nil if it is unknown
func (c *Config) Setting(key string) interface{} {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// StorageConfig returns the backend selection for storage.New
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:     c.Backend,
		DataFile:    c.DataFile,
		MergeWrites: c.MergeWrites,
		Force:       c.Force,
		SQLitePath:  c.SQLitePath,
		Slot:        c.Slot,
		HTTPURL:     c.HTTPURL,
		HTTPRetries: c.HTTPRetries,
		HTTPHeaders: c.HTTPHeaders,
	}
}

// RetryPolicy returns the write retry policy
func (c *Config) RetryPolicy() records.RetryPolicy {
	return records.RetryPolicy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
		Factor:      records.DefaultRetryPolicy().Factor,
	}
}
