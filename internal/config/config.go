// Package config loads connection and table options.
//
// Options come from YAML or TOML files, or from the string-valued option
// map a foreign-table definition carries ("hosts", "columnfamily",
// "allow_filtering" = "True", ...). Every source is checked against an
// embedded CUE schema before it is decoded, then against the Go-level rules
// in Validate.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Defaults applied before any source is decoded.
const (
	DefaultHost              = "localhost"
	DefaultPort              = 9042
	DefaultModifyConcurrency = 4
	DefaultBatchThreshold    = 100
	DefaultConnectionTimeout = 10 * time.Second
	DefaultConsistency       = "LOCAL_QUORUM"
)

// Config holds every option the bridge understands.
type Config struct {
	Hosts    []string `yaml:"hosts" toml:"hosts"`
	Port     int      `yaml:"port" toml:"port"`
	Username string   `yaml:"username" toml:"username"`
	Password string   `yaml:"password" toml:"password"`

	Keyspace string `yaml:"keyspace" toml:"keyspace"`
	Table    string `yaml:"table" toml:"table"`

	// Query replaces the generated SELECT when set.
	Query string `yaml:"query" toml:"query"`

	Limit          int  `yaml:"limit" toml:"limit"`
	AllowFiltering bool `yaml:"allow_filtering" toml:"allow_filtering"`
	PrepareSelects bool `yaml:"prepare_selects" toml:"prepare_selects"`
	Trace          bool `yaml:"trace" toml:"trace"`

	// TTL in seconds applied to inserts. Zero disables it.
	TTL int `yaml:"ttl" toml:"ttl"`

	Timeout           Duration `yaml:"timeout" toml:"timeout"`
	ConnectionTimeout Duration `yaml:"connection_timeout" toml:"connection_timeout"`
	Consistency       string   `yaml:"consistency" toml:"consistency"`

	ModifyConcurrency        int  `yaml:"modify_concurrency" toml:"modify_concurrency"`
	BatchThreshold           int  `yaml:"batch_threshold" toml:"batch_threshold"`
	PerTransactionConnection bool `yaml:"per_transaction_connection" toml:"per_transaction_connection"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// Defaulted lists options that were missing and filled with defaults.
	Defaulted []string `yaml:"-" toml:"-"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Port:              DefaultPort,
		PrepareSelects:    true,
		ConnectionTimeout: Duration(DefaultConnectionTimeout),
		Consistency:       DefaultConsistency,
		ModifyConcurrency: DefaultModifyConcurrency,
		BatchThreshold:    DefaultBatchThreshold,
	}
}

// Validate applies the rules the schema cannot express and fills the host
// list when it is empty.
func (c *Config) Validate() error {
	if c.Keyspace == "" {
		return errors.New("keyspace is required")
	}
	if len(c.Hosts) == 0 {
		c.Hosts = []string{DefaultHost}
		c.Defaulted = append(c.Defaulted, "hosts")
	}
	if c.ModifyConcurrency < 1 {
		return errors.Newf("modify_concurrency must be at least 1, got %d", c.ModifyConcurrency)
	}
	if c.BatchThreshold < 1 {
		return errors.Newf("batch_threshold must be at least 1, got %d", c.BatchThreshold)
	}
	return nil
}

// Duration is a time.Duration that decodes from "1.5s" style text or from
// a bare number of seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseDuration accepts Go duration syntax or a number of seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0, errors.Newf("negative duration %q", s)
		}
		return Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	if d < 0 {
		return 0, errors.Newf("negative duration %q", s)
	}
	return Duration(d), nil
}
