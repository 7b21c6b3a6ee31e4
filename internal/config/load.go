package config

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// UnmarshalYAML decodes a scalar node through UnmarshalText so bare numbers
// are read as seconds.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: duration must be a scalar", n.Line)
	}
	return d.UnmarshalText([]byte(n.Value))
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return Config{}, errors.Newf("unsupported config format %q", filepath.Ext(path))
	}
}

// ParseYAML decodes YAML bytes. Unknown fields are rejected.
func ParseYAML(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, errors.Wrap(err, "parse yaml config")
	}
	if err := checkSchema(raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode yaml config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseTOML decodes TOML bytes. Unknown keys are rejected.
func ParseTOML(data []byte) (Config, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return Config{}, errors.Wrap(err, "parse toml config")
	}
	if err := checkSchema(raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode toml config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Newf("unknown config keys: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromOptions decodes the string option map of a table definition.
// Booleans accept "True"/"true"/"1"; "columnfamily" names the table;
// "hosts" is a comma-separated list. Missing hosts and port are defaulted
// and reported in Config.Defaulted.
func FromOptions(opts map[string]string) (Config, error) {
	raw := make(map[string]any, len(opts))
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := opts[k]
		if k == "columnfamily" {
			k = "table"
		}
		switch k {
		case "hosts":
			hosts := []any{}
			for _, h := range strings.Split(v, ",") {
				if h = strings.TrimSpace(h); h != "" {
					hosts = append(hosts, h)
				}
			}
			raw[k] = hosts
		case "port", "limit", "ttl", "modify_concurrency", "batch_threshold":
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return Config{}, errors.Newf("option %s: %q is not an integer", k, v)
			}
			raw[k] = n
		case "allow_filtering", "prepare_selects", "trace", "per_transaction_connection":
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return Config{}, errors.Newf("option %s: %q is not a boolean", k, v)
			}
			raw[k] = b
		default:
			raw[k] = v
		}
	}
	if err := checkSchema(raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if _, ok := raw["port"]; !ok {
		cfg.Defaulted = append(cfg.Defaulted, "port")
	}
	for k, v := range raw {
		if err := cfg.set(k, v); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) set(key string, v any) error {
	switch key {
	case "hosts":
		c.Hosts = nil
		for _, h := range v.([]any) {
			c.Hosts = append(c.Hosts, h.(string))
		}
	case "port":
		c.Port = v.(int)
	case "username":
		c.Username = v.(string)
	case "password":
		c.Password = v.(string)
	case "keyspace":
		c.Keyspace = v.(string)
	case "table":
		c.Table = v.(string)
	case "query":
		c.Query = v.(string)
	case "limit":
		c.Limit = v.(int)
	case "allow_filtering":
		c.AllowFiltering = v.(bool)
	case "prepare_selects":
		c.PrepareSelects = v.(bool)
	case "trace":
		c.Trace = v.(bool)
	case "ttl":
		c.TTL = v.(int)
	case "timeout", "connection_timeout":
		d, err := ParseDuration(v.(string))
		if err != nil {
			return errors.Wrapf(err, "option %s", key)
		}
		if key == "timeout" {
			c.Timeout = d
		} else {
			c.ConnectionTimeout = d
		}
	case "consistency":
		c.Consistency = v.(string)
	case "modify_concurrency":
		c.ModifyConcurrency = v.(int)
	case "batch_threshold":
		c.BatchThreshold = v.(int)
	case "per_transaction_connection":
		c.PerTransactionConnection = v.(bool)
	case "log_level":
		c.LogLevel = v.(string)
	case "log_format":
		c.LogFormat = v.(string)
	default:
		return errors.Newf("unknown option %q", key)
	}
	return nil
}

// checkSchema validates a decoded option tree against the embedded CUE
// definition. The definition is closed, so unknown keys fail too.
func checkSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return errors.Wrap(err, "compile config schema")
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if raw == nil {
		raw = map[string]any{}
	}
	data := ctx.Encode(raw)
	if err := data.Err(); err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
