package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/deptsummary/internal/platform/envutil"
)

const (
	DefaultSourceURL = "https://dummyjson.com/users"
	EnvConfigPath    = "DEPTSUMMARY_CONFIG_PATH"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, line %d", node.Line)
	}
	if node.ShortTag() == "!!int" {
		n, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		Source: SourceConfig{
			URL:          DefaultSourceURL,
			Timeout:      Duration{Duration: 30 * time.Second},
			MaxRetries:   0,
			MaxBodyBytes: 8 << 20,
		},
		Output: OutputConfig{Format: "json"},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
		},
		Redis: RedisConfig{
			Channel: "deptsummary",
			Key:     "deptsummary:latest",
			TTL:     Duration{Duration: time.Hour},
		},
		Tracing: TracingConfig{SampleRatio: 0.1},
	}
}

// Load builds the configuration from defaults, an optional YAML or JSON file,
// and environment overrides, in that order. An empty path falls back to
// DEPTSUMMARY_CONFIG_PATH and then ./config/deptsummary.{yaml,yml,json}.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(path)
	if cfgPath == "" {
		cfgPath = envutil.String(EnvConfigPath, "")
	}
	if cfgPath == "" {
		cfgPath = discoverConfigFile()
	}
	if cfgPath != "" {
		if err := readFile(cfgPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func discoverConfigFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"deptsummary.yaml", "deptsummary.yml", "deptsummary.json"} {
		p := filepath.Join(wd, "config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, cfg)
	default:
		err = yaml.Unmarshal(b, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	cfg.Source.URL = envutil.String("DEPTSUMMARY_SOURCE_URL", cfg.Source.URL)
	cfg.Source.APIKey = envutil.String("DEPTSUMMARY_SOURCE_API_KEY", cfg.Source.APIKey)
	cfg.Source.Timeout.Duration = envutil.Duration("DEPTSUMMARY_SOURCE_TIMEOUT", cfg.Source.Timeout.Duration)
	cfg.Source.MaxRetries = envutil.Int("DEPTSUMMARY_SOURCE_RETRIES", cfg.Source.MaxRetries)
	if v := envutil.String("DEPTSUMMARY_SOURCE_LIMIT", ""); v != "" {
		if cfg.Source.Query == nil {
			cfg.Source.Query = map[string]string{}
		}
		cfg.Source.Query["limit"] = v
	}

	cfg.Output.Format = envutil.String("DEPTSUMMARY_FORMAT", cfg.Output.Format)
	cfg.HTTP.Addr = envutil.String("DEPTSUMMARY_HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Tracing.Headers)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRatio = f
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.Source.URL) == "" {
		return errors.New("source.url is required")
	}
	u, err := url.Parse(cfg.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.url must be an absolute http(s) url, got %q", cfg.Source.URL)
	}
	if cfg.Source.MaxRetries < 0 {
		return fmt.Errorf("source.max_retries must be >= 0, got %d", cfg.Source.MaxRetries)
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	switch cfg.Output.Format {
	case "":
		cfg.Output.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("output.format must be json or text, got %q", cfg.Output.Format)
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	return nil
}
