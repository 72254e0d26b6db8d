package config

import "time"

type Duration struct {
	Duration time.Duration
}

type SourceConfig struct {
	URL    string `json:"url" yaml:"url"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Query is merged into the source URL. dummyjson pages at 30 users;
	// {"limit": "0"} asks for the whole collection.
	Query map[string]string `json:"query,omitempty" yaml:"query,omitempty"`

	Timeout      Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries   int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	MaxBodyBytes int64    `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty"`
}

type OutputConfig struct {
	// Format is "json" or "text".
	Format string `json:"format" yaml:"format"`
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowOrigins      []string `json:"allow_origins,omitempty" yaml:"allow_origins,omitempty"`
}

type RedisConfig struct {
	// Addr enables the publish sink when set.
	Addr     string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int      `json:"db,omitempty" yaml:"db,omitempty"`
	Channel  string   `json:"channel,omitempty" yaml:"channel,omitempty"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	TTL      Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Headers     string  `json:"headers,omitempty" yaml:"headers,omitempty"`
	Insecure    bool    `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRatio float64 `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`
}

type Config struct {
	Env     string        `json:"env" yaml:"env"`
	Source  SourceConfig  `json:"source" yaml:"source"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	HTTP    HTTPConfig    `json:"http" yaml:"http"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
