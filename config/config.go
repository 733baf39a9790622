package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyTimeSourceURL      = "time_source.url"
	KeyTimeSourceToken    = "time_source.token"
	KeyTimeSourcePageSize = "time_source.page_size"
	KeyJobSourceURL       = "job_source.url"
	KeyJobSourceToken     = "job_source.token"
	KeyJobSourcePageSize  = "job_source.page_size"
	KeyCachePath          = "cache.path"
	KeyRangeDefaultDays   = "range.default_days"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
	KeyServerPort         = "server.port"
)

type Config struct {
	TimeSource SourceConfig `mapstructure:"time_source" yaml:"time_source" validate:"required"`
	JobSource  SourceConfig `mapstructure:"job_source" yaml:"job_source" validate:"required"`
	Cache      CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Range      RangeConfig  `mapstructure:"range" yaml:"range"`
	Log        LogConfig    `mapstructure:"log" yaml:"log"`
	Server     ServerConfig `mapstructure:"server" yaml:"server"`
}

type SourceConfig struct {
	URL string `mapstructure:"url" yaml:"url" validate:"required,url"`
	// Token is usually supplied through JOBCOST_*_TOKEN or a .env file.
	Token    string `mapstructure:"token" yaml:"token"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size" validate:"gte=1,lte=1000"`
}

type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

type RangeConfig struct {
	DefaultDays int `mapstructure:"default_days" yaml:"default_days" validate:"gte=1,lte=3660"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled none off"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=auto json console"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port" validate:"gte=1,lte=65535"`
}

// Redacted returns a copy with tokens masked for display.
func (c Config) Redacted() Config {
	out := c
	out.TimeSource.Token = maskToken(c.TimeSource.Token)
	out.JobSource.Token = maskToken(c.JobSource.Token)
	return out
}

func maskToken(token string) string {
	if strings.TrimSpace(token) == "" {
		return ""
	}
	return "********"
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# jobcost configuration
# Tokens can stay out of this file: set JOBCOST_TIME_SOURCE_TOKEN and
# JOBCOST_JOB_SOURCE_TOKEN in the environment or in a .env file.
time_source:
  url: "http://localhost:8081"
  page_size: 200

job_source:
  url: "http://localhost:8082"
  page_size: 200

cache:
  path: "./jobcost.db"

range:
  default_days: 30

log:
  level: "info"
  format: "auto"

server:
  port: 8080
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTimeSourceURL, "http://localhost:8081")
	v.SetDefault(KeyTimeSourceToken, "")
	v.SetDefault(KeyTimeSourcePageSize, 200)
	v.SetDefault(KeyJobSourceURL, "http://localhost:8082")
	v.SetDefault(KeyJobSourceToken, "")
	v.SetDefault(KeyJobSourcePageSize, 200)
	v.SetDefault(KeyCachePath, "./jobcost.db")
	v.SetDefault(KeyRangeDefaultDays, 30)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyServerPort, 8080)
}
