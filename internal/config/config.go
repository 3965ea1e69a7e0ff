package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Locale   LocaleConfig   `yaml:"locale"`
	Features FeaturesConfig `yaml:"features"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Медиасервис"`
	Description string `yaml:"description" default:"Новости и статьи"`
}

type ServerConfig struct {
	Host     string `yaml:"host" default:"0.0.0.0"`
	Port     string `yaml:"port" default:"12600"`
	Compress bool   `yaml:"compress" default:"true"`
}

type APIConfig struct {
	BaseURL      string        `yaml:"base_url" default:"http://localhost:8000/api"`
	PostsPerPage int           `yaml:"posts_per_page" default:"9"`
	Timeout      time.Duration `yaml:"timeout" default:"15s"`
}

type SessionConfig struct {
	Store      string        `yaml:"store" default:"memory"`
	CookieName string        `yaml:"cookie_name" default:"mediafront_session"`
	TTL        time.Duration `yaml:"ttl" default:"24h"`
	SQLitePath string        `yaml:"sqlite_path" default:"./sessions.db"`
	RedisAddr  string        `yaml:"redis_addr" default:"localhost:6379"`
	// Codec compresses persisted state: zstd or gzip.
	Codec string `yaml:"codec" default:"zstd"`
}

type LocaleConfig struct {
	Language string `yaml:"language" default:"ru"`
	Timezone string `yaml:"timezone" default:"Local"`
}

type FeaturesConfig struct {
	LiveViews FeatureFlag `yaml:"live_views"`
	Metrics   FeatureFlag `yaml:"metrics"`
}

type FeatureFlag struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

var AppConfig *Config

// Default returns a configuration with every default tag applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(path string) error {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.PostsPerPage <= 0 {
		return fmt.Errorf("api.posts_per_page must be positive, got %d", c.API.PostsPerPage)
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreSQLite, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	switch c.Session.Codec {
	case CodecZstd, CodecGzip:
	default:
		return fmt.Errorf("unknown session codec %q", c.Session.Codec)
	}
	if _, err := c.Locale.Location(); err != nil {
		return fmt.Errorf("invalid locale.timezone: %w", err)
	}
	return nil
}

// Location resolves the configured time zone used for post dates.
func (l LocaleConfig) Location() (*time.Location, error) {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(l.Timezone)
}

var envOverrides = []struct {
	key   string
	apply func(*Config, string)
}{
	{"MEDIAFRONT_API_BASE_URL", func(c *Config, v string) { c.API.BaseURL = v }},
	{"MEDIAFRONT_PORT", func(c *Config, v string) { c.Server.Port = v }},
	{"MEDIAFRONT_SESSION_STORE", func(c *Config, v string) { c.Session.Store = v }},
	{"MEDIAFRONT_REDIS_ADDR", func(c *Config, v string) { c.Session.RedisAddr = v }},
	{"MEDIAFRONT_LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = v }},
}

func applyEnvOverrides(config *Config) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			o.apply(config, v)
		}
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
