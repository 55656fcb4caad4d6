// Package config loads the process settings from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageLocal  = "local"
	StorageS3     = "s3"
	StorageMemory = "memory"
)

// Config is the full set of settings of the portal.
type Config struct {
	DatabaseURL   string        `mapstructure:"database_url"`
	Port          string        `mapstructure:"port"`
	OpenAIKey     string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	ChatModel     string        `mapstructure:"openai_model_chat"`
	SummaryModel  string        `mapstructure:"openai_model_summary"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
	MessageCap    int           `mapstructure:"message_cap"`

	StorageDriver string `mapstructure:"storage_driver"`
	StoragePath   string `mapstructure:"storage_path"`
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region"`
	S3Prefix      string `mapstructure:"s3_prefix"`

	NotifyChannel  string `mapstructure:"notify_channel"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
}

var defaults = map[string]interface{}{
	"database_url":         "",
	"port":                 "8080",
	"openai_api_key":       "",
	"openai_base_url":      "",
	"openai_model_chat":    "gpt-4o-mini",
	"openai_model_summary": "",
	"jwt_secret":           "",
	"session_ttl":          "12h",
	"secure_cookies":       false,
	"message_cap":          50,
	"storage_driver":       StorageLocal,
	"storage_path":         "./uploads",
	"s3_bucket":            "",
	"s3_region":            "us-east-1",
	"s3_prefix":            "",
	"notify_channel":       "content_changes",
	"jaeger_endpoint":      "",
	"log_level":            "info",
	"log_format":           "json",
}

// Load reads the settings.  Values from the environment win over the .env
// file, which wins over the config file at path (if any), which wins over
// the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var problems []string
	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.MessageCap <= 0 {
		problems = append(problems, "MESSAGE_CAP must be positive")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	switch c.StorageDriver {
	case StorageLocal, StorageMemory:
	case StorageS3:
		if c.S3Bucket == "" {
			problems = append(problems, "S3_BUCKET is required with the s3 storage driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger() (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = os.Stdout
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log.SetLevel(level)
	if c.LogFormat == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}
