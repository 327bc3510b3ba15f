// Package env loads the process configuration. Values are layered: struct
// defaults, then an optional YAML file, then environment variables. A .env
// file in the working directory is read into the environment first.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/puoklam/connectly-backend/validation"
)

// ConfigPathEnvVar overrides the YAML config location.
const ConfigPathEnvVar = "CONFIG_PATH"

const defaultConfigPath = "config.yaml"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=postgres sqlite"`
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=0"`
}

type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret" validate:"required"`
	TokenTTL     time.Duration `koanf:"token_ttl" validate:"gt=0"`
	CookieName   string        `koanf:"cookie_name" validate:"required"`
	CookieSecure bool          `koanf:"cookie_secure"`
	BcryptCost   int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

type CORSConfig struct {
	Origins []string `koanf:"origins"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=1"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
	Disabled bool          `koanf:"disabled"`
}

type RecommendConfig struct {
	Limit int `koanf:"limit" validate:"min=1"`
}

type EventsConfig struct {
	Broker string `koanf:"broker" validate:"omitempty,oneof=nsq nats"`
	Addr   string `koanf:"addr" validate:"required_with=Broker"`
	Topic  string `koanf:"topic" validate:"required"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8800,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			CookieName: "access_token",
			BcryptCost: 10,
		},
		CORS: CORSConfig{
			Origins: []string{"https://connectly-front-end.vercel.app"},
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		Recommend: RecommendConfig{
			Limit: 5,
		},
		Events: EventsConfig{
			Topic: "friend-graph",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envKeys maps environment variables to config paths. Unlisted variables
// are ignored.
var envKeys = map[string]string{
	"APP_PORT":            "server.port",
	"SERVER_PORT":         "server.port",
	"SERVER_HOST":         "server.host",
	"DB_DRIVER":           "database.driver",
	"DB_CONN":             "database.dsn",
	"DATABASE_DSN":        "database.dsn",
	"DB_MAX_OPEN_CONNS":   "database.max_open_conns",
	"JWT":                 "auth.jwt_secret",
	"JWT_SECRET":          "auth.jwt_secret",
	"TOKEN_TTL":           "auth.token_ttl",
	"COOKIE_NAME":         "auth.cookie_name",
	"COOKIE_SECURE":       "auth.cookie_secure",
	"BCRYPT_COST":         "auth.bcrypt_cost",
	"FRONTEND_URL":        "cors.origins",
	"CORS_ORIGINS":        "cors.origins",
	"RATE_LIMIT_REQUESTS": "rate_limit.requests",
	"RATE_LIMIT_WINDOW":   "rate_limit.window",
	"RATE_LIMIT_DISABLED": "rate_limit.disabled",
	"RECOMMEND_LIMIT":     "recommend.limit",
	"EVENTS_BROKER":       "events.broker",
	"EVENTS_ADDR":         "events.addr",
	"EVENTS_TOPIC":        "events.topic",
	"LOG_LEVEL":           "logging.level",
	"LOG_FORMAT":          "logging.format",
}

// Load builds the configuration from defaults, the config file and the
// environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := os.Getenv(ConfigPathEnvVar)
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(kenv.Provider("", ".", func(key string) string {
		return envKeys[key]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if v, ok := k.Get("cors.origins").(string); ok {
		if err := k.Set("cors.origins", splitList(v)); err != nil {
			return nil, fmt.Errorf("parse cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
