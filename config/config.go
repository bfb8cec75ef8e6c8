package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backends a catalogue can be served from.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	CORS    CORSConfig    `yaml:"cors"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	GinMode        string        `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// StoreConfig selects and locates the record store
type StoreConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=postgres mongo memory"`
	DatabaseURL   string `yaml:"database_url" validate:"required_if=Backend postgres"`
	MongoURI      string `yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string `yaml:"mongo_database"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" validate:"min=1"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// envKeys names the variable behind each validated field, for error messages.
var envKeys = map[string]string{
	"Config.Server.Port":           "PORT",
	"Config.Server.GinMode":        "GIN_MODE",
	"Config.Server.RequestTimeout": "REQUEST_TIMEOUT",
	"Config.Store.Backend":         "STORE_BACKEND",
	"Config.Store.DatabaseURL":     "DATABASE_URL",
	"Config.Store.MongoURI":        "MONGO_URI",
	"Config.CORS.AllowedOrigins":   "CORS_ALLOWED_ORIGINS",
	"Config.Logging.Level":         "LOG_LEVEL",
	"Config.Logging.Format":        "LOG_FORMAT",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5000,
			RequestTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:  BackendMemory,
			MongoURI: "mongodb://localhost:27017/songdb",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. Process environment wins over .env, which
// wins over the YAML file named by SONGBOOK_CONFIG, which wins over defaults.
func Load() (*Config, error) {
	// A missing .env is fine; existing variables are never overridden.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("SONGBOOK_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if cfg.Store.MongoDatabase == "" {
		cfg.Store.MongoDatabase = databaseFromURI(cfg.Store.MongoURI)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = port
	}
	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		c.Server.RequestTimeout = d
	}

	setFromEnv(&c.Server.GinMode, "GIN_MODE")
	setFromEnv(&c.Store.Backend, "STORE_BACKEND")
	setFromEnv(&c.Store.DatabaseURL, "DATABASE_URL")
	setFromEnv(&c.Store.MongoURI, "MONGO_URI")
	setFromEnv(&c.Store.MongoDatabase, "MONGO_DATABASE")
	setFromEnv(&c.Logging.Level, "LOG_LEVEL")
	setFromEnv(&c.Logging.Format, "LOG_FORMAT")

	if originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS"); originsEnv != "" {
		origins := []string{}
		for _, origin := range strings.Split(originsEnv, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.CORS.AllowedOrigins = origins
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func describe(fe validator.FieldError) string {
	key, ok := envKeys[fe.Namespace()]
	if !ok {
		key = fe.Namespace()
	}
	switch fe.Tag() {
	case "required", "required_if":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "max":
		if key == "PORT" {
			return "PORT must be between 1 and 65535"
		}
		return fmt.Sprintf("%s must have %s %s", key, fe.Tag(), fe.Param())
	case "gt":
		return key + " must be positive"
	}
	return fmt.Sprintf("%s is invalid (%s)", key, fe.Tag())
}

// databaseFromURI takes the database name from the URI path, defaulting to
// songdb.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "songdb"
}

func setFromEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
