package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"tunefeed/storage"
)

// configFile is read from the working directory.
const configFile = ".config.json"

// envPrefix prefixes every environment variable that overrides a config value.
const envPrefix = "TUNEFEED_"

// Config holds the application's configuration.
type Config struct {
	Port     int            `json:"port"`
	Env      string         `json:"env"`
	Pepper   string         `json:"pepper"`
	HMACKey  string         `json:"hmac_key"`
	CSRFKey  string         `json:"csrf_key"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Log      LogConfig      `json:"log"`
}

// IsProd reports whether the app runs in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// DatabaseConfig selects and configures the database. Dialect is either "postgres" or "sqlite".
type DatabaseConfig struct {
	Dialect  string `json:"dialect"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	// Path is the database file of the sqlite dialect.
	Path string `json:"path"`
}

// ConnectionInfo returns the data source name for the configured dialect.
func (dc DatabaseConfig) ConnectionInfo() string {
	if dc.Dialect == "sqlite" {
		return dc.Path
	}
	if dc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", dc.Host, dc.Port, dc.User, dc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", dc.Host, dc.Port, dc.User, dc.Password, dc.Name)
}

// StorageConfig selects where uploaded media is kept. Backend is either "filesystem" or "minio".
type StorageConfig struct {
	Backend string              `json:"backend"`
	Dir     string              `json:"dir"`
	Minio   storage.MinioConfig `json:"minio"`
}

// LogConfig configures the logger. An empty File logs to the console only.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DefaultConfig returns the configuration of the default dev setup.
func DefaultConfig() Config {
	return Config{
		Port:    1111,
		Env:     "dev",
		Pepper:  "secret-random-string",
		HMACKey: "secret-hmac-key",
		Database: DatabaseConfig{
			Dialect: "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "tunefeed",
			Path:    "tunefeed.db",
		},
		Storage: StorageConfig{
			Backend: "filesystem",
			Dir:     "media",
			Minio: storage.MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "tunefeed-media",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads the configuration from .config.json on top of the defaults. If required
// is true, the file must exist. Afterwards a .env file is loaded, if present, and TUNEFEED_*
// environment variables override single values.
func LoadConfig(required bool) (Config, error) {
	c := DefaultConfig()
	f, err := os.Open(configFile)
	switch {
	case err == nil:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			return c, fmt.Errorf("err decoding %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return c, fmt.Errorf("err opening %s: %w", configFile, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("err loading .env: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

// applyEnv overrides config values with the ones set in the environment.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ENV":              &c.Env,
		"PEPPER":           &c.Pepper,
		"HMAC_KEY":         &c.HMACKey,
		"CSRF_KEY":         &c.CSRFKey,
		"DB_DIALECT":       &c.Database.Dialect,
		"DB_HOST":          &c.Database.Host,
		"DB_USER":          &c.Database.User,
		"DB_PASSWORD":      &c.Database.Password,
		"DB_NAME":          &c.Database.Name,
		"DB_PATH":          &c.Database.Path,
		"STORAGE_BACKEND":  &c.Storage.Backend,
		"STORAGE_DIR":      &c.Storage.Dir,
		"MINIO_ENDPOINT":   &c.Storage.Minio.Endpoint,
		"MINIO_ACCESS_KEY": &c.Storage.Minio.AccessKey,
		"MINIO_SECRET_KEY": &c.Storage.Minio.SecretKey,
		"MINIO_BUCKET":     &c.Storage.Minio.Bucket,
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FILE":         &c.Log.File,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*field = v
		}
	}

	ints := map[string]*int{
		"PORT":    &c.Port,
		"DB_PORT": &c.Database.Port,
	}
	for name, field := range ints {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*field = n
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "MINIO_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sMINIO_USE_SSL: %w", envPrefix, err)
		}
		c.Storage.Minio.UseSSL = b
	}
	return nil
}
