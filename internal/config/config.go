// Package config loads runtime settings for the recipe API.
//
// Settings come from three layers, later layers winning:
//  1. built-in defaults
//  2. an optional YAML file named by CONFIG_FILE
//  3. environment variables (a .env file in the working directory is
//     loaded into the environment first, if present)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Asset drivers.
const (
	AssetDriverLocal = "local"
	AssetDriverS3    = "s3"
)

// MinSecretLength is the shortest JWT secret Validate accepts.
const MinSecretLength = 16

// Config holds every setting the server needs. The yaml tags describe the
// CONFIG_FILE layout.
type Config struct {
	Port     int    `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	DBPath   string `yaml:"db_path"`

	Auth   AuthConfig   `yaml:"auth"`
	Mail   MailConfig   `yaml:"mail"`
	Assets AssetConfig  `yaml:"assets"`
	Worker WorkerConfig `yaml:"worker"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	HashSecret   string        `yaml:"hash_secret"`
	JWTExpiresIn time.Duration `yaml:"jwt_expires_in"`
	ResetBaseURL string        `yaml:"reset_base_url"`
	RateRPS      float64       `yaml:"rate_rps"`
	RateBurst    int           `yaml:"rate_burst"`
}

// MailConfig configures SMTP delivery. An empty Host means mails are only
// logged.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AssetConfig struct {
	Driver  string `yaml:"driver"`
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`

	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3PublicURL string `yaml:"s3_public_url"`
}

type WorkerConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Port:     8080,
		Env:      "development",
		LogLevel: "debug",
		DBPath:   "data/recipes.db",
		Auth: AuthConfig{
			JWTExpiresIn: 24 * time.Hour,
			ResetBaseURL: "http://localhost:8080",
			RateRPS:      5,
			RateBurst:    10,
		},
		Mail: MailConfig{
			Port: 587,
			From: "no-reply@recipe-mate.local",
		},
		Assets: AssetConfig{
			Driver:  AssetDriverLocal,
			Dir:     "data/assets",
			BaseURL: "/assets",
		},
		Worker: WorkerConfig{Workers: 2},
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load builds the configuration from defaults, CONFIG_FILE and the
// environment. A missing .env file is not an error.
func Load() (Config, error) {
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Port = getEnvInt("PORT", c.Port, &errs)
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DBPath = getEnv("DB_PATH", c.DBPath)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.HashSecret = getEnv("HASH_SECRET", c.Auth.HashSecret)
	if secs := getEnvInt("JWT_EXPIRES_IN", -1, &errs); secs >= 0 {
		c.Auth.JWTExpiresIn = time.Duration(secs) * time.Second
	}
	c.Auth.ResetBaseURL = strings.TrimRight(getEnv("RESET_BASE_URL", c.Auth.ResetBaseURL), "/")
	c.Auth.RateRPS = getEnvFloat("AUTH_RATE_RPS", c.Auth.RateRPS, &errs)
	c.Auth.RateBurst = getEnvInt("AUTH_RATE_BURST", c.Auth.RateBurst, &errs)

	c.Mail.Host = getEnv("MAIL_HOST", c.Mail.Host)
	c.Mail.Port = getEnvInt("MAIL_PORT", c.Mail.Port, &errs)
	c.Mail.User = getEnv("MAIL_USER", c.Mail.User)
	c.Mail.Password = getEnv("MAIL_PASSWORD", c.Mail.Password)
	c.Mail.From = getEnv("MAIL_FROM", c.Mail.From)

	c.Assets.Driver = strings.ToLower(getEnv("ASSET_DRIVER", c.Assets.Driver))
	c.Assets.Dir = getEnv("ASSET_DIR", c.Assets.Dir)
	c.Assets.BaseURL = strings.TrimRight(getEnv("ASSET_BASE_URL", c.Assets.BaseURL), "/")
	c.Assets.S3Bucket = getEnv("S3_BUCKET", c.Assets.S3Bucket)
	c.Assets.S3Region = getEnv("S3_REGION", c.Assets.S3Region)
	c.Assets.S3Endpoint = getEnv("S3_ENDPOINT", c.Assets.S3Endpoint)
	c.Assets.S3AccessKey = getEnv("S3_ACCESS_KEY", c.Assets.S3AccessKey)
	c.Assets.S3SecretKey = getEnv("S3_SECRET_KEY", c.Assets.S3SecretKey)
	c.Assets.S3PublicURL = getEnv("S3_PUBLIC_URL", c.Assets.S3PublicURL)

	c.Worker.Workers = getEnvInt("WORKERS", c.Worker.Workers, &errs)

	return errors.Join(errs...)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("config: JWT_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.Auth.HashSecret == "" {
		errs = append(errs, errors.New("config: HASH_SECRET must be set"))
	}
	if c.Auth.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("config: JWT_EXPIRES_IN must be positive"))
	}
	switch c.Assets.Driver {
	case AssetDriverLocal:
	case AssetDriverS3:
		if c.Assets.S3Bucket == "" {
			errs = append(errs, errors.New("config: S3_BUCKET is required for the s3 asset driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown ASSET_DRIVER %q", c.Assets.Driver))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: invalid PORT %d", c.Port))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return fallback
	}
	return f
}
