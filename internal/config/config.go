package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Unsplash   UnsplashConfig   `yaml:"unsplash"`
	Server     ServerConfig     `yaml:"server"`
	TokenStore TokenStoreConfig `yaml:"token_store"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
}

// UnsplashConfig holds the OAuth application credentials and endpoints
type UnsplashConfig struct {
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	RedirectURI  string `yaml:"redirect_uri"`
	Scope        string `yaml:"scope"`
	APIBaseURL   string `yaml:"api_base_url"`
	AuthorizeURL string `yaml:"authorize_url"`
}

// ServerConfig holds configuration of the local UI/callback server
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// TokenStoreConfig selects and configures the token persistence backend
type TokenStoreConfig struct {
	Driver   string         `yaml:"driver"` // memory, file, postgres, redis, s3
	Key      string         `yaml:"key"`
	FilePath string         `yaml:"file_path"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// HTTPConfig holds outbound API client settings
type HTTPConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	RateLimitPerHour int           `yaml:"rate_limit_per_hour"`
}

// AuthConfig holds settings of the login flow
type AuthConfig struct {
	StateSecret string        `yaml:"state_secret"`
	StateTTL    time.Duration `yaml:"state_ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DefaultAPIBaseURL   = "https://api.unsplash.com"
	DefaultAuthorizeURL = "https://unsplash.com/oauth/authorize"
	DefaultRedirectPath = "/oauth/authorize/native"
	DefaultScope        = "public+read_user+write_likes"
	DefaultTokenKey     = "accessToken"
)

// Load reads configuration from a YAML file. Values from a .env file next to
// it and from IMAGEFEED_* environment variables take precedence.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("IMAGEFEED_ACCESS_KEY"); v != "" {
		c.Unsplash.AccessKey = v
	}
	if v := os.Getenv("IMAGEFEED_SECRET_KEY"); v != "" {
		c.Unsplash.SecretKey = v
	}
	if v := os.Getenv("IMAGEFEED_STATE_SECRET"); v != "" {
		c.Auth.StateSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Unsplash.APIBaseURL == "" {
		c.Unsplash.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Unsplash.AuthorizeURL == "" {
		c.Unsplash.AuthorizeURL = DefaultAuthorizeURL
	}
	if c.Unsplash.Scope == "" {
		c.Unsplash.Scope = DefaultScope
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8765
	}
	// the redirect lands on the local callback route
	if c.Unsplash.RedirectURI == "" {
		c.Unsplash.RedirectURI = fmt.Sprintf("http://%s:%d%s", c.Server.Host, c.Server.Port, DefaultRedirectPath)
	}
	if c.TokenStore.Driver == "" {
		c.TokenStore.Driver = "file"
	}
	if c.TokenStore.Key == "" {
		c.TokenStore.Key = DefaultTokenKey
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 15 * time.Second
	}
	if c.Auth.StateTTL == 0 {
		c.Auth.StateTTL = 10 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that the required fields are present
func (c *Config) Validate() error {
	if c.Unsplash.AccessKey == "" {
		return fmt.Errorf("unsplash.access_key is required")
	}
	if c.Unsplash.SecretKey == "" {
		return fmt.Errorf("unsplash.secret_key is required")
	}

	switch c.TokenStore.Driver {
	case "memory", "file":
	case "postgres":
		if c.TokenStore.Database.Host == "" {
			return fmt.Errorf("token_store.database.host is required for postgres driver")
		}
	case "redis":
		if c.TokenStore.Redis.Addr == "" {
			return fmt.Errorf("token_store.redis.addr is required for redis driver")
		}
	case "s3":
		if c.TokenStore.AWS.S3Bucket == "" {
			return fmt.Errorf("token_store.aws.s3_bucket is required for s3 driver")
		}
	default:
		return fmt.Errorf("unknown token_store.driver %q", c.TokenStore.Driver)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
