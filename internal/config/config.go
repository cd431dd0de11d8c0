package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig holds REST API configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	PerPage int           `yaml:"per_page"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig holds OAuth application credentials and endpoints
type AuthConfig struct {
	AuthorizeURL string `yaml:"authorize_url"`
	TokenURL     string `yaml:"token_url"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	RedirectURI  string `yaml:"redirect_uri"`
	Scope        string `yaml:"scope"`
}

// Scopes splits the configured scope on spaces and pluses
func (c *AuthConfig) Scopes() []string {
	return strings.FieldsFunc(c.Scope, func(r rune) bool {
		return r == ' ' || r == '+'
	})
}

// StorageConfig selects where the bearer token is persisted
type StorageConfig struct {
	Driver string `yaml:"driver"` // file | postgres
	Path   string `yaml:"path"`
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

// AWSConfig holds AWS configuration used for sharing photos
type AWSConfig struct {
	Region    string        `yaml:"region"`
	S3Bucket  string        `yaml:"s3_bucket"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Endpoint  string        `yaml:"endpoint"`
	ShareTTL  time.Duration `yaml:"share_ttl"`
}

// JWTConfig holds viewer token configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// ServerConfig holds companion server configuration
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	RedirectPort int    `yaml:"redirect_port"`
}

// CacheConfig holds image cache configuration
type CacheConfig struct {
	MaxCost int64  `yaml:"max_cost"`
	Dir     string `yaml:"dir"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the fields the client cannot work without
func (c *Config) Validate() error {
	if c.Auth.AccessKey == "" {
		return errors.New("auth.access_key is required")
	}
	switch c.Storage.Driver {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.unsplash.com"
	}
	if c.API.PerPage <= 0 {
		c.API.PerPage = 10
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Auth.AuthorizeURL == "" {
		c.Auth.AuthorizeURL = "https://unsplash.com/oauth/authorize"
	}
	if c.Auth.TokenURL == "" {
		c.Auth.TokenURL = "https://unsplash.com/oauth/token"
	}
	if c.Auth.RedirectURI == "" {
		c.Auth.RedirectURI = "urn:ietf:wg:oauth:2.0:oob"
	}
	if c.Auth.Scope == "" {
		c.Auth.Scope = "public read_user write_likes"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(homeDir(), ".image-feed", "token.yaml")
	}
	if c.AWS.ShareTTL <= 0 {
		c.AWS.ShareTTL = 15 * time.Minute
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RedirectPort == 0 {
		c.Server.RedirectPort = 8765
	}
	if c.Cache.MaxCost <= 0 {
		c.Cache.MaxCost = 64 << 20
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(homeDir(), ".image-feed", "images")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
