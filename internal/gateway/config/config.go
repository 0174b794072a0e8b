package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config represents the gateway configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	HTTPPort    int    `mapstructure:"http_port"`
	OpsPort     int    `mapstructure:"ops_port"`
	RendererURL string `mapstructure:"renderer_url"`
}

// RoutingConfig holds tenant routing settings
type RoutingConfig struct {
	PrimaryDomain          string   `mapstructure:"primary_domain"`
	EnableSubdomainRouting bool     `mapstructure:"enable_subdomain_routing"`
	AllowLocalSubdomains   bool     `mapstructure:"allow_local_subdomains"`
	PlatformSuffixes       []string `mapstructure:"platform_suffixes"`
	LookupTimeout          string   `mapstructure:"lookup_timeout"`
	AdminPathPrefix        string   `mapstructure:"admin_path_prefix"`
	BypassPathPrefixes     []string `mapstructure:"bypass_path_prefixes"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// CacheConfig holds directory lookup cache settings
type CacheConfig struct {
	Driver        string `mapstructure:"driver"` // memory, redis, none
	TTL           string `mapstructure:"ttl"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// AuthConfig holds session bootstrap settings
type AuthConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	CookieName   string `mapstructure:"cookie_name"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

// LookupTimeoutDuration parses the configured lookup timeout, falling back
// to 2s on absent or malformed values.
func (r RoutingConfig) LookupTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.LookupTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// TTLDuration parses the configured cache TTL, falling back to 30s.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Load loads configuration from file with environment overrides. A missing
// config file is not an error; defaults plus environment carry a minimal
// deployment.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	setDefaults()

	// Deployment environment variables take precedence over the file
	bindEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.ops_port", 9090)
	viper.SetDefault("server.renderer_url", "http://127.0.0.1:3000")

	// Routing defaults. An empty primary domain disables tenant routing
	// entirely; pass-through is the safe misconfiguration behavior.
	viper.SetDefault("routing.primary_domain", "")
	viper.SetDefault("routing.enable_subdomain_routing", true)
	viper.SetDefault("routing.allow_local_subdomains", false)
	viper.SetDefault("routing.platform_suffixes", []string{"vercel.app"})
	viper.SetDefault("routing.lookup_timeout", "2s")
	viper.SetDefault("routing.admin_path_prefix", "/admin")
	viper.SetDefault("routing.bypass_path_prefixes", []string{
		"/api/",
		"/_next/",
		"/static/",
		"/assets/",
		"/favicon.ico",
		"/session/",
	})

	// Database defaults (SQLite for easier local development)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.database", "medigate.db")
	// PostgreSQL defaults (if driver is set to postgres)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.username", "medigate")
	viper.SetDefault("database.ssl_mode", "disable")

	// Cache defaults
	viper.SetDefault("cache.driver", "memory")
	viper.SetDefault("cache.ttl", "30s")
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.redis_db", 0)

	// Auth defaults
	viper.SetDefault("auth.cookie_name", "auth_token")
	viper.SetDefault("auth.cookie_secure", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

func bindEnv() {
	_ = viper.BindEnv("routing.primary_domain", "PRIMARY_DOMAIN")
	_ = viper.BindEnv("routing.enable_subdomain_routing", "ENABLE_SUBDOMAIN_ROUTING")
	_ = viper.BindEnv("server.renderer_url", "API_BASE_URL")
	_ = viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
}
