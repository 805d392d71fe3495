package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override,
// e.g. PASSWORDLESS_AUTH_SIGNING_KEY overrides auth.signing_key
const EnvPrefix = "PASSWORDLESS"

type BaseConfig struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Log      LogConfig      `mapstructure:"log"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	BaseURL string `mapstructure:"base_url"`
	Port    int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	Migrate        bool          `mapstructure:"migrate"`
	Debug          bool          `mapstructure:"debug"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
	OtelIdentifier string        `mapstructure:"otel_identifier"`
}

// GetDebug enables bun query logging
func (d DatabaseConfig) GetDebug() bool {
	return d.Debug
}

func (d DatabaseConfig) GetDriver() string {
	return d.Driver
}

// GetServer returns the connection string
func (d DatabaseConfig) GetServer() string {
	return d.DSN
}

func (d DatabaseConfig) GetPingTimeout() time.Duration {
	return d.PingTimeout
}

func (d DatabaseConfig) GetOtelIdentifier() string {
	return d.OtelIdentifier
}

type AuthConfig struct {
	SigningKey    string        `mapstructure:"signing_key"`
	Issuer        string        `mapstructure:"issuer"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	ClaimTTL      time.Duration `mapstructure:"claim_ttl"`
	HashidUserIDs bool          `mapstructure:"hashid_user_ids"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type options struct {
	name     string
	paths    []string
	envFiles []string
}

// Option configures Load
type Option func(*options)

// WithConfigName sets the config file name, without extension
func WithConfigName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithConfigPaths sets where the config file is searched
func WithConfigPaths(paths ...string) Option {
	return func(o *options) {
		o.paths = paths
	}
}

// WithEnvFiles sets the dotenv files loaded before reading the environment
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = files
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "passwordless")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8978")
	v.SetDefault("app.port", 8978)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:passwordless.db?cache=shared")
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.debug", false)
	v.SetDefault("database.ping_timeout", "5s")
	v.SetDefault("database.otel_identifier", "passwordless")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.issuer", "go-passwordless")
	v.SetDefault("auth.cookie_name", "passwordless_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("auth.claim_ttl", "24h")
	v.SetDefault("auth.hashid_user_ids", false)

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 1025)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@localhost")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads defaults, an optional YAML file and environment overrides.
// A missing config file or .env file is not an error.
func Load(opts ...Option) (*BaseConfig, error) {
	o := &options{
		name:  "config",
		paths: []string{".", "./config"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	_ = godotenv.Load(o.envFiles...)

	v := viper.New()
	v.SetConfigName(o.name)
	v.SetConfigType("yaml")
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &BaseConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the server cannot run without
func (c *BaseConfig) Validate() error {
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required")
	}
	if len(c.Auth.SigningKey) < 16 {
		return errors.New("auth.signing_key must be at least 16 characters")
	}
	if strings.TrimSpace(c.App.BaseURL) == "" {
		return errors.New("app.base_url is required")
	}
	if c.Auth.ClaimTTL <= 0 {
		return errors.New("auth.claim_ttl must be positive")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	return nil
}

func (c *BaseConfig) GetBaseURL() string {
	return strings.TrimRight(c.App.BaseURL, "/")
}

func (c *BaseConfig) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *BaseConfig) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *BaseConfig) GetCookieName() string {
	return c.Auth.CookieName
}

func (c *BaseConfig) GetCookieSecure() bool {
	return c.Auth.CookieSecure
}

func (c *BaseConfig) GetSessionTTL() time.Duration {
	return c.Auth.SessionTTL
}

func (c *BaseConfig) GetClaimTTL() time.Duration {
	return c.Auth.ClaimTTL
}

// Addr is the listen address of the HTTP server
func (c *BaseConfig) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
