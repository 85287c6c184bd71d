package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	OTP       OTPConfig
	Auction   AuctionConfig
	Bidding   BiddingConfig
	Scheduler SchedulerConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	// AutoMigrate applies the embedded migrations at server startup
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings. An empty Host disables Redis
// and the in-memory stores are used instead.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis host is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Per-IP token bucket on /auth endpoints
	AuthRateLimitEnabled bool
	AuthRateLimitRPS     float64
	AuthRateLimitBurst   int
	CORSAllowOrigins     []string
	CORSAllowMethods     []string
	CORSAllowHeaders     []string
	TrustedProxies       []string
}

// StorageConfig holds S3-compatible object storage settings for product images
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	UploadURLExpiry time.Duration
	ViewURLExpiry   time.Duration
	MaxImageBytes   int64
}

// OTPConfig controls one-time password issuance
type OTPConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendInterval time.Duration
}

// AuctionConfig holds listing rules
type AuctionConfig struct {
	MinDuration           time.Duration
	MaxDuration           time.Duration
	DefaultCommissionRate string // percent, parsed as decimal
	QuoteSteps            int
}

// BiddingConfig holds bid placement settings
type BiddingConfig struct {
	MaxRetries int
}

// SchedulerConfig holds the auction close sweeper configuration
type SchedulerConfig struct {
	Enabled   bool
	CloseSpec string // robfig/cron spec, e.g. "@every 15s"
	BatchSize int
	Timeout   time.Duration
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string // CIDRs or single addresses, empty allows all
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BIDHOUSE_ prefix (e.g., BIDHOUSE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bidhouse")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BIDHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans whose default is true need an explicit default so an unset
	// key does not read as false.
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.auth_rate_limit_enabled", true)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("metrics.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:          v.GetDuration("http.read_timeout"),
			WriteTimeout:         v.GetDuration("http.write_timeout"),
			IdleTimeout:          v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:       v.GetInt("http.max_header_bytes"),
			MaxBodySize:          v.GetInt64("http.max_body_size"),
			RateLimitEnabled:     v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:    v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:      v.GetDuration("http.rate_limit_window"),
			AuthRateLimitEnabled: v.GetBool("http.auth_rate_limit_enabled"),
			AuthRateLimitRPS:     v.GetFloat64("http.auth_rate_limit_rps"),
			AuthRateLimitBurst:   v.GetInt("http.auth_rate_limit_burst"),
			CORSAllowOrigins:     v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:     v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:     v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:       v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			UploadURLExpiry: v.GetDuration("storage.upload_url_expiry"),
			ViewURLExpiry:   v.GetDuration("storage.view_url_expiry"),
			MaxImageBytes:   v.GetInt64("storage.max_image_bytes"),
		},
		OTP: OTPConfig{
			TTL:            v.GetDuration("otp.ttl"),
			MaxAttempts:    v.GetInt("otp.max_attempts"),
			ResendInterval: v.GetDuration("otp.resend_interval"),
		},
		Auction: AuctionConfig{
			MinDuration:           v.GetDuration("auction.min_duration"),
			MaxDuration:           v.GetDuration("auction.max_duration"),
			DefaultCommissionRate: v.GetString("auction.default_commission_rate"),
			QuoteSteps:            v.GetInt("auction.quote_steps"),
		},
		Bidding: BiddingConfig{
			MaxRetries: v.GetInt("bidding.max_retries"),
		},
		Scheduler: SchedulerConfig{
			Enabled:   v.GetBool("scheduler.enabled"),
			CloseSpec: v.GetString("scheduler.close_spec"),
			BatchSize: v.GetInt("scheduler.batch_size"),
			Timeout:   v.GetDuration("scheduler.timeout"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bidhouse"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bidhouse"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host != "" && cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 168 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "bidhouse"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRPS == 0 {
		cfg.HTTP.AuthRateLimitRPS = 0.2 // one request every 5s sustained
	}
	if cfg.HTTP.AuthRateLimitBurst == 0 {
		cfg.HTTP.AuthRateLimitBurst = 5
	}
	// No CORS origin fallback: cross-origin requests stay blocked until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "bidhouse-products"
	}
	if cfg.Storage.UploadURLExpiry == 0 {
		cfg.Storage.UploadURLExpiry = 15 * time.Minute
	}
	if cfg.Storage.ViewURLExpiry == 0 {
		cfg.Storage.ViewURLExpiry = time.Hour
	}
	if cfg.Storage.MaxImageBytes == 0 {
		cfg.Storage.MaxImageBytes = 10 << 20
	}
	if cfg.OTP.TTL == 0 {
		cfg.OTP.TTL = 10 * time.Minute
	}
	if cfg.OTP.MaxAttempts == 0 {
		cfg.OTP.MaxAttempts = 5
	}
	if cfg.OTP.ResendInterval == 0 {
		cfg.OTP.ResendInterval = time.Minute
	}
	if cfg.Auction.MinDuration == 0 {
		cfg.Auction.MinDuration = time.Hour
	}
	if cfg.Auction.MaxDuration == 0 {
		cfg.Auction.MaxDuration = 30 * 24 * time.Hour
	}
	if cfg.Auction.DefaultCommissionRate == "" {
		cfg.Auction.DefaultCommissionRate = "5"
	}
	if cfg.Auction.QuoteSteps == 0 {
		cfg.Auction.QuoteSteps = 5
	}
	if cfg.Bidding.MaxRetries == 0 {
		cfg.Bidding.MaxRetries = 3
	}
	if cfg.Scheduler.CloseSpec == "" {
		cfg.Scheduler.CloseSpec = "@every 15s"
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 100
	}
	if cfg.Scheduler.Timeout == 0 {
		cfg.Scheduler.Timeout = time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "bidhouse"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Auction.MinDuration > c.Auction.MaxDuration {
		return fmt.Errorf("auction.min_duration (%s) cannot exceed auction.max_duration (%s)",
			c.Auction.MinDuration, c.Auction.MaxDuration)
	}
	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("otp.max_attempts must be at least 1")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled {
			return fmt.Errorf("swagger must be disabled in production")
		}
		if c.Log.Level == "debug" {
			return fmt.Errorf("log.level cannot be debug in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
