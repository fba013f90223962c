package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Detection DetectionConfig `mapstructure:"detection"`
	AI        AIConfig        `mapstructure:"ai"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// DetectionConfig holds the scoring engine settings
type DetectionConfig struct {
	Threshold          float64       `mapstructure:"threshold"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	TLSTimeout         time.Duration `mapstructure:"tls_timeout"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	BaseWeight         float64       `mapstructure:"base_weight"`
	ExtraWeight        float64       `mapstructure:"extra_weight"`
	AutoPromoteReports int           `mapstructure:"auto_promote_reports"`
}

type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type TelegramConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type WhatsAppConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	APIKey        string `mapstructure:"api_key"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	VerifyToken   string `mapstructure:"verify_token"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/linkguard")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("LINKGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("database.host", "LINKGUARD_DATABASE_HOST")
	v.BindEnv("database.port", "LINKGUARD_DATABASE_PORT")
	v.BindEnv("database.user", "LINKGUARD_DATABASE_USER")
	v.BindEnv("database.password", "LINKGUARD_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "LINKGUARD_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "LINKGUARD_DATABASE_SSLMODE")
	v.BindEnv("redis.host", "LINKGUARD_REDIS_HOST")
	v.BindEnv("redis.port", "LINKGUARD_REDIS_PORT")
	v.BindEnv("redis.password", "LINKGUARD_REDIS_PASSWORD")
	v.BindEnv("nats.enabled", "LINKGUARD_NATS_ENABLED")
	v.BindEnv("ai.api_key", "LINKGUARD_AI_API_KEY")
	v.BindEnv("auth.api_key", "LINKGUARD_AUTH_API_KEY")
	v.BindEnv("telegram.bot_token", "LINKGUARD_TELEGRAM_BOT_TOKEN")
	v.BindEnv("whatsapp.api_key", "LINKGUARD_WHATSAPP_API_KEY")
	v.BindEnv("whatsapp.phone_number_id", "LINKGUARD_WHATSAPP_PHONE_NUMBER_ID")
	v.BindEnv("whatsapp.verify_token", "LINKGUARD_WHATSAPP_VERIFY_TOKEN")
	v.BindEnv("app.environment", "LINKGUARD_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "linkguard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "linkguard")
	v.SetDefault("database.dbname", "linkguard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "linkguard:")

	v.SetDefault("nats.stream_name", "LINKGUARD_SCANS")

	v.SetDefault("ratelimit.requests_per_minute", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("detection.threshold", 0.7)
	v.SetDefault("detection.fetch_timeout", 10*time.Second)
	v.SetDefault("detection.tls_timeout", 5*time.Second)
	v.SetDefault("detection.cache_ttl", time.Hour)
	v.SetDefault("detection.base_weight", 0.6)
	v.SetDefault("detection.extra_weight", 0.4)
	v.SetDefault("detection.auto_promote_reports", 3)

	v.SetDefault("ai.model", "gpt-4o-mini")

	v.SetDefault("whatsapp.verify_token", "linkguard_verify_token")
}
