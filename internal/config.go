package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Rates         RatesConfig         `mapstructure:"rates"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// CronSecret is the shared secret expected in the X-Cron-Token header
	// on scheduled-job trigger endpoints.
	CronSecret string `mapstructure:"cron_secret"`
}

type SchedulerConfig struct {
	// ReminderLeadDays is N: a reminder goes out when nextRenewalDate is
	// exactly today+N.
	ReminderLeadDays int `mapstructure:"reminder_lead_days"`
	// AutoCancelLeadDays is M: the auto-cancellation notice goes out when
	// nextRenewalDate is exactly today+M and a reminder was already sent.
	AutoCancelLeadDays int `mapstructure:"auto_cancel_lead_days"`
	// RetentionDays controls how long rejected entries are kept before the
	// cleanup job deletes them.
	RetentionDays int `mapstructure:"retention_days"`

	ReminderSpec    string `mapstructure:"reminder_spec"`
	AutoCancelSpec  string `mapstructure:"auto_cancel_spec"`
	RolloverSpec    string `mapstructure:"rollover_spec"`
	RateRefreshSpec string `mapstructure:"rate_refresh_spec"`
	RetentionSpec   string `mapstructure:"retention_spec"`
}

type RatesConfig struct {
	QuoteURL     string        `mapstructure:"quote_url"`
	APIKey       string        `mapstructure:"api_key"`
	BaseCurrency string        `mapstructure:"base_currency"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type MailConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config from environment variables for container
// deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       90 * time.Second,
			MaxUploadBytes:    int64(getEnvAsInt("MAX_UPLOAD_BYTES", 16<<20)),
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Security: SecurityConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			CronSecret: getEnv("CRON_SECRET", ""),
		},
		Scheduler: SchedulerConfig{
			ReminderLeadDays:   getEnvAsInt("RENEWAL_REMINDER_LEAD_DAYS", 5),
			AutoCancelLeadDays: getEnvAsInt("RENEWAL_AUTO_CANCEL_LEAD_DAYS", 2),
			RetentionDays:      getEnvAsInt("REJECTED_RETENTION_DAYS", 3),
			ReminderSpec:       getEnv("CRON_REMINDER_SPEC", "0 9 * * *"),
			AutoCancelSpec:     getEnv("CRON_AUTO_CANCEL_SPEC", "15 9 * * *"),
			RolloverSpec:       getEnv("CRON_ROLLOVER_SPEC", "30 0 * * *"),
			RateRefreshSpec:    getEnv("CRON_RATE_REFRESH_SPEC", "0 6 * * *"),
			RetentionSpec:      getEnv("CRON_RETENTION_SPEC", "0 2 * * *"),
		},
		Rates: RatesConfig{
			QuoteURL:     getEnv("RATES_QUOTE_URL", ""),
			APIKey:       getEnv("RATES_API_KEY", ""),
			BaseCurrency: getEnv("RATES_BASE_CURRENCY", "INR"),
			Timeout:      10 * time.Second,
		},
		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM", "mis@wytlabs.com"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("scheduler config: %v", err))
	}

	if err := c.Rates.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("rates config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.CronSecret == "" {
		return errors.New("cron_secret is required")
	}
	return nil
}

func (c *SchedulerConfig) Validate() error {
	if c.ReminderLeadDays <= 0 {
		return errors.New("reminder_lead_days must be positive")
	}
	if c.AutoCancelLeadDays <= 0 {
		return errors.New("auto_cancel_lead_days must be positive")
	}
	if c.AutoCancelLeadDays >= c.ReminderLeadDays {
		return errors.New("auto_cancel_lead_days must be smaller than reminder_lead_days")
	}
	if c.RetentionDays <= 0 {
		return errors.New("retention_days must be positive")
	}
	return nil
}

func (c *RatesConfig) Validate() error {
	if c.QuoteURL == "" {
		return errors.New("quote_url is required")
	}
	if c.BaseCurrency == "" {
		return errors.New("base_currency is required")
	}
	return nil
}
