package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST" default:"localhost"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT" default:"5432"`
	User     string `mapstructure:"user" envconfig:"DB_USER" default:"postgres"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME" default:"booking"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE" default:"disable"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"REDIS_RETRY_BACKOFF" default:"100ms"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT" default:"587"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM" default:"reminders@careling.example"`
}

type ReminderConfig struct {
	WindowStartHoursAhead int           `mapstructure:"window_start_hours_ahead" envconfig:"REMINDER_WINDOW_START_HOURS" default:"23"`
	WindowEndHoursAhead   int           `mapstructure:"window_end_hours_ahead" envconfig:"REMINDER_WINDOW_END_HOURS" default:"24"`
	GraceHours            int           `mapstructure:"grace_hours" envconfig:"REMINDER_GRACE_HOURS" default:"2"`
	// PollInterval of zero means run a single sweep and exit; the cadence is
	// then the external trigger's concern.
	PollInterval time.Duration `mapstructure:"poll_interval" envconfig:"REMINDER_POLL_INTERVAL" default:"0"`
	SMSChannel   string        `mapstructure:"sms_channel" envconfig:"REMINDER_SMS_CHANNEL" default:"sms.outbound"`
}

// Config is the explicit configuration object constructed once at process
// start and injected into every component.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// Load reads config.yml when one is present; without a file the whole config
// comes from BOOKING_-prefixed environment variables.
func Load() (*Config, error) {
	var config Config

	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err == nil {
		if err := viper.Unmarshal(&config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		return &config, nil
	}

	if err := envconfig.Process("BOOKING", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	return &config, nil
}
