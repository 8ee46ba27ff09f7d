package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr    string `mapstructure:"http_addr" yaml:"http_addr"`
	DatabaseDSN string `mapstructure:"database_dsn" yaml:"database_dsn"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPass   string `mapstructure:"redis_pass" yaml:"redis_pass"`

	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user" yaml:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass" yaml:"smtp_pass"`
	SMTPFrom string `mapstructure:"smtp_from" yaml:"smtp_from"`

	// Engine tuning
	WorkerPoolSize      int           `mapstructure:"worker_pool_size" yaml:"worker_pool_size"`
	SchedulerTick       time.Duration `mapstructure:"scheduler_tick" yaml:"scheduler_tick"`
	IncidentDebounce    int           `mapstructure:"incident_debounce" yaml:"incident_debounce"`
	DegradedLogInterval time.Duration `mapstructure:"degraded_log_interval" yaml:"degraded_log_interval"`
	AlertRetryCeiling   int           `mapstructure:"alert_retry_ceiling" yaml:"alert_retry_ceiling"`
	AlertRetryBackoff   time.Duration `mapstructure:"alert_retry_backoff" yaml:"alert_retry_backoff"`
	ExpiryCronSpec      string        `mapstructure:"expiry_cron_spec" yaml:"expiry_cron_spec"`

	// First-boot superadmin seed
	AdminEmail    string `mapstructure:"admin_email" yaml:"admin_email"`
	AdminPassword string `mapstructure:"admin_password" yaml:"admin_password"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces keys viper already knows about, so every
	// key needs a default before Unmarshal or env-only values are dropped.
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; env vars alone are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("database_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_pass", "")

	v.SetDefault("jwt_secret", "")

	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_pass", "")
	v.SetDefault("smtp_from", "")

	v.SetDefault("worker_pool_size", 16)
	v.SetDefault("scheduler_tick", time.Second)
	v.SetDefault("incident_debounce", 2)
	v.SetDefault("degraded_log_interval", 10*time.Minute)
	v.SetDefault("alert_retry_ceiling", 3)
	v.SetDefault("alert_retry_backoff", 2*time.Second)
	v.SetDefault("expiry_cron_spec", "0 6 * * *")

	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
}
