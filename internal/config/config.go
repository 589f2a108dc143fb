package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"kreaite"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address            string        `envconfig:"KREAITE_STUDIO_ADDRESS" default:":8080"`
	MetricsAddress     string        `envconfig:"KREAITE_STUDIO_METRICS_ADDRESS" default:":8081"`
	BaseUrl            string        `envconfig:"KREAITE_STUDIO_BASE_URL" default:"http://localhost:8080"`
	LogLevel           string        `envconfig:"KREAITE_STUDIO_LOG_LEVEL" default:"info"`
	MaxConcurrentJobs  int           `envconfig:"KREAITE_STUDIO_MAX_CONCURRENT_JOBS" default:"5"`
	JobCleanupInterval time.Duration `envconfig:"KREAITE_STUDIO_JOB_CLEANUP_INTERVAL" default:"1h"`
	JobRetention       time.Duration `envconfig:"KREAITE_STUDIO_JOB_RETENTION" default:"24h"`
	CorsAllowedOrigins []string      `envconfig:"KREAITE_STUDIO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration suitable for tests: an in-memory SQLite
// database and the default service tunables, ignoring the environment.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: ":memory:",
		},
		Service: &svcConfig{
			Address:            ":8080",
			MetricsAddress:     ":8081",
			BaseUrl:            "http://localhost:8080",
			LogLevel:           "info",
			MaxConcurrentJobs:  5,
			JobCleanupInterval: time.Hour,
			JobRetention:       24 * time.Hour,
		},
	}
}
