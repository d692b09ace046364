package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServiceName string `env:"-"`

	HTTPPort     int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort  int    `env:"METRICS_PORT"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	DiscordToken      string        `env:"DISCORD_TOKEN"`
	ConnectMaxElapsed time.Duration `env:"CONNECT_MAX_ELAPSED" envDefault:"2m"`

	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	EventsTopic   string   `env:"EVENTS_TOPIC" envDefault:"guild.events"`
	// Mirror gateway events onto EventsTopic for relay consumers.
	PublishEvents bool     `env:"PUBLISH_EVENTS" envDefault:"false"`

	DeliveryWorkers   int           `env:"DELIVERY_WORKERS" envDefault:"8"`
	DeliveryQueueSize int           `env:"DELIVERY_QUEUE_SIZE" envDefault:"1024"`
	SendTimeout       time.Duration `env:"SEND_TIMEOUT" envDefault:"5s"`

	AdminToken string `env:"ADMIN_TOKEN"`
}

func LoadConfig(service string) (*Config, error) {
	cfg := &Config{ServiceName: service}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = cfg.HTTPPort + 1000
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DeliveryWorkers < 1 {
		return errors.New("DELIVERY_WORKERS must be at least 1")
	}
	if c.DeliveryQueueSize < 1 {
		return errors.New("DELIVERY_QUEUE_SIZE must be at least 1")
	}
	if c.SendTimeout <= 0 {
		return errors.New("SEND_TIMEOUT must be positive")
	}
	return nil
}

// RequireAdminToken fails when the admin API would have to run without
// authentication.
func (c *Config) RequireAdminToken() error {
	if c.AdminToken == "" {
		return errors.New("ADMIN_TOKEN is required")
	}
	return nil
}
