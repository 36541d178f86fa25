package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/lending-service/pkg/kafka"
	"github.com/Astemirdum/lending-service/pkg/logger"
	"github.com/Astemirdum/lending-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LENDING_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LENDING_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE" default:"10s"`
}

// Policy holds the lending rules and how hard a contended transaction is retried.
type Policy struct {
	MaxActiveBorrows int           `envconfig:"LENDING_MAX_ACTIVE_BORROWS" default:"3"`
	BorrowDuration   time.Duration `envconfig:"LENDING_BORROW_DURATION" default:"336h"`
	FinePerDay       float64       `envconfig:"LENDING_FINE_PER_DAY" default:"1"`
	TxAttempts       int           `envconfig:"LENDING_TX_ATTEMPTS" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"LENDING_RETRY_BASE_DELAY" default:"10ms"`
}

type Reminder struct {
	Enabled bool `envconfig:"REMINDER_ENABLED" default:"true"`
	// Hour of day the scan runs, in Timezone.
	Hour     int    `envconfig:"REMINDER_HOUR" default:"0"`
	Timezone string `envconfig:"REMINDER_TZ" default:"UTC"`
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Database postgres.DB  `yaml:"db"`
	Kafka    kafka.Config `yaml:"kafka"`
	Log      logger.Log   `yaml:"log"`
	Policy   Policy       `yaml:"policy"`
	Reminder Reminder     `yaml:"reminder"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options win over the environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		for _, op := range ops {
			op(&config)
		}
		cfg = &config
	})

	return cfg
}
