// Package config loads service settings from TIENDA_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "TIENDA"

// Config holds the service settings.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8443"`
	TLSCert      string        `envconfig:"TLS_CERT"`
	TLSKey       string        `envconfig:"TLS_KEY"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"0s"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`

	// OrdersBackend is "file" or "postgres".
	OrdersBackend  string `envconfig:"ORDERS_BACKEND" default:"file"`
	OrdersFile     string `envconfig:"ORDERS_FILE" default:"data/orders.json"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	PersistDeletes bool   `envconfig:"PERSIST_DELETES" default:"false"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"1h"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"orders.created"`
	EventBuffer  int      `envconfig:"EVENT_BUFFER" default:"16"`

	OTELHost        string  `envconfig:"OTEL_HOST"`
	OTELProbability float64 `envconfig:"OTEL_PROBABILITY" default:"1.0"`

	SeedUsers      []string `envconfig:"SEED_USERS" default:"admin:admin,user:user"`
	BcryptCost     int      `envconfig:"BCRYPT_COST" default:"10"`
	DictionaryFile string   `envconfig:"DICTIONARY_FILE"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	switch c.OrdersBackend {
	case "file":
		if c.OrdersFile == "" {
			return fmt.Errorf("%s_ORDERS_FILE is required for the file backend", Prefix)
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%s_DATABASE_URL is required for the postgres backend", Prefix)
		}
	default:
		return fmt.Errorf("unknown orders backend %q", c.OrdersBackend)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("%s_TLS_CERT and %s_TLS_KEY must be set together", Prefix, Prefix)
	}
	return nil
}

// TLS reports whether the server should serve HTTPS.
func (c Config) TLS() bool { return c.TLSCert != "" }
