package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into cfg, which must be a pointer to a
// struct using `env` and `envDefault` tags:
//
//	type Config struct {
//	    HTTPPort    int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
//	    LockTTL     time.Duration `env:"REVIEW_LOCK_TTL" envDefault:"5s"`
//	    KafkaBroker []string      `env:"KAFKA_BROKERS" envSeparator:","`
//	}
//
// Fields tagged `required` without a default fail the load when unset.
func Load(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: false}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
