package config

import (
	"github.com/caarlos0/env/v11"

	"promopilot/internal/config/configs"
)

// Store selects the persistence backend.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config aggregates all configuration sections for the application. Fields
// are populated from environment variables using the caarlos0/env library.
// The nested structs are tagged with envPrefix so their fields are parsed
// with the given prefix. See the individual types in the configs package
// for default values and options. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	// Store selects where campaigns and scheduled posts live: "memory"
	// (default) or "postgres".
	Store string `env:"STORE" envDefault:"memory"`

	// HTTP holds configuration for the HTTP server. Environment variables
	// prefixed with HTTP_ will populate this struct.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger. Environment variables prefixed
	// with LOG_ will populate this struct.
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the PostgreSQL connection; only used when Store is
	// "postgres". Environment variables prefixed with PSQL_ will populate
	// this struct.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// AMQP configures the broker-backed collaborators. Environment
	// variables prefixed with AMQP_ will populate this struct.
	AMQP configs.AMQP `envPrefix:"AMQP_"`

	// Scheduler configures the post scheduler sweep. Environment
	// variables prefixed with SCHEDULER_ will populate this struct.
	Scheduler configs.Scheduler `envPrefix:"SCHEDULER_"`

	// Lottery configures campaign engine defaults. Environment variables
	// prefixed with LOTTERY_ will populate this struct.
	Lottery configs.Lottery `envPrefix:"LOTTERY_"`
}

// Load reads configuration from environment variables into a Config. If
// parsing fails, an error is returned. All fields are loaded with their
// specified defaults when no environment variable is provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
