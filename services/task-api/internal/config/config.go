package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const (
	DBDriverMongo  = "mongo"
	DBDriverMemory = "memory"
)

// TaskAPIConfig holds the configuration of the task API.
type TaskAPIConfig struct {
	Port            int           `env:"APP_PORT"         envDefault:"3000"`
	GRPCHealthPort  int           `env:"GRPC_HEALTH_PORT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DB              DBConfig      `envPrefix:"DB_"`
	Token           TokenConfig   `envPrefix:"TOKEN_"`
}

// DBConfig holds the document database configuration.
type DBConfig struct {
	Driver         string        `env:"DRIVER"          envDefault:"mongo"`
	Host           string        `env:"HOST"            envDefault:"mongodb://127.0.0.1:27017"`
	Name           string        `env:"NAME"            envDefault:"task-manager"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// TokenConfig holds the bearer token configuration.
type TokenConfig struct {
	Secret    string        `env:"SECRET"`
	Issuer    string        `env:"ISSUER"     envDefault:"task-api"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"168h"`
}

// NewTaskAPIConfig parses the configuration from environment variables and
// terminates the process if it is invalid.
func NewTaskAPIConfig(logger *zerolog.Logger) *TaskAPIConfig {
	cfg, err := Parse()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load task API configuration")
	}

	return cfg
}

// Parse reads and validates the configuration from environment variables.
func Parse() (*TaskAPIConfig, error) {
	cfg, err := env.ParseAs[TaskAPIConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *TaskAPIConfig) validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("invalid APP_PORT %d", c.Port)
	}
	if c.DB.Driver != DBDriverMongo && c.DB.Driver != DBDriverMemory {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Driver == DBDriverMongo && c.DB.Host == "" {
		return fmt.Errorf("missing DB_HOST environment variable")
	}
	if c.DB.Driver == DBDriverMongo && c.DB.Name == "" {
		return fmt.Errorf("missing DB_NAME environment variable")
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("missing TOKEN_SECRET environment variable")
	}
	if c.Token.ExpiresIn <= 0 {
		return fmt.Errorf("TOKEN_EXPIRES_IN must be positive")
	}

	return nil
}
