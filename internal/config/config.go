package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/privcap/internal/database"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"PrivCap"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"privcap"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		Secret string `envconfig:"AUTH_JWT_SECRET"`
		Issuer string `envconfig:"AUTH_JWT_ISSUER" default:"privcap"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Analytics struct {
		RiskFreeRate  float64 `envconfig:"ANALYTICS_RISK_FREE_RATE" default:"0.04"`
		VaRConfidence float64 `envconfig:"ANALYTICS_VAR_CONFIDENCE" default:"0.95"`
	}

	Operator struct {
		// ID is the staff investor the operator console acts as.
		ID string `envconfig:"OPERATOR_ID"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) Pool() database.Pool {
	return database.Pool{
		MaxOpenConns:    c.DB.MaxOpenConns,
		MaxIdleConns:    c.DB.MaxIdleConns,
		ConnMaxLifetime: c.DB.ConnMaxLifetime,
	}
}

// OperatorID parses the configured operator investor ID.
func (c *Config) OperatorID() (uuid.UUID, error) {
	if c.Operator.ID == "" {
		return uuid.Nil, fmt.Errorf("OPERATOR_ID is not set")
	}

	id, err := uuid.Parse(c.Operator.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing OPERATOR_ID: %w", err)
	}

	return id, nil
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Analytics.VaRConfidence <= 0 || cfg.Analytics.VaRConfidence >= 1 {
		return nil, fmt.Errorf("ANALYTICS_VAR_CONFIDENCE must be in (0, 1), got %v", cfg.Analytics.VaRConfidence)
	}

	return &cfg, nil
}
