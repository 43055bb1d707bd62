package helper

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	database "github.com/yishak-cs/movierec/internal/database"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNeo4j    = "neo4j"
)

// Config is the process configuration read from the environment
type Config struct {
	Port string `envconfig:"APP_PORT" default:"8080"`
	Env  string `envconfig:"APP_ENV" default:"development"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"db/database.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Neo4jURI      string `envconfig:"NEO4J_URI"`
	Neo4jUsername string `envconfig:"NEO4J_USERNAME" default:"neo4j"`
	Neo4jPassword string `envconfig:"NEO4J_PASSWORD"`
	Neo4jDatabase string `envconfig:"NEO4J_DATABASE" default:"neo4j"`

	ModelPath     string        `envconfig:"MODEL_PATH" default:"model.json"`
	RankerWorkers int           `envconfig:"RANKER_WORKERS" default:"8"`
	ScorerTimeout time.Duration `envconfig:"SCORER_TIMEOUT" default:"2s"`

	DataDir       string   `envconfig:"DATA_DIR" default:"data"`
	ImportOnStart bool     `envconfig:"IMPORT_ON_START" default:"true"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"http://localhost,http://localhost:8000,http://localhost:3000"`
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("failed to process env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the service cannot start with
func (c Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required for the neo4j driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RankerWorkers <= 0 {
		return fmt.Errorf("RANKER_WORKERS must be positive, got %d", c.RankerWorkers)
	}
	if c.ScorerTimeout <= 0 {
		return fmt.Errorf("SCORER_TIMEOUT must be positive, got %s", c.ScorerTimeout)
	}
	return nil
}

// Neo4jConfig returns the Neo4j connection settings
func (c Config) Neo4jConfig() database.Config {
	return database.Config{
		URI:      c.Neo4jURI,
		Username: c.Neo4jUsername,
		Password: c.Neo4jPassword,
		Database: c.Neo4jDatabase,
	}
}
