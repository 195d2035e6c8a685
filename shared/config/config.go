// shared/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	LockLocal = "local"
	LockRedis = "redis"
)

// CommonConfig holds configuration fields that are shared across services.
type CommonConfig struct {
	RedisAddrs              []string      `env:"REDIS_ADDRS" envSeparator:"," envDefault:"localhost:6379"`
	RedisPassword           string        `env:"REDIS_PASSWORD"`
	RegistryEnabled         bool          `env:"SERVICE_REGISTRY_ENABLED" envDefault:"false"`
	HeartbeatInterval       time.Duration `env:"SERVICE_HEARTBEAT_INTERVAL" envDefault:"5s"`
	HeartbeatTTL            time.Duration `env:"SERVICE_HEARTBEAT_TTL" envDefault:"15s"`
	RegistryCleanupInterval time.Duration `env:"SERVICE_REGISTRY_CLEANUP_INTERVAL" envDefault:"30s"`
	// ServiceIP is the address advertised in the registry (the Kubernetes Pod IP).
	ServiceIP string `env:"POD_IP"`
	// ServicePort is derived from the listen address.
	ServicePort int
}

// TeamServiceConfig holds configuration specific to the team-service.
type TeamServiceConfig struct {
	CommonConfig

	ListenAddr   string `env:"TEAM_SERVICE_LISTEN_ADDR" envDefault:":8080"`
	StoreBackend string `env:"TEAM_STORE_BACKEND" envDefault:"mongo"`

	MongoDBConnStr           string `env:"MONGODB_CONN_STR" envDefault:"mongodb://localhost:27017"`
	MongoDBDatabase          string `env:"MONGODB_DATABASE" envDefault:"teams"`
	MongoDBPlayersCollection string `env:"MONGODB_PLAYERS_COLLECTION" envDefault:"players"`
	MongoDBTeamCollection    string `env:"MONGODB_TEAM_COLLECTION" envDefault:"teams"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	LockBackend     string        `env:"TEAM_LOCK_BACKEND" envDefault:"local"`
	LockTTL         time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	LockWaitTimeout time.Duration `env:"LOCK_WAIT_TIMEOUT" envDefault:"5s"`

	TokenDigest       string        `env:"TOKEN_DIGEST" envDefault:"sha256"`
	TeamCreationCost  int64         `env:"TEAM_CREATION_COST" envDefault:"0"`
	TeamSampleLimit   int           `env:"TEAM_SAMPLE_LIMIT" envDefault:"10"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	SeedDemoData      bool          `env:"SEED_DEMO_DATA" envDefault:"false"`
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *TeamServiceConfig) NeedsRedis() bool {
	return c.LockBackend == LockRedis || c.RegistryEnabled
}

// Validate rejects settings that cannot work together.
func (c *TeamServiceConfig) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreMongo:
		if c.MongoDBConnStr == "" || c.MongoDBDatabase == "" {
			errs = append(errs, errors.New("MONGODB_CONN_STR and MONGODB_DATABASE are required for the mongo store"))
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("TEAM_STORE_BACKEND must be one of mongo, postgres, memory (got %q)", c.StoreBackend))
	}

	switch c.LockBackend {
	case LockLocal, LockRedis:
	default:
		errs = append(errs, fmt.Errorf("TEAM_LOCK_BACKEND must be local or redis (got %q)", c.LockBackend))
	}
	if c.NeedsRedis() && len(c.RedisAddrs) == 0 {
		errs = append(errs, errors.New("REDIS_ADDRS is required for the redis lock backend and the service registry"))
	}

	if c.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("LOCK_TTL must be positive (got %s)", c.LockTTL))
	}
	if c.LockWaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LOCK_WAIT_TIMEOUT must be positive (got %s)", c.LockWaitTimeout))
	}
	if c.TeamCreationCost < 0 {
		errs = append(errs, fmt.Errorf("TEAM_CREATION_COST must not be negative (got %d)", c.TeamCreationCost))
	}
	if c.TeamSampleLimit <= 0 {
		errs = append(errs, fmt.Errorf("TEAM_SAMPLE_LIMIT must be positive (got %d)", c.TeamSampleLimit))
	}
	if c.ReconcileInterval < 0 {
		errs = append(errs, fmt.Errorf("RECONCILE_INTERVAL must not be negative (got %s)", c.ReconcileInterval))
	}
	if c.RegistryEnabled && c.HeartbeatTTL <= c.HeartbeatInterval {
		errs = append(errs, fmt.Errorf("SERVICE_HEARTBEAT_TTL (%s) must exceed SERVICE_HEARTBEAT_INTERVAL (%s)", c.HeartbeatTTL, c.HeartbeatInterval))
	}
	return errors.Join(errs...)
}

// loadDotEnv loads TEAM_SERVICE_ENV_FILE (default .env) without overriding variables already set.
func loadDotEnv() error {
	path := os.Getenv("TEAM_SERVICE_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("INFO: No env file at %s, using process environment only.", path)
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	log.Printf("INFO: Loaded environment from %s.", path)
	return nil
}

// LoadTeamServiceConfig loads configuration for the team-service.
func LoadTeamServiceConfig() (*TeamServiceConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &TeamServiceConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse team-service config: %w", err)
	}

	if cfg.ServiceIP == "" {
		cfg.ServiceIP = "0.0.0.0"
		log.Printf("WARN: POD_IP not set, defaulting ServiceIP to %s", cfg.ServiceIP)
	}

	var err error
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from TEAM_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid team-service config: %w", err)
	}
	return cfg, nil
}

// extractPort extracts the numeric port from a listen address (":8082" -> 8082, "0.0.0.0:8082" -> 8082).
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if !strings.HasPrefix(listenAddr, ":") {
			return 0, fmt.Errorf("invalid listen address format for port extraction: %w", err)
		}
		portStr = strings.TrimPrefix(listenAddr, ":")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
