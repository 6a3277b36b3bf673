package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/pg"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

var config *Config

// Config holds every configuration value of the service. Only this struct is
// used to read configuration; no package reads the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=smart_wakala"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR,default=:8080"`

	DBDriver   string `env:"DB_DRIVER,default=postgres"`
	SQLitePath string `env:"SQLITE_PATH,default=wakala.db"`
	DBTrace    bool   `env:"DB_TRACE"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=wakala:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=wakala"`

	SessionTTL     time.Duration `env:"SESSION_TTL,default=12h"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL,default=24h"`

	ProviderGatewayURL     string        `env:"PROVIDER_GATEWAY_URL"`
	ProviderGatewayTimeout time.Duration `env:"PROVIDER_GATEWAY_TIMEOUT,default=5s"`
	ProviderGatewayRetries int           `env:"PROVIDER_GATEWAY_RETRIES,default=3"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if err = c.Validate(); err != nil {
		return err
	}

	config = c
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DBDriverPostgres:
		if c.PostgresWriteHost == "" {
			return errors.New("POSTGRES_WRITE_HOST is required for the postgres driver")
		}
	case DBDriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return errors.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// IsDev reports whether the service runs in the dev environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// PostgresWriteConfig returns the primary connection settings.
func (c *Config) PostgresWriteConfig() pg.Config {
	return pg.Config{
		User:     c.PostgresWriteUser,
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
		Trace:    c.DBTrace,
	}
}

// PostgresReadConfig returns the replica connection settings, falling back to
// the primary when no read host is configured.
func (c *Config) PostgresReadConfig() pg.Config {
	if c.PostgresReadHost == "" {
		return c.PostgresWriteConfig()
	}
	return pg.Config{
		User:     c.PostgresReadUser,
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
		Trace:    c.DBTrace,
	}
}

// EnvPathFromArgs returns the value of a --env=path argument, or fallback when
// none is passed. An unreadable file yields an empty path.
func EnvPathFromArgs(args []string, fallback string) string {
	path := fallback
	for _, v := range args {
		if p, ok := strings.CutPrefix(v, "--env="); ok {
			path = p
			break
		}
	}
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn("env file is not readable, using the environment only", "path", path, "error", err)
		return ""
	}
	return path
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
