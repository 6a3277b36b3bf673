package pg

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"go.nhat.io/otelsql"
)

type Config struct {
	User     string `env:"USER"`
	Host     string `env:"HOST"`
	Port     string `env:"PORT"`
	Password string `env:"PASSWORD"`
	Database string `env:"DBNAME"`
	// Trace wraps the driver with OpenTelemetry spans and pool metrics.
	Trace bool `env:"TRACE"`
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", c.Host, c.User, c.Password, c.Database, c.Port)
}

func newSqlConnection(config Config) (*sql.DB, error) {
	driverName := "postgres"
	if config.Trace {
		name, err := otelsql.Register(driverName,
			otelsql.AllowRoot(),
			otelsql.TraceQueryWithoutArgs(),
			otelsql.WithDatabaseName(config.Database),
			otelsql.WithInstanceName(config.Host),
		)
		if err != nil {
			return nil, errors.Wrap(err, "register traced postgres driver")
		}
		driverName = name
	}

	db, err := sql.Open(driverName, config.DSN())
	if err != nil {
		return nil, err
	}

	if config.Trace {
		if err := otelsql.RecordStats(db, otelsql.WithDatabaseName(config.Database)); err != nil {
			return nil, errors.Wrap(err, "record db stats")
		}
	}
	return db, nil
}
