package test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/eleganza/storefront/config"
	"github.com/eleganza/storefront/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
)

// startDB spins up a throwaway postgres container for one test and waits for
// it to accept connections. The container and the handle are torn down with
// the test.
func startDB(t *testing.T, name string) (*sqlx.DB, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}
	pool.MaxWait = 2 * time.Minute

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(config.DB{
			User:       "postgres",
			Password:   "postgres",
			Host:       net.JoinHostPort("localhost", res.GetPort("5432/tcp")),
			Name:       name,
			DisableTLS: true,
		})
		if err != nil {
			return err
		}
		return db.Ping()
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, nil
}
