// AngelaMos | 2026
// migrations.go

// Package migrations embeds the schema and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed *.sql
var files embed.FS

// Migrator wraps a migrate instance bound to the embedded schema.
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

// Open connects to databaseURL and prepares the embedded migrations.
func Open(databaseURL string) (*Migrator, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	m, err := NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Migrator{m: m, db: db}, nil
}

// NewWithDB builds a migrate instance over an existing connection pool.
// Closing the instance closes db as well.
func NewWithDB(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("init migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	return m, nil
}

// Up applies every pending migration. It reports false when the schema was
// already current.
func (g *Migrator) Up() (bool, error) {
	return changed(g.m.Up())
}

// Down rolls back the most recent migration.
func (g *Migrator) Down() error {
	if err := g.m.Steps(-1); err != nil {
		return fmt.Errorf("roll back: %w", err)
	}
	return nil
}

// Goto migrates up or down to version.
func (g *Migrator) Goto(version uint) (bool, error) {
	return changed(g.m.Migrate(version))
}

// Version returns the applied version; ok is false on an empty schema.
func (g *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("read version: %w", err)
	}
	return version, dirty, true, nil
}

func (g *Migrator) Close() error {
	sourceErr, dbErr := g.m.Close()
	closeErr := g.db.Close()
	return errors.Join(sourceErr, dbErr, closeErr)
}

func changed(err error) (bool, error) {
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("migrate: %w", err)
	}
	return true, nil
}
