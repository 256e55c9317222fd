package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/dealerhub/pkg/db"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var embeddedMigrations embed.FS

const (
	postgresDir = "sql/postgres"
	sqliteDir   = "sql/sqlite"
)

// Run brings the registry schema up to date for the configured dialect.
func Run(conn *sql.DB, dbType string) error {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case db.TypeSQLite:
		return ApplySQLite(conn)
	default:
		return RunMigrations(conn)
	}
}

// RunMigrations applies the versioned postgres migrations. The registry
// tables, partial unique indexes and trigram indexes are created on startup.
func RunMigrations(conn *sql.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, postgresDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// ApplySQLite executes the embedded sqlite schema. Every statement is
// idempotent so it is safe to run on each start.
func ApplySQLite(conn *sql.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	files, err := fs.Glob(embeddedMigrations, sqliteDir+"/*.up.sql")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	for _, name := range files {
		body, err := embeddedMigrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(body)) {
			if _, err := conn.Exec(stmt); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}
	return nil
}

func splitStatements(body string) []string {
	parts := strings.Split(body, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
