package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Migrate applies every embedded *.up.sql file that is not yet recorded in
// schema_migrations, in lexical order, each inside its own transaction.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var upMigrations []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upMigrations = append(upMigrations, e.Name())
		}
	}
	sort.Strings(upMigrations)

	for _, migration := range upMigrations {
		var exists bool
		err := d.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, migration).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration, err)
		}
		if exists {
			continue
		}

		sqlBytes, err := migrationFiles.ReadFile("migrations/" + migration)
		if err != nil {
			return fmt.Errorf("failed to read sql file %s: %w", migration, err)
		}

		err = d.RunAtomic(ctx, func(ctx context.Context) error {
			if _, err := d.executor(ctx).Exec(ctx, string(sqlBytes)); err != nil {
				return fmt.Errorf("failed to apply %s: %w", migration, err)
			}
			if _, err := d.executor(ctx).Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, migration); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Printf("applied migration %s", migration)
	}

	return nil
}
