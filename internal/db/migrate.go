package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the schema migrations in lexical order. When dir is
// set and exists its .sql files are used instead of the embedded ones, which
// lets deployments patch the schema without rebuilding.
func RunMigrations(db *sql.DB, dir string) error {
	names, read, err := migrationSource(dir)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := read(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if len(data) == 0 {
			continue
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	return nil
}

func migrationSource(dir string) (names []string, read func(string) ([]byte, error), err error) {
	if dir != "" {
		entries, derr := os.ReadDir(dir)
		switch {
		case derr == nil:
			for _, e := range entries {
				if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
					names = append(names, e.Name())
				}
			}
			return names, func(n string) ([]byte, error) { return os.ReadFile(filepath.Join(dir, n)) }, nil
		case !errors.Is(derr, os.ErrNotExist):
			return nil, nil, fmt.Errorf("read migrations dir: %w", derr)
		}
	}
	entries, derr := embeddedMigrations.ReadDir("migrations")
	if derr != nil {
		return nil, nil, fmt.Errorf("read embedded migrations: %w", derr)
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	return names, func(n string) ([]byte, error) { return embeddedMigrations.ReadFile(filepath.Join("migrations", n)) }, nil
}
