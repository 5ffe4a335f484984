package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/vcfbot/internal/config"
)

const trackingTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// migration is one .sql file, applied in file-name order.
type migration struct {
	Name string
	SQL  string
}

func main() {
	dir := "migrations"
	configPath := ""
	status := false
	for _, a := range os.Args[1:] {
		switch {
		case a == "--status":
			status = true
		case strings.HasPrefix(a, "--config="):
			configPath = strings.TrimPrefix(a, "--config=")
		default:
			dir = a
		}
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.History.DatabaseURL == "" {
		log.Fatal("DATABASE_URL (or history.database_url) is required")
	}

	db, err := sql.Open("postgres", cfg.History.DatabaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	migrations, err := readMigrations(dir)
	if err != nil {
		log.Fatal(err)
	}
	if status {
		err = printStatus(ctx, db, migrations, os.Stdout)
	} else {
		err = apply(ctx, db, migrations, os.Stdout)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// readMigrations loads the non-empty .sql files of dir sorted by name.
func readMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, migration{Name: e.Name(), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func applied(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	if _, err := db.ExecContext(ctx, trackingTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()
	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

// apply runs every pending migration in its own transaction together with
// its schema_migrations row. The first failure stops the run, since later
// files may depend on it.
func apply(ctx context.Context, db *sql.DB, migrations []migration, out io.Writer) error {
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}
	var n int
	for _, m := range migrations {
		if done[m.Name] {
			continue
		}
		fmt.Fprintf(out, "  %s ... ", m.Name)
		if err := applyOne(ctx, db, m); err != nil {
			fmt.Fprintln(out, "ERROR")
			return err
		}
		fmt.Fprintln(out, "OK")
		n++
	}
	fmt.Fprintf(out, "Done: %d applied, %d already up to date\n", n, len(migrations)-n)
	return nil
}

func applyOne(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: record: %w", m.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", m.Name, err)
	}
	return nil
}

func printStatus(ctx context.Context, db *sql.DB, migrations []migration, out io.Writer) error {
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		state := "pending"
		if done[m.Name] {
			state = "applied"
		}
		fmt.Fprintf(out, "  %-40s %s\n", m.Name, state)
	}
	return nil
}
