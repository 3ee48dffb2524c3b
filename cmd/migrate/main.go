// AngelaMos | 2026
// main.go

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/carterperez-dev/templates/isp-backend/migrations"
)

func main() {
	databaseURL := flag.String(
		"database-url",
		"",
		"postgres connection string (defaults to DATABASE_URL)",
	)
	flag.Usage = usage
	flag.Parse()

	if err := run(*databaseURL, flag.Args()); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(databaseURL string, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	m, err := migrations.Open(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			slog.Warn("close migrator", "error", err)
		}
	}()

	switch args[0] {
	case "up":
		changed, err := m.Up()
		if err != nil {
			return err
		}
		if !changed {
			slog.Info("schema already current")
			return nil
		}
		slog.Info("migrations applied")

	case "down":
		if err := m.Down(); err != nil {
			return err
		}
		slog.Info("rolled back last migration")

	case "goto":
		if len(args) < 2 {
			return errors.New("goto requires a version")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		changed, err := m.Goto(uint(version))
		if err != nil {
			return err
		}
		slog.Info("migrated to version", "version", version, "changed", changed)

	case "status":
		version, dirty, ok, err := m.Version()
		if err != nil {
			return err
		}
		if !ok {
			slog.Info("no migrations applied")
			return nil
		}
		slog.Info("schema version", "version", version, "dirty", dirty)

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-database-url url] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  up          apply all pending migrations")
	fmt.Fprintln(os.Stderr, "  down        roll back the last migration")
	fmt.Fprintln(os.Stderr, "  goto <v>    migrate up or down to version v")
	fmt.Fprintln(os.Stderr, "  status      print the applied version")
}
