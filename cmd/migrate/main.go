// Command migrate manages the BidHouse PostgreSQL schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bidhouse/backend/internal/infrastructure/config"
	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"github.com/bidhouse/backend/internal/infrastructure/migration"
	"github.com/bidhouse/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

// dbCommand runs against an open migrator
type dbCommand struct {
	usage string
	nargs int
	run   func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var dbCommands = map[string]dbCommand{
	"up":   {run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }},
	"down": {run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }},
	"step": {usage: "migrate step <n>", nargs: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}},
	"goto": {usage: "migrate goto <version>", nargs: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(v))
	}},
	"force": {usage: "migrate force <version>", nargs: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)
	}},
	"drop": {usage: "migrate drop -confirm", run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if len(args) == 0 || (args[0] != "-confirm" && args[0] != "--confirm") {
			return errors.New("drop removes every table, rerun with -confirm")
		}
		return m.Drop()
	}},
	"status": {run: printStatus},
}

func main() {
	dir := flag.String("path", "", "migrations directory (default ./migrations)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(args[0], args[1:], resolveDir(*dir), *embedded, log); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(name string, args []string, dir string, embedded bool, log *zap.Logger) error {
	switch name {
	case "create":
		if len(args) == 0 {
			return errors.New("usage: migrate create <name> [description]")
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		mf, err := migration.CreateMigration(dir, args[0], desc)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.Uint("version", mf.Version),
			zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil
	case "list":
		files, err := migration.ListMigrations(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%06d  %s\n", f.Version, f.Name)
		}
		return nil
	case "version":
		name = "status"
	}

	cmd, ok := dbCommands[name]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) < cmd.nargs {
		return fmt.Errorf("usage: %s", cmd.usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if embedded {
		m, err = migration.NewFromFS(db, migrations.FS, ".", log)
	} else {
		m, err = migration.New(db, dir, log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	// also closes db
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn("Closing migrator", zap.Error(cerr))
		}
	}()

	log.Debug("Running migration command", zap.String("command", name), zap.String("dir", dir), zap.Bool("embedded", embedded))
	return cmd.run(m, args, log)
}

func printStatus(m *migration.Migrator, _ []string, log *zap.Logger) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	if st.Version == 0 {
		log.Info("No migrations applied")
		return nil
	}
	log.Info("Schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
	return nil
}

// resolveDir prefers an explicit path, then ./migrations, then the
// directory two levels above the executable
func resolveDir(dir string) string {
	if dir == "" {
		dir = defaultMigrationsDir
		if _, err := os.Stat(dir); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsDir)
				if _, err := os.Stat(candidate); err == nil {
					dir = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: migrate [-path dir] [-embedded] [-log-level lvl] <command> [args]

  up | down               apply or roll back everything
  step <n>                apply n migrations, negative rolls back
  goto <version>          migrate to version
  status                  show applied version and dirty flag
  force <version>         record version without running it
  drop -confirm           drop every table
  create <name> [desc]    write a new up/down pair
  list                    list migrations on disk

Database settings come from config.toml or BIDHOUSE_DATABASE_* variables.
`)
}
