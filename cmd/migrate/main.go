package main

import (
	"errors"
	"flag"
	"os"

	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/frostdev-ops/pma-goveelife/internal/database"
	"github.com/frostdev-ops/pma-goveelife/migrations"
	"github.com/frostdev-ops/pma-goveelife/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Usage = func() {
		os.Stderr.WriteString("Usage: migrate [-config path] <up|down|version>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	m, err := database.NewMigrator(db.DB, migrations.FS)
	if err != nil {
		log.WithError(err).Fatal("Failed to create migrate instance")
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.WithError(err).Fatal("An error occurred while migrating up")
		}
		log.Info("Migrations applied successfully")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.WithError(err).Fatal("An error occurred while migrating down")
		}
		log.Info("Migrations rolled back successfully")
	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.WithError(err).Fatal("Failed to read migration version")
		}
		log.WithField("version", v).WithField("dirty", dirty).Info("Migration version")
	default:
		log.Fatalf("Unknown command: %s. Use up, down or version.", command)
	}
}
