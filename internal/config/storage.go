package config

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/medibuddy/medibuddy/internal/repository"
	"github.com/medibuddy/medibuddy/internal/repository/memory"
	"github.com/medibuddy/medibuddy/internal/repository/postgres"
	"github.com/medibuddy/medibuddy/internal/repository/sqlite"
)

// OpenStore opens the medicine store selected by the DATABASE_URL scheme and
// runs migrations: "memory" for an ephemeral store, a postgres:// DSN for
// PostgreSQL, anything else is treated as a SQLite file path.
func OpenStore(databaseURL, migrationsPath string, logger *logrus.Logger) (repository.MedicineStore, error) {
	switch {
	case databaseURL == "memory":
		logger.Info("Using in-memory store; data will not survive a restart")
		return memory.NewMedicineStore(), nil

	case strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := openPostgres(databaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := migratePostgres(db, migrationsPath, logger); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.NewMedicineStore(db), nil

	default:
		db, err := sqlite.Open(databaseURL)
		if err != nil {
			return nil, err
		}
		logger.Infof("SQLite store opened at %s", databaseURL)
		if err := migrateSQLite(db.DB, migrationsPath, logger); err != nil {
			db.Close()
			return nil, err
		}
		return sqlite.NewMedicineStore(db), nil
	}
}

func openPostgres(databaseURL string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")
	return db, nil
}

func migratePostgres(db *sql.DB, migrationsPath string, logger *logrus.Logger) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	return runMigrations(driver, "postgres", migrationsPath, logger)
}

func migrateSQLite(db *sql.DB, migrationsPath string, logger *logrus.Logger) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	return runMigrations(driver, "sqlite", migrationsPath, logger)
}

func runMigrations(driver database.Driver, name, migrationsPath string, logger *logrus.Logger) error {
	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		name,
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
