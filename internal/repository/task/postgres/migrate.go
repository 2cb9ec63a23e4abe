package postgres

import (
	"embed"
	"errors"
	"fmt"
	"taskflow/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrate(connString string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, connString)
	if err != nil {
		return nil, fmt.Errorf("подключение мигратора: %w", err)
	}
	return m, nil
}

// MigrateUp применяет все миграции схемы tasks
func MigrateUp(connString string) error {
	return runMigrate(connString, "up", func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown откатывает все миграции
func MigrateDown(connString string) error {
	return runMigrate(connString, "down", func(m *migrate.Migrate) error { return m.Down() })
}

func runMigrate(connString, direction string, run func(*migrate.Migrate) error) error {
	m, err := newMigrate(connString)
	if err != nil {
		logger.Error("Repository: Ошибка создания мигратора", err)
		return err
	}
	defer m.Close()

	if err := run(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Repository: Схема уже актуальна", zap.String("direction", direction))
			return nil
		}
		logger.Error("Repository: Ошибка миграции", err, zap.String("direction", direction))
		return fmt.Errorf("миграция %s: %w", direction, err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: Миграция выполнена",
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}
