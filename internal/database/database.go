package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gestao/internal/config"
	"gestao/internal/snapshots"
)

// SnapshotDatabaseName is the sqlite file inside the storage directory
const SnapshotDatabaseName = "snapshots.db"

// DBManager owns the sqlite connection backing the snapshot cache
type DBManager struct {
	path   string
	db     *gorm.DB
	logger *slog.Logger
}

// NewDBManager creates a manager for the snapshot database in cfg's storage directory
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	return &DBManager{
		path:   filepath.Join(cfg.StoragePath, SnapshotDatabaseName),
		logger: logger,
	}
}

// Init opens the database, creating the storage directory when needed
func (dm *DBManager) Init() error {
	if err := os.MkdirAll(filepath.Dir(dm.path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", dm.path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access snapshot database: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	dm.db = db
	dm.logger.Debug("Snapshot database opened", slog.String("path", dm.path))
	return nil
}

func (dm *DBManager) GetConnection() *gorm.DB {
	return dm.db
}

// MigrateDatabase runs the snapshot migrations
func (dm *DBManager) MigrateDatabase() error {
	if dm.db == nil {
		return gorm.ErrInvalidDB
	}
	if err := snapshots.Migrate(dm.db); err != nil {
		dm.logger.Error("Failed to migrate snapshot database", slog.Any("error", err))
		return err
	}
	return nil
}

func (dm *DBManager) Close() error {
	if dm.db == nil {
		return nil
	}
	sqlDB, err := dm.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
