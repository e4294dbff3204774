package storage

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"afrochain-auth-go/internal/platform/errors"
)

// Open connects to the SQLite database behind the given DSN and applies all
// pending migrations. The parent directory is created when the DSN points at
// a plain file path.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New(errors.KindStorage, "storage.open", "empty dsn")
	}

	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(errors.KindStorage, "storage.open", "create data directory", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "open sqlite database", err)
	}

	// SQLite allows a single writer; serialize access instead of failing
	// with SQLITE_BUSY under concurrent logins.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "unwrap sql.DB", err)
	}
	sqlDB.SetMaxOpenConns(1)

	manager := NewMigrationManager(db)
	manager.AddMigration(&initialMigration{})
	if err := manager.RunMigrations(); err != nil {
		return nil, err
	}
	return db, nil
}
