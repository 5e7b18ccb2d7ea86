package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured store and migrates the schema.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode,
		)
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dsn, err := sqliteDSN(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if conn.Dialector.Name() == DriverSQLite {
		// SQLite has a single writer and no row locks; one connection turns
		// every transaction into an exclusive one.
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", errors.New("SQLITE_PATH is empty")
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create db dir: %w", err)
			}
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_foreign_keys=1", nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Author{}, &models.Book{}, &models.BorrowRecord{}); err != nil {
		return err
	}

	// 当前借出记录按借出时间查询
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_outstanding_book_borrowdate
	  ON %s (book_id, borrow_date)
	  WHERE return_date IS NULL;
	`, models.BorrowRecordTable, models.BorrowRecordTable)).Error; err != nil {
		return err
	}

	// 报表按月扫描
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_borrowdate_book
	  ON %s (borrow_date, book_id);
	`, models.BorrowRecordTable, models.BorrowRecordTable)).Error; err != nil {
		return err
	}

	return nil
}
