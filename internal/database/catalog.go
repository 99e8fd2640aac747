// Package database opens and prepares the stores behind brickshelf.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"brickshelf/internal/config"
	"brickshelf/internal/models"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQL opens the relational database selected by cfg.DBDriver.
func OpenSQL(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSQLite:
		dialector = sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: sqliteDSN(cfg.SQLitePath)})
	default:
		return nil, &ConnectionError{Store: "catalog", Err: fmt.Errorf("unsupported driver %q", cfg.DBDriver)}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &ConnectionError{Store: cfg.DBDriver, Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &ConnectionError{Store: cfg.DBDriver, Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, &ConnectionError{Store: cfg.DBDriver, Err: err}
	}
	return db, nil
}

// sqliteDriverName is mattn/go-sqlite3 with a Unicode-aware lower().
const sqliteDriverName = "sqlite3_brickshelf"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// the built-in lower() folds ASCII only
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// sqliteDSN enables foreign keys so the theme reference is enforced, and
// makes every transaction take the write lock up front so concurrent
// writers queue on the busy timeout instead of failing with
// "database is locked".
func sqliteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// MigrateCatalog creates or updates the theme and set tables and their
// foreign key. It is safe to run repeatedly.
func MigrateCatalog(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.Theme{}, &models.Set{}); err != nil {
		return &ConnectionError{Store: "catalog", Err: fmt.Errorf("failed to migrate catalog schema: %w", err)}
	}
	return nil
}

// MigrateUsers creates the users table for the SQL user backend.
func MigrateUsers(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return &ConnectionError{Store: "users", Err: fmt.Errorf("failed to migrate users schema: %w", err)}
	}
	return nil
}

// CloseSQL releases the pool behind db.
func CloseSQL(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
