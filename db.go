package main

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tunefeed/domain"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Dialect is either "postgres" or "sqlite".
	Dialect string
	// Connection info string containing database name, user, port etc.
	ConnectionInfo string
}

// NewDB returns a new instance of DB.
func NewDB(dialect, connectionInfo string) *DB {
	return &DB{
		Dialect:        dialect,
		ConnectionInfo: connectionInfo,
	}
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	if db.ConnectionInfo == "" {
		return fmt.Errorf("connectionInfo required")
	}
	cfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		// Makes unique index violations come back as gorm.ErrDuplicatedKey on every dialect.
		TranslateError: true,
	}
	if !isProd {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}
	var dialector gorm.Dialector
	switch db.Dialect {
	case "postgres", "":
		dialector = postgres.Open(db.ConnectionInfo)
	case "sqlite":
		dialector = sqlite.Open(db.ConnectionInfo)
	default:
		return fmt.Errorf("unsupported database dialect %q", db.Dialect)
	}
	db.Gorm, err = gorm.Open(dialector, cfg)
	if err != nil {
		return fmt.Errorf("err opening gorm %s connection: %w", db.Dialect, err)
	}
	if db.Dialect == "sqlite" {
		// sqlite allows a single writer; more connections only produce "database is locked".
		sqlDB, err := db.Gorm.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return nil
}

// models lists every table of the app, in an order that satisfies foreign keys.
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Blob{},
		&domain.Follow{},
		&domain.Post{},
		&domain.Media{},
		&domain.Comment{},
		&domain.Like{},
		&domain.Playlist{},
		&domain.PlaylistItem{},
	}
}

// AutoMigrate runs database migrations for all tables.
func AutoMigrate(db *DB) error {
	return db.Gorm.AutoMigrate(models()...)
}

// DestructiveReset drops all tables and rebuilds them.
func DestructiveReset(db *DB) error {
	if err := db.Gorm.Migrator().DropTable(models()...); err != nil {
		return err
	}
	return AutoMigrate(db)
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
