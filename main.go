package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"tunefeed/crud"
	"tunefeed/http"
	"tunefeed/logger"
	"tunefeed/storage"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	resetBool := flag.Bool("reset", false, "Drop and recreate all tables before the application starts. Refused in production.")
	flag.Parse()

	// Load configuration from a .config.json file if present, otherwise use the default dev setup.
	// If *productionBool evaluates to true, the .config.json file is required.
	config, err := LoadConfig(*productionBool)
	must(err)

	must(logger.Initialize(config.Log.Level, config.Log.File, config.IsProd()))
	defer logger.Close()

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.Dialect, config.Database.ConnectionInfo())
	must(Open(db, config.IsProd()))
	defer Close(db)
	if *resetBool {
		if config.IsProd() {
			must(fmt.Errorf("refusing to reset the database in production"))
		}
		must(DestructiveReset(db))
	} else {
		must(AutoMigrate(db))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, config.Storage)
	must(err)

	// Start the crud services. Services that use other services come after them.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithUser(config.Pepper, config.HMACKey),
		crud.WithPost(),
		crud.WithComment(),
		crud.WithFeed(),
		crud.WithBlob(backend),
		crud.WithPlaylist(),
	)
	must(err)

	// Set up a webserver and serve the app until we receive a signal.
	server := http.NewServer(config.IsProd(), config.CSRFKey, services)
	if err := server.Run(ctx, ":"+strconv.Itoa(config.Port)); err != nil {
		logger.Log.Error("server stopped", zap.Error(err))
	}
}

// newBackend creates the storage backend for uploaded media.
func newBackend(ctx context.Context, cfg StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "filesystem", "":
		return storage.NewFilesystem(cfg.Dir)
	case "minio":
		m, err := storage.NewMinio(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
