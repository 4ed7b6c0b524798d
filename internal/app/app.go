// Package app provides the application container and dependency injection.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/karthikpt1/mcpforge/internal/parser"
	"github.com/karthikpt1/mcpforge/internal/registry"
	"github.com/karthikpt1/mcpforge/internal/storage"
)

// Config holds application configuration.
type Config struct {
	Port   int
	DBPath string
	Debug  bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:   8080,
		DBPath: "./mcpforge.db",
		Debug:  false,
	}
}

// App is the main application container.
type App struct {
	Config          *Config
	DB              *sql.DB
	Logger          *slog.Logger
	ParserManager   *parser.Manager
	RegistryService *registry.Service
}

// New creates a new application instance.
func New(cfg *Config) (*App, error) {
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := registry.NewRepository(db)

	return &App{
		Config:          cfg,
		DB:              db,
		Logger:          logger,
		ParserManager:   parser.NewManager(),
		RegistryService: registry.NewService(repo),
	}, nil
}

// Close cleans up application resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
