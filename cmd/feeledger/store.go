package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/feeledger/internal/config"
	"github.com/Veraticus/feeledger/internal/ledger"
	"github.com/Veraticus/feeledger/internal/model"
	"github.com/Veraticus/feeledger/internal/service"
	"github.com/Veraticus/feeledger/internal/sheets"
	"github.com/Veraticus/feeledger/internal/storage"
)

// openStore connects the configured value store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.ValueStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSheets:
		client, err := sheets.NewClient(ctx, cfg.Sheets, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Google Sheets: %w", err)
		}
		logger.Info("Using Google Sheets store", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
		return client, func() {}, nil

	case config.DriverSQLite:
		db, err := storage.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database", "error", err)
			}
		}
		if err := db.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if err := db.EnsureSheets(ctx, model.SheetNames...); err != nil {
			closeDB()
			return nil, nil, err
		}
		logger.Info("Using SQLite store", "path", cfg.Store.SQLitePath)
		return db, closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openLedger loads the configuration and builds a ledger over its store.
func openLedger(ctx context.Context) (*ledger.Service, *config.Config, func(), error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, nil, err
	}

	logger := slog.Default()
	store, release, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	l, err := ledger.New(store, cfg.Ledger, logger)
	if err != nil {
		release()
		return nil, nil, nil, err
	}
	return l, cfg, release, nil
}
