package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parkwise/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteProvider struct {
	SQLProvider
}

func NewSQLiteProvider(config *config.Storage) (*SQLiteProvider, error) {
	path := config.SQLite.Path
	if path == "" {
		return nil, fmt.Errorf("sqlite path is not set")
	}

	inMemory := path == ":memory:" || strings.Contains(path, "mode=memory")
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	provider, err := NewSQLProvider(config, "sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer. A single connection keeps writes serialized
	// and lets an in-memory database survive between queries.
	provider.db.SetMaxOpenConns(1)

	return &SQLiteProvider{
		SQLProvider: *provider,
	}, nil
}
