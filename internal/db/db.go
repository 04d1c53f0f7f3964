package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/config"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// NewDatabase opens the postgres pool and verifies it answers.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return open("postgres", cfg.DSN())
}

func open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L().Info("database connection established")
	return db, nil
}
