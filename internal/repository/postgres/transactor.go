package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"podrecon/internal/port"
)

type transactor struct {
	db *sqlx.DB
}

// NewTransactor creates a Transactor over a PostgreSQL connection pool.
func NewTransactor(db *sqlx.DB) port.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(port.ParcelRepository, port.PODResultRepository) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transactor.WithinTx begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&parcelRepo{db: tx}, &podResultRepo{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transactor.WithinTx commit: %w", err)
	}
	return nil
}
