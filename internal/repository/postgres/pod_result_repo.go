package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"podrecon/internal/domain"
	"podrecon/internal/port"
)

type podResultRepo struct {
	db sqlx.ExtContext
}

// NewPODResultRepo creates a new PostgreSQL-backed PODResultRepository.
func NewPODResultRepo(db *sqlx.DB) port.PODResultRepository {
	return &podResultRepo{db: db}
}

// CreateBatch inserts every result of a batch in one transaction. Inside a
// Transactor it joins the surrounding transaction.
func (r *podResultRepo) CreateBatch(ctx context.Context, results []domain.PODResult) error {
	if len(results) == 0 {
		return nil
	}
	if db, ok := r.db.(*sqlx.DB); ok {
		return NewTransactor(db).WithinTx(ctx, func(_ port.ParcelRepository, rr port.PODResultRepository) error {
			return rr.CreateBatch(ctx, results)
		})
	}

	query := `INSERT INTO pod_results
		(id, batch_id, position, file_name, media_type, status, error_kind, error_detail,
		 parcel_id, record, candidates, attempts, object_key, created_at)
		VALUES (:id, :batch_id, :position, :file_name, :media_type, :status, :error_kind,
		 :error_detail, :parcel_id, :record, :candidates, :attempts, :object_key, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, results); err != nil {
		return fmt.Errorf("podResultRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *podResultRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.PODResult, error) {
	var results []domain.PODResult
	err := sqlx.SelectContext(ctx, r.db, &results,
		"SELECT * FROM pod_results WHERE batch_id = $1 ORDER BY position", batchID)
	if err != nil {
		return nil, fmt.Errorf("podResultRepo.ListByBatch: %w", err)
	}
	return results, nil
}
