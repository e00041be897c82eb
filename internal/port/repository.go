package port

import (
	"context"

	"github.com/google/uuid"

	"podrecon/internal/domain"
)

// ParcelRepository defines the contract for parcel persistence.
type ParcelRepository interface {
	Create(ctx context.Context, parcel *domain.ParcelRecord) error
	GetByID(ctx context.Context, id string) (*domain.ParcelRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.ParcelRecord, int, error)
	// ListAll returns every parcel in a stable order (created_at, id).
	ListAll(ctx context.Context) ([]domain.ParcelRecord, error)
	UpdatePOD(ctx context.Context, parcel *domain.ParcelRecord) error
	SetPODObjectKey(ctx context.Context, id, key string) error
}

// PODResultRepository defines the contract for per-document audit rows.
type PODResultRepository interface {
	CreateBatch(ctx context.Context, results []domain.PODResult) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.PODResult, error)
}

// Transactor runs a unit of work against repositories that share one
// database transaction. The transaction commits when fn returns nil and
// rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(parcels ParcelRepository, results PODResultRepository) error) error
}
