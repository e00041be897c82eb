package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"podrecon/internal/domain"
	"podrecon/internal/port"
)

// parcelRepo runs against the pool or, inside a Transactor, a transaction.
type parcelRepo struct {
	db sqlx.ExtContext
}

// NewParcelRepo creates a new PostgreSQL-backed ParcelRepository.
func NewParcelRepo(db *sqlx.DB) port.ParcelRepository {
	return &parcelRepo{db: db}
}

func (r *parcelRepo) Create(ctx context.Context, parcel *domain.ParcelRecord) error {
	now := time.Now().UTC()
	parcel.CreatedAt = now
	parcel.UpdatedAt = now

	query := `INSERT INTO parcels
		(id, lr_number, lr_date, order_id, serial_number, carrier, source, destination,
		 status, created_at, updated_at)
		VALUES (:id, :lr_number, :lr_date, :order_id, :serial_number, :carrier, :source,
		 :destination, :status, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, parcel)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateParcel
		}
		return fmt.Errorf("parcelRepo.Create: %w", err)
	}
	return nil
}

func (r *parcelRepo) GetByID(ctx context.Context, id string) (*domain.ParcelRecord, error) {
	var parcel domain.ParcelRecord
	err := sqlx.GetContext(ctx, r.db, &parcel, "SELECT * FROM parcels WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrParcelNotFound
		}
		return nil, fmt.Errorf("parcelRepo.GetByID: %w", err)
	}
	return &parcel, nil
}

func (r *parcelRepo) List(ctx context.Context, offset, limit int) ([]domain.ParcelRecord, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) FROM parcels"); err != nil {
		return nil, 0, fmt.Errorf("parcelRepo.List count: %w", err)
	}

	var parcels []domain.ParcelRecord
	err := sqlx.SelectContext(ctx, r.db, &parcels,
		"SELECT * FROM parcels ORDER BY created_at DESC, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("parcelRepo.List: %w", err)
	}
	return parcels, total, nil
}

func (r *parcelRepo) ListAll(ctx context.Context) ([]domain.ParcelRecord, error) {
	var parcels []domain.ParcelRecord
	err := sqlx.SelectContext(ctx, r.db, &parcels, "SELECT * FROM parcels ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("parcelRepo.ListAll: %w", err)
	}
	return parcels, nil
}

func (r *parcelRepo) UpdatePOD(ctx context.Context, parcel *domain.ParcelRecord) error {
	parcel.UpdatedAt = time.Now().UTC()
	query := `UPDATE parcels SET
		awb_number = :awb_number,
		signature_status = :signature_status,
		stamp_status = :stamp_status,
		recipient_name = :recipient_name,
		recipient_address = :recipient_address,
		actual_weight = :actual_weight,
		number_of_boxes = :number_of_boxes,
		invoice_number = :invoice_number,
		eway_bill_number = :eway_bill_number,
		damage_comments = :damage_comments,
		pod_processed = :pod_processed,
		pod_file_name = :pod_file_name,
		pod_processed_at = :pod_processed_at,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, parcel)
	if err != nil {
		return fmt.Errorf("parcelRepo.UpdatePOD: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrParcelNotFound
	}
	return nil
}

func (r *parcelRepo) SetPODObjectKey(ctx context.Context, id, key string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE parcels SET pod_object_key = $1, updated_at = $2 WHERE id = $3",
		key, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("parcelRepo.SetPODObjectKey: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrParcelNotFound
	}
	return nil
}
