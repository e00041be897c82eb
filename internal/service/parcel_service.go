package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/port"
)

// CreateParcelInput is the DTO for registering a parcel.
type CreateParcelInput struct {
	ID           string `json:"id" binding:"required"`
	LRNumber     string `json:"lr_number"`
	LRDate       string `json:"lr_date"`
	OrderID      string `json:"order_id"`
	SerialNumber string `json:"serial_number"`
	Carrier      string `json:"carrier"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	Status       string `json:"status"`
}

// ParcelService defines the parcel management contract.
type ParcelService interface {
	Create(ctx context.Context, input CreateParcelInput) (*domain.ParcelRecord, error)
	GetByID(ctx context.Context, id string) (*domain.ParcelRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.ParcelRecord, int, error)
	GetPODDownloadURL(ctx context.Context, id string) (string, error)
}

type parcelService struct {
	parcelRepo port.ParcelRepository
	storage    port.ObjectStorage
	cfg        *config.S3Config
}

// NewParcelService creates a new ParcelService implementation.
func NewParcelService(parcelRepo port.ParcelRepository, storage port.ObjectStorage, cfg *config.S3Config) ParcelService {
	return &parcelService{
		parcelRepo: parcelRepo,
		storage:    storage,
		cfg:        cfg,
	}
}

func (s *parcelService) Create(ctx context.Context, input CreateParcelInput) (*domain.ParcelRecord, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, domain.ErrInvalidParcel
	}
	parcel := &domain.ParcelRecord{
		ID:           id,
		LRNumber:     strings.TrimSpace(input.LRNumber),
		LRDate:       strings.TrimSpace(input.LRDate),
		OrderID:      strings.TrimSpace(input.OrderID),
		SerialNumber: strings.TrimSpace(input.SerialNumber),
		Carrier:      strings.TrimSpace(input.Carrier),
		Source:       strings.TrimSpace(input.Source),
		Destination:  strings.TrimSpace(input.Destination),
		Status:       strings.TrimSpace(input.Status),
	}
	if err := s.parcelRepo.Create(ctx, parcel); err != nil {
		return nil, err
	}
	zap.L().Info("parcelService.Create: parcel created", zap.String("parcel_id", parcel.ID))
	return parcel, nil
}

func (s *parcelService) GetByID(ctx context.Context, id string) (*domain.ParcelRecord, error) {
	return s.parcelRepo.GetByID(ctx, id)
}

func (s *parcelService) List(ctx context.Context, offset, limit int) ([]domain.ParcelRecord, int, error) {
	return s.parcelRepo.List(ctx, offset, limit)
}

func (s *parcelService) GetPODDownloadURL(ctx context.Context, id string) (string, error) {
	parcel, err := s.parcelRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if parcel.PODObjectKey == nil || *parcel.PODObjectKey == "" || s.storage == nil {
		return "", domain.ErrPODNotArchived
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, *parcel.PODObjectKey, s.cfg.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("generating download URL: %w", err)
	}
	return url, nil
}
