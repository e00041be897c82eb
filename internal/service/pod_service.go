package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/pipeline"
	"podrecon/internal/port"
)

// PODUpload is one uploaded proof-of-delivery file.
type PODUpload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// BatchReport summarises one processed batch.
type BatchReport struct {
	BatchID   uuid.UUID          `json:"batch_id"`
	Total     int                `json:"total"`
	Matched   int                `json:"matched"`
	Unmatched int                `json:"unmatched"`
	Failed    int                `json:"failed"`
	Outcomes  []pipeline.Outcome `json:"outcomes"`
}

// BatchProcessor runs extraction and matching over a batch of documents.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, docs []domain.RawDocument, parcels []domain.ParcelRecord) ([]pipeline.Outcome, error)
}

// PODService defines the proof-of-delivery reconciliation contract.
type PODService interface {
	ProcessBatch(ctx context.Context, uploads []PODUpload) (*BatchReport, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) ([]domain.PODResult, error)
}

type podService struct {
	parcelRepo port.ParcelRepository
	resultRepo port.PODResultRepository
	tx         port.Transactor
	storage    port.ObjectStorage
	processor  BatchProcessor
	s3Cfg      *config.S3Config
	uploadCfg  *config.UploadConfig
	eligible   map[string]bool
	now        func() time.Time
}

// NewPODService creates a new PODService implementation. storage may be nil,
// in which case matched documents are not archived.
func NewPODService(
	parcelRepo port.ParcelRepository,
	resultRepo port.PODResultRepository,
	tx port.Transactor,
	storage port.ObjectStorage,
	processor BatchProcessor,
	s3Cfg *config.S3Config,
	uploadCfg *config.UploadConfig,
	matcherCfg *config.MatcherConfig,
) PODService {
	eligible := make(map[string]bool, len(matcherCfg.EligibleStatuses))
	for _, s := range matcherCfg.EligibleStatuses {
		eligible[strings.ToLower(s)] = true
	}
	return &podService{
		parcelRepo: parcelRepo,
		resultRepo: resultRepo,
		tx:         tx,
		storage:    storage,
		processor:  processor,
		s3Cfg:      s3Cfg,
		uploadCfg:  uploadCfg,
		eligible:   eligible,
		now:        time.Now,
	}
}

func (s *podService) ProcessBatch(ctx context.Context, uploads []PODUpload) (*BatchReport, error) {
	if len(uploads) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if s.uploadCfg.MaxFiles > 0 && len(uploads) > s.uploadCfg.MaxFiles {
		return nil, domain.ErrTooManyFiles
	}
	maxBytes := s.uploadCfg.MaxFileSizeMB * 1024 * 1024
	docs := make([]domain.RawDocument, len(uploads))
	for i, u := range uploads {
		if maxBytes > 0 && int64(len(u.Content)) > maxBytes {
			return nil, fmt.Errorf("%s: %w", u.FileName, domain.ErrFileTooLarge)
		}
		docs[i] = domain.RawDocument{
			FileName:  u.FileName,
			MediaType: domain.DetectMediaType(u.FileName, u.ContentType, u.Content),
			Content:   u.Content,
		}
	}

	parcels, err := s.eligibleParcels(ctx)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	zap.L().Info("podService.ProcessBatch: processing batch",
		zap.String("batch_id", batchID.String()),
		zap.Int("documents", len(docs)),
		zap.Int("parcels", len(parcels)))

	outcomes, err := s.processor.ProcessBatch(ctx, docs, parcels)
	if err != nil {
		return nil, fmt.Errorf("podService.ProcessBatch: %w", err)
	}

	report := &BatchReport{BatchID: batchID, Total: len(outcomes), Outcomes: outcomes}
	results := make([]domain.PODResult, len(outcomes))
	// Later documents for the same parcel build on the earlier enrichment.
	enriched := make(map[string]domain.ParcelRecord)
	var (
		updates  []*domain.ParcelRecord
		archived []string
	)
	for i := range outcomes {
		o := &outcomes[i]
		results[i] = newPODResult(batchID, o, s.now())
		switch o.Status {
		case domain.OutcomeMatched:
			report.Matched++
		case domain.OutcomeUnmatched:
			report.Unmatched++
			continue
		default:
			report.Failed++
			continue
		}

		base, ok := enriched[o.Match.Parcel.ID]
		if !ok {
			base = *o.Match.Parcel
		}
		parcel := base.WithPOD(o.Record, o.FileName, s.now())
		if key, ok := s.archive(ctx, parcel.ID, &docs[i]); ok {
			parcel.PODObjectKey = &key
			results[i].ObjectKey = &key
			archived = append(archived, key)
		}
		enriched[parcel.ID] = parcel
		o.Match.Parcel = &parcel
		updates = append(updates, &parcel)
	}

	// Parcel enrichment and the audit rows are written together or not at all.
	err = s.tx.WithinTx(ctx, func(pr port.ParcelRepository, rr port.PODResultRepository) error {
		for _, p := range updates {
			if err := pr.UpdatePOD(ctx, p); err != nil {
				return fmt.Errorf("updating parcel %s: %w", p.ID, err)
			}
			if p.PODObjectKey != nil {
				if err := pr.SetPODObjectKey(ctx, p.ID, *p.PODObjectKey); err != nil {
					return fmt.Errorf("recording object key for parcel %s: %w", p.ID, err)
				}
			}
		}
		if err := rr.CreateBatch(ctx, results); err != nil {
			return fmt.Errorf("saving results: %w", err)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("podService.ProcessBatch: batch rolled back",
			zap.String("batch_id", batchID.String()),
			zap.Int("archived_objects", len(archived)),
			zap.Error(err))
		s.discard(ctx, archived)
		return nil, fmt.Errorf("podService.ProcessBatch: %w", err)
	}

	zap.L().Info("podService.ProcessBatch: batch complete",
		zap.String("batch_id", batchID.String()),
		zap.Int("matched", report.Matched),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *podService) GetBatch(ctx context.Context, batchID uuid.UUID) ([]domain.PODResult, error) {
	results, err := s.resultRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrBatchNotFound
	}
	return results, nil
}

func (s *podService) eligibleParcels(ctx context.Context) ([]domain.ParcelRecord, error) {
	all, err := s.parcelRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("podService.ProcessBatch: loading parcels: %w", err)
	}
	if len(s.eligible) == 0 {
		return all, nil
	}
	out := make([]domain.ParcelRecord, 0, len(all))
	for i := range all {
		if s.eligible[strings.ToLower(all[i].Status)] {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// archive stores the matched document under pods/<parcel id>/<file>. A
// failed upload is logged and the enrichment stands without an object key.
func (s *podService) archive(ctx context.Context, parcelID string, doc *domain.RawDocument) (string, bool) {
	if s.storage == nil {
		return "", false
	}
	key := fmt.Sprintf("pods/%s/%s", parcelID, filepath.Base(doc.FileName))
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(doc.Content),
		ContentType: doc.MediaType,
		Size:        int64(len(doc.Content)),
	})
	if err != nil {
		zap.L().Warn("podService.archive: upload failed",
			zap.String("parcel_id", parcelID), zap.String("key", key), zap.Error(err))
		return "", false
	}
	return key, true
}

// discard removes objects archived for a batch whose writes were rolled back.
func (s *podService) discard(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.storage.Delete(ctx, s.s3Cfg.Bucket, key); err != nil {
			zap.L().Warn("podService.discard: failed to remove archived object",
				zap.String("key", key), zap.Error(err))
		}
	}
}

func newPODResult(batchID uuid.UUID, o *pipeline.Outcome, at time.Time) domain.PODResult {
	r := domain.PODResult{
		ID:          uuid.New(),
		BatchID:     batchID,
		Position:    o.Position,
		FileName:    o.FileName,
		MediaType:   o.MediaType,
		Status:      o.Status,
		ErrorKind:   o.ErrorKind,
		ErrorDetail: o.Error,
		CreatedAt:   at.UTC(),
	}
	if o.Record != nil {
		r.Record = marshalJSON(o.Record)
	}
	if o.Match != nil {
		r.Candidates = marshalJSON(o.Match.Candidates)
		if o.Match.Parcel != nil {
			id := o.Match.Parcel.ID
			r.ParcelID = &id
		}
	}
	if len(o.Attempts) > 0 {
		r.Attempts = marshalJSON(o.Attempts)
	}
	return r
}

func marshalJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("podService: failed to marshal result column", zap.Error(err))
		return nil
	}
	return b
}
