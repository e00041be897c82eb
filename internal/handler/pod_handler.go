package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"podrecon/internal/config"
	"podrecon/internal/middleware"
	"podrecon/internal/service"
)

const (
	// multipartMemory is the in-memory part of a multipart upload; the rest
	// spills to temporary files.
	multipartMemory = 32 << 20
	// multipartOverhead covers part headers and boundaries.
	multipartOverhead = 1 << 20
)

// PODHandler handles proof-of-delivery upload and batch endpoints.
type PODHandler struct {
	podService service.PODService
	maxBody    int64
}

// NewPODHandler creates a new PODHandler. The upload body is capped at
// MaxFiles files of MaxFileSizeMB each; a zero limit leaves it uncapped.
func NewPODHandler(podService service.PODService, uploadCfg *config.UploadConfig) *PODHandler {
	var maxBody int64
	if uploadCfg.MaxFiles > 0 && uploadCfg.MaxFileSizeMB > 0 {
		maxBody = int64(uploadCfg.MaxFiles)*uploadCfg.MaxFileSizeMB<<20 + multipartOverhead
	}
	return &PODHandler{podService: podService, maxBody: maxBody}
}

// Upload handles POST /api/v1/pods/upload
// @Summary Upload and reconcile proof-of-delivery documents
// @Description Extracts each uploaded POD (PDF or image), matches it to a parcel and enriches the matched parcel
// @Tags pods
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "POD documents (repeat the field for several files)"
// @Success 200 {object} Response{data=service.BatchReport} "Batch processed"
// @Failure 400 {object} ErrorResponseBody "No files or too many files"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "File or request body too large"
// @Failure 503 {object} ErrorResponseBody "Extraction capability not configured"
// @Security BearerAuth
// @Router /pods/upload [post]
func (h *PODHandler) Upload(c *gin.Context) {
	if h.maxBody > 0 {
		if c.Request.ContentLength > h.maxBody {
			RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("upload exceeds %d bytes", h.maxBody))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_MULTIPART", "request must be multipart/form-data")
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "files field is required")
		return
	}

	uploads := make([]service.PODUpload, 0, len(headers))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
			return
		}
		uploads = append(uploads, service.PODUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	subject, _ := middleware.GetSubject(c)
	zap.L().Info("PODHandler.Upload: batch submitted",
		zap.String("request_id", c.GetString(middleware.ContextKeyRequestID)),
		zap.String("subject", subject),
		zap.Int("files", len(uploads)))

	report, err := h.podService.ProcessBatch(c.Request.Context(), uploads)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, report)
}

// GetBatch handles GET /api/v1/pods/batches/:id
// @Summary Get batch results
// @Description Returns the stored per-document results of a processed batch, in upload order
// @Tags pods
// @Produce json
// @Param id path string true "Batch ID (UUID)"
// @Success 200 {object} Response{data=[]domain.PODResult} "Batch results"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Batch not found"
// @Security BearerAuth
// @Router /pods/batches/{id} [get]
func (h *PODHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch ID")
		return
	}

	results, err := h.podService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, results)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return content, nil
}
