package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podrecon/internal/service"
)

// ParcelHandler handles parcel endpoints.
type ParcelHandler struct {
	parcelService service.ParcelService
}

// NewParcelHandler creates a new ParcelHandler.
func NewParcelHandler(parcelService service.ParcelService) *ParcelHandler {
	return &ParcelHandler{parcelService: parcelService}
}

// Create handles POST /api/v1/parcels
// @Summary Register a parcel
// @Tags parcels
// @Accept json
// @Produce json
// @Param request body CreateParcelRequest true "Parcel"
// @Success 201 {object} Response{data=domain.ParcelRecord} "Parcel created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 409 {object} ErrorResponseBody "Parcel already exists"
// @Security BearerAuth
// @Router /parcels [post]
func (h *ParcelHandler) Create(c *gin.Context) {
	var input service.CreateParcelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	parcel, err := h.parcelService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, parcel)
}

// List handles GET /api/v1/parcels
// @Summary List parcels
// @Tags parcels
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.ParcelRecord,meta=PagMeta} "List of parcels"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /parcels [get]
func (h *ParcelHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	parcels, total, err := h.parcelService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, parcels, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/parcels/:id
// @Summary Get parcel by ID
// @Tags parcels
// @Produce json
// @Param id path string true "Parcel ID"
// @Success 200 {object} Response{data=domain.ParcelRecord} "Parcel"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Parcel not found"
// @Security BearerAuth
// @Router /parcels/{id} [get]
func (h *ParcelHandler) GetByID(c *gin.Context) {
	parcel, err := h.parcelService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, parcel)
}

// GetPOD handles GET /api/v1/parcels/:id/pod
// @Summary Get archived POD download URL
// @Description Returns a presigned URL for the proof-of-delivery document archived for the parcel
// @Tags parcels
// @Produce json
// @Param id path string true "Parcel ID"
// @Success 200 {object} Response{data=PODDownloadURL} "Download URL"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Parcel not found or no POD archived"
// @Security BearerAuth
// @Router /parcels/{id}/pod [get]
func (h *ParcelHandler) GetPOD(c *gin.Context) {
	id := c.Param("id")
	url, err := h.parcelService.GetPODDownloadURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, PODDownloadURL{ParcelID: id, DownloadURL: url})
}
