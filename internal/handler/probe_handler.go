package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podrecon/internal/service"
)

// ProbeHandler reports the availability of the extraction capability.
type ProbeHandler struct {
	probeService service.ProbeService
}

// NewProbeHandler creates a new ProbeHandler.
func NewProbeHandler(probeService service.ProbeService) *ProbeHandler {
	return &ProbeHandler{probeService: probeService}
}

// Probe handles GET /api/v1/extraction/probe
// @Summary Probe extraction backends
// @Description Sends a minimal request to every configured provider/model variant
// @Tags extraction
// @Produce json
// @Success 200 {object} Response{data=service.ProbeReport} "Capability ready"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 503 {object} Response{data=service.ProbeReport} "No variant answered"
// @Security BearerAuth
// @Router /extraction/probe [get]
func (h *ProbeHandler) Probe(c *gin.Context) {
	report := h.probeService.Probe(c.Request.Context())
	if !report.Ready {
		c.JSON(http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    report,
			Error:   &APIError{Code: "EXTRACTION_NOT_READY", Message: report.Error},
		})
		return
	}
	RespondOK(c, report)
}
