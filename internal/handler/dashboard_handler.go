package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adcar/edx-platform/internal/dto"
	"github.com/adcar/edx-platform/internal/middleware"
	"github.com/adcar/edx-platform/internal/service"
	appErrors "github.com/adcar/edx-platform/pkg/errors"
	"github.com/adcar/edx-platform/pkg/response"
)

type dashboardRenderer interface {
	RenderStatus(ctx context.Context, learnerID string) (*dto.DashboardStatusResponse, bool, error)
	InvalidateLearner(ctx context.Context, learnerID string) error
}

type exportGenerator interface {
	Generate(ctx context.Context, learnerID string, req dto.ExportRequest) (*service.ExportResult, error)
	ParseToken(token string, allowExpired bool) (learnerID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
}

// DashboardHandler wires the dashboard services to HTTP endpoints.
type DashboardHandler struct {
	dashboard dashboardRenderer
	exports   exportGenerator
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard dashboardRenderer, exports exportGenerator) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, exports: exports}
}

// Status godoc
// @Summary Composed dashboard status for the authenticated learner
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/status [get]
func (h *DashboardHandler) Status(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	start := time.Now()
	status, cacheHit, err := h.dashboard.RenderStatus(c.Request.Context(), claims.LearnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetDegradedProviders(c, status.DegradedProviders)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, status, meta)
}

// Invalidate godoc
// @Summary Drop the cached dashboard status for the authenticated learner
// @Tags Dashboard
// @Success 204
// @Router /dashboard/status [delete]
func (h *DashboardHandler) Invalidate(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.dashboard.InvalidateLearner(c.Request.Context(), claims.LearnerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Generate a downloadable rendering of the dashboard status
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export format"
// @Success 202 {object} response.Envelope
// @Router /dashboard/export [post]
func (h *DashboardHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))

	result, err := h.exports.Generate(c.Request.Context(), claims.LearnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.ExportResponse{
		URL:       result.URL,
		Format:    result.Format,
		ExpiresAt: result.ExpiresAt,
	})
}

// Download godoc
// @Summary Download a generated export via signed token
// @Tags Dashboard
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *DashboardHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports not configured"))
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	_, relPath, _, err := h.exports.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeFor(relPath), file, nil)
}

func contentTypeFor(relPath string) string {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
