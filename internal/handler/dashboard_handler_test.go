package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adcar/edx-platform/internal/dto"
	"github.com/adcar/edx-platform/internal/middleware"
	"github.com/adcar/edx-platform/internal/models"
	"github.com/adcar/edx-platform/internal/service"
	appErrors "github.com/adcar/edx-platform/pkg/errors"
)

type fakeDashboardSrv struct {
	resp        *dto.DashboardStatusResponse
	err         error
	hit         bool
	lastCalled  string
	invalidated string
}

func (f *fakeDashboardSrv) RenderStatus(_ context.Context, learnerID string) (*dto.DashboardStatusResponse, bool, error) {
	f.lastCalled = learnerID
	return f.resp, f.hit, f.err
}

func (f *fakeDashboardSrv) InvalidateLearner(_ context.Context, learnerID string) error {
	f.invalidated = learnerID
	return f.err
}

type fakeExportSrv struct {
	result   *service.ExportResult
	err      error
	relPath  string
	parseErr error
}

func (f *fakeExportSrv) Generate(_ context.Context, learnerID string, req dto.ExportRequest) (*service.ExportResult, error) {
	return f.result, f.err
}

func (f *fakeExportSrv) ParseToken(string, bool) (string, string, time.Time, error) {
	return "learner-1", f.relPath, time.Now().Add(time.Hour), f.parseErr
}

func (f *fakeExportSrv) Open(relPath string) (*os.File, error) {
	return os.Open(relPath)
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func authedContext(t *testing.T, method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Set(middleware.ContextUserKey, &models.LearnerClaims{LearnerID: "learner-1"})
	return c, rec
}

func TestDashboardHandlerStatusSuccess(t *testing.T) {
	srv := &fakeDashboardSrv{
		resp: &dto.DashboardStatusResponse{
			LearnerID:   "learner-1",
			Entries:     []models.DashboardEntry{},
			GeneratedAt: time.Now().UTC(),
		},
		hit: true,
	}
	handler := NewDashboardHandler(srv, nil)

	c, rec := authedContext(t, http.MethodGet, "/api/v1/dashboard/status", "")
	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "learner-1", srv.lastCalled)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "learner-1", envelope.Data["learnerId"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerStatusUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/status", nil)

	handler.Status(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerStatusRequiredProviderFailure(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.ErrRequiredProvider}, nil)

	c, rec := authedContext(t, http.MethodGet, "/api/v1/dashboard/status", "")
	handler.Status(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "REQUIRED_PROVIDER_FAILED", envelope.Error["code"])
}

func TestDashboardHandlerExportAccepted(t *testing.T) {
	exports := &fakeExportSrv{result: &service.ExportResult{
		URL:       "/api/v1/export/token",
		Format:    "csv",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	handler := NewDashboardHandler(&fakeDashboardSrv{}, exports)

	c, rec := authedContext(t, http.MethodPost, "/api/v1/dashboard/export", `{"format":"csv"}`)
	handler.Export(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "/api/v1/export/token", envelope.Data["url"])
}

func TestDashboardHandlerExportInvalidBody(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{}, &fakeExportSrv{})

	c, rec := authedContext(t, http.MethodPost, "/api/v1/dashboard/export", "not-json")
	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerExportNotConfigured(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{}, nil)

	c, rec := authedContext(t, http.MethodPost, "/api/v1/dashboard/export", `{"format":"csv"}`)
	handler.Export(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboardHandlerDownloadInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{}, &fakeExportSrv{parseErr: errors.New("invalid token signature")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/export/bad-token", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad-token"}}

	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardHandlerInvalidateSuccess(t *testing.T) {
	srv := &fakeDashboardSrv{}
	h := NewDashboardHandler(srv, nil)
	c, rec := authedContext(t, http.MethodDelete, "/api/v1/dashboard/status", "")

	h.Invalidate(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "learner-1", srv.invalidated)
}

func TestDashboardHandlerInvalidateUnauthenticated(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{}, nil)
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/dashboard/status", nil)

	h.Invalidate(c)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
