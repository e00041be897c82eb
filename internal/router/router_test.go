package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/handler"
	"podrecon/internal/router"
	"podrecon/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func setup(t *testing.T, db pinger) (*gin.Engine, *mocks.MockParcelService) {
	t.Helper()
	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "router-secret"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://ops.example.com"}},
	}
	parcelSvc := new(mocks.MockParcelService)
	r := router.Setup(cfg, router.Handlers{
		POD:    handler.NewPODHandler(new(mocks.MockPODService), &config.UploadConfig{}),
		Parcel: handler.NewParcelHandler(parcelSvc),
		Probe:  handler.NewProbeHandler(new(mocks.MockProbeService)),
		Health: handler.NewHealthHandler(db),
	})
	return r, parcelSvc
}

func bearer(t *testing.T) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("router-secret"))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r, _ := setup(t, pinger{})

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRouter_ReadinessReportsDatabase(t *testing.T) {
	r, _ := setup(t, pinger{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r, _ := setup(t, pinger{})

	for _, path := range []string{"/api/v1/parcels", "/api/v1/extraction/probe", "/api/v1/pods/batches/x"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_AuthorizedParcelLookup(t *testing.T) {
	r, parcelSvc := setup(t, pinger{})
	parcelSvc.On("GetByID", mock.Anything, "P-9").Return(nil, domain.ErrParcelNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/parcels/P-9", http.NoBody)
	req.Header.Set("Authorization", bearer(t))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PARCEL_NOT_FOUND")
	parcelSvc.AssertExpectations(t)
}
