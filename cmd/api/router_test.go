package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authUsecase "github.com/carvalholeo/sistema-caronas-sub001/internal/auth/usecase"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/config"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDispatcher struct{ calls int }

func (d *nopDispatcher) SendNotification(context.Context, []domain.UserRef, domain.NotificationPayload) error {
	d.calls++
	return nil
}

func (d *nopDispatcher) SendAndLog(context.Context, *domain.Subscription, domain.NotificationPayload) (bool, error) {
	return false, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, authUsecase.AuthUsecase, *nopDispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := authUsecase.NewAuthUsecase("secret")
	d := &nopDispatcher{}
	h := NewHandler(auth, nil, d, metrics.New(), &config.Config{InternalAPIKey: "internal-123"})
	return h.Router(), auth, d
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotificationRoutesRequireAuth(t *testing.T) {
	r, _, _ := newTestRouter(t)
	for _, path := range []string{"/api/notifications/subscriptions", "/api/notifications/audit"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestInternalSendRequiresKey(t *testing.T) {
	r, _, d := newTestRouter(t)
	body := `{"user_ids":["u1"],"payload":{"title":"Ride cancelled","category":"ride"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/internal/notifications/send", strings.NewReader(body))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	assert.Zero(t, d.calls)

	req = httptest.NewRequest(http.MethodPost, "/api/internal/notifications/send", strings.NewReader(body))
	req.Header.Set("X-Internal-Key", "internal-123")
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
	assert.Equal(t, 1, d.calls)
}

func TestPreflight(t *testing.T) {
	r, auth, _ := newTestRouter(t)
	signed, err := auth.IssueToken("u1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/notifications/subscriptions", nil)
	req.Header.Set("Origin", "https://caronas.example")
	req.Header.Set("Authorization", "Bearer "+signed)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://caronas.example", w.Header().Get("Access-Control-Allow-Origin"))
}
