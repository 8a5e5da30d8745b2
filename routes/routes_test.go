package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lashapp-notifier/models"
	"lashapp-notifier/services"
	"lashapp-notifier/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okRunner struct{ calls int }

func (r *okRunner) Run(ctx context.Context, trigger string) services.RunReport {
	r.calls++
	return services.RunReport{Trigger: trigger, Outcome: models.RunOutcomeDelivered}
}

type emptyHistory struct{}

func (emptyHistory) RecentRuns(context.Context, int) ([]models.NotificationRun, error) {
	return nil, nil
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_PublicRoutes(t *testing.T) {
	r := SetupRouter(Deps{Runner: &okRunner{}, Log: zap.NewNop()})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)
}

func TestSetupRouter_TriggerDisabledWithoutSecret(t *testing.T) {
	r := SetupRouter(Deps{Runner: &okRunner{}, Log: zap.NewNop()})

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/notifications/run", "").Code)
}

func TestSetupRouter_Trigger(t *testing.T) {
	runner := &okRunner{}
	r := SetupRouter(Deps{Runner: runner, TriggerSecret: "secret", Log: zap.NewNop()})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/notifications/run", "").Code)
	assert.Equal(t, 0, runner.calls)

	token, err := utils.GenerateToken("ops", "secret", time.Minute)
	require.NoError(t, err)
	w := serve(r, http.MethodPost, "/api/notifications/run", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, runner.calls)
	assert.Contains(t, w.Body.String(), `"trigger":"manual"`)

	// no history without a database
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/notifications/runs", token).Code)
}

func TestSetupRouter_History(t *testing.T) {
	r := SetupRouter(Deps{Runner: &okRunner{}, History: emptyHistory{}, TriggerSecret: "secret", Log: zap.NewNop()})
	token, err := utils.GenerateToken("ops", "secret", time.Minute)
	require.NoError(t, err)

	w := serve(r, http.MethodGet, "/api/notifications/runs", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}
