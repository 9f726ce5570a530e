package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/router"
	"TeamPulse/internal/service"
	"TeamPulse/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	r      *gin.Engine
	engine *service.Engine
	issuer *pkg.TokenIssuer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SetupDB(t)
	engine := service.NewEngine(db, service.Options{
		Now:          testutil.FixedClock("2024-01-05T08:00:00Z"),
		AdminUserIDs: []int64{1},
	})
	issuer, err := pkg.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return &fixture{r: router.InitRouter(db, engine, issuer), engine: engine, issuer: issuer}
}

func (f *fixture) do(t *testing.T, method, path string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != 0 {
		tok, _, err := f.issuer.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/healthz", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestOpsRequiresAdmin(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/api/ops/stats", 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/ops/stats", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/ops/stats", 42)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := f.engine.Users.Register(context.Background(), 42, "ops")
	require.NoError(t, err)
	require.NoError(t, f.engine.Users.SetRole(context.Background(), 42, model.RoleAdmin))
	w = f.do(t, http.MethodGet, "/api/ops/stats", 42)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsEndpoints(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.engine.Users.Register(ctx, 1, "root")
	require.NoError(t, err)
	_, err = f.engine.Ideas.CreateIdea(ctx, "Faster builds", "", 1, "")
	require.NoError(t, err)
	_, err = f.engine.Tasks.CreateTask(ctx, service.CreateTaskInput{Title: "old", Deadline: "2024-01-01"})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/ops/stats", 1)
	require.Equal(t, http.StatusOK, w.Code)
	var d model.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, int64(1), d.TotalIdeas)

	w = f.do(t, http.MethodGet, "/api/ops/leaderboard?limit=5", 1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"karma":10`)

	w = f.do(t, http.MethodGet, "/api/ops/search?q=builds", 1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Faster builds")

	w = f.do(t, http.MethodGet, "/api/ops/search", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(pkg.CodeInvalidArgument))

	w = f.do(t, http.MethodGet, "/api/ops/polls/77", 1)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodGet, "/api/ops/polls/abc", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/ops/standups/missing", 1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"root"`)
	w = f.do(t, http.MethodGet, "/api/ops/standups/missing?days=x", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/ops/tasks/sweep", 1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestExpiredToken(t *testing.T) {
	f := setup(t)
	short, err := pkg.NewTokenIssuer("test-secret", time.Nanosecond)
	require.NoError(t, err)
	tok, _, err := short.Issue(1)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/api/ops/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}
