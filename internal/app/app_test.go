package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"taskflow/internal/app"
	"taskflow/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            "0",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Repository: config.RepositoryConfig{Type: config.RepositoryInMemory},
		CORS:       config.CORSConfig{Origins: []string{"http://localhost:5173"}},
		Bulk:       config.BulkConfig{Concurrency: 4},
		Worker:     config.WorkerConfig{Interval: time.Minute, BatchSize: 10},
	}
}

func newApp(t *testing.T) *app.App {
	t.Helper()
	a := app.New(testConfig())
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(a.Shutdown)
	return a
}

// TestApp_Routes тестирует сквозной сценарий через роутер
func TestApp_Routes(t *testing.T) {
	a := newApp(t)
	router := a.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks",
		strings.NewReader(`{"title":"first","desc":"d","important":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "d", created["description"])
	assert.Equal(t, true, created["important"])
	assert.Equal(t, "Incomplete", created["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks?important=true", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created["id"], list[0]["id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestApp_Health тестирует health и CORS на реальном роутере
func TestApp_Health(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"service":"taskflow"}`, w.Body.String())
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestApp_Run тестирует запуск и остановку по контексту
func TestApp_Run(t *testing.T) {
	a := newApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("приложение не остановилось")
	}
}

// TestNewRepository_Unknown тестирует неизвестный тип хранилища
func TestNewRepository_Unknown(t *testing.T) {
	cfg := testConfig()
	cfg.Repository.Type = "redis"

	_, _, err := app.NewRepository(context.Background(), cfg)
	assert.Error(t, err)
}

// TestApp_UpdateNull тестирует явный null в теле PUT
func TestApp_UpdateNull(t *testing.T) {
	router := newApp(t).Router()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/tasks", `{"title":"t","important":true,"favorite":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/tasks/" + created["id"].(string)

	w = do(http.MethodPut, path, `{"important":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, false, updated["important"])
	assert.Equal(t, true, updated["favorite"])

	w = do(http.MethodPut, path, `{"status":null}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodPut, path, `{"favorite":"true","status":"Complete"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, true, updated["favorite"])
	assert.Equal(t, true, updated["completed"])
}

// TestApp_LongTitle тестирует длинное название без ограничения длины
func TestApp_LongTitle(t *testing.T) {
	router := newApp(t).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks",
		strings.NewReader(`{"title":"`+strings.Repeat("a", 300)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}
