package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"taskflow/internal/handlers"
	"taskflow/internal/models/task"
	"taskflow/internal/repository"
	"taskflow/internal/service"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) List(ctx context.Context, params service.ListParams) ([]*task.Task, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) GetByID(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, params service.CreateParams) (*task.Task, error) {
	args := m.Called(ctx, params)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, id string, params service.UpdateParams) (*task.Task, error) {
	args := m.Called(ctx, id, params)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) ToggleFavorite(ctx context.Context, id string, explicit *bool) (*task.Task, error) {
	args := m.Called(ctx, id, explicit)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) ToggleImportant(ctx context.Context, id string, explicit *bool) (*task.Task, error) {
	args := m.Called(ctx, id, explicit)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) SetStatus(ctx context.Context, id string, status string) (*task.Task, error) {
	args := m.Called(ctx, id, status)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskService) Bulk(ctx context.Context, ids []string, action service.BulkAction) (*service.BulkResult, error) {
	args := m.Called(ctx, ids, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

func (m *MockTaskService) Stats(ctx context.Context, ownerID *string) (*service.Stats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Stats), args.Error(1)
}

var _ handlers.Service = (*MockTaskService)(nil)

func taskOrNil(v any) *task.Task {
	if v == nil {
		return nil
	}
	return v.(*task.Task)
}

func newRouter(svc handlers.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", handlers.NewTaskHandler(svc).Routes)
	return r
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sampleTask() *task.Task {
	now := time.Now()
	return &task.Task{
		ID:        "t1",
		Title:     "Test Task",
		Status:    task.StatusIncomplete,
		Important: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodGet, "/api/health", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "taskflow")
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_Ping тестирует ping
func TestTaskHandler_Ping(t *testing.T) {
	w := doRequest(newRouter(new(MockTaskService)), http.MethodGet, "/api/ping", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

// TestTaskHandler_ListTasks тестирует разбор фильтров из query
func TestTaskHandler_ListTasks(t *testing.T) {
	tests := []struct {
		name  string
		query string
		match func(service.ListParams) bool
	}{
		{
			name:  "no filters",
			query: "",
			match: func(p service.ListParams) bool {
				return p.OwnerID == nil && p.Status == nil && p.Favorite == nil && p.Important == nil
			},
		},
		{
			name:  "all filters",
			query: "?userId=alice&status=Complete&favorite=true&important=true",
			match: func(p service.ListParams) bool {
				return *p.OwnerID == "alice" && *p.Status == "Complete" && *p.Favorite && *p.Important
			},
		},
		{
			name:  "non true value means false",
			query: "?important=yes",
			match: func(p service.ListParams) bool {
				return p.Important != nil && !*p.Important
			},
		},
		{
			name:  "ownerId alias",
			query: "?ownerId=bob",
			match: func(p service.ListParams) bool {
				return p.OwnerID != nil && *p.OwnerID == "bob"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			mockService.On("List", mock.Anything, mock.MatchedBy(tt.match)).Return([]*task.Task{sampleTask()}, nil)

			w := doRequest(newRouter(mockService), http.MethodGet, "/api/tasks"+tt.query, "")

			require.Equal(t, http.StatusOK, w.Code)
			var got []map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			require.Len(t, got, 1)
			assert.Equal(t, "Incomplete", got[0]["status"])
			assert.Equal(t, false, got[0]["completed"])
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - create with legacy fields",
			body:        `{"title":"A","desc":"d","userId":"u1","status":"Important","important":false}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, service.CreateParams{
					Title:       "A",
					Description: "d",
					OwnerID:     "u1",
					Status:      task.LegacyImportant,
				}).Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "error - validation from service",
			body:        `{"desc":"no title"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, service.NewValidationError("title", "название обязательно"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - wrong content type",
			body:           `{"title":"A"}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid json",
			body:           `{"title":`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - store failure",
			body:        `{"title":"A"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, service.NewStoreError("insert", errors.New("timeout")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			newRouter(mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует общий update
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "success",
			body: `{"title":"New","important":1}`,
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, "t1", mock.MatchedBy(func(p service.UpdateParams) bool {
					return *p.Title == "New" && *p.Important && p.Status == nil
				})).Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "null important сбрасывает флаг",
			body: `{"important":null}`,
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, "t1", mock.MatchedBy(func(p service.UpdateParams) bool {
					return p.Important != nil && !*p.Important && p.Status == nil && p.Title == nil
				})).Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "null status передаётся как пустой",
			body: `{"status":null}`,
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, "t1", mock.MatchedBy(func(p service.UpdateParams) bool {
					return p.Status != nil && *p.Status == ""
				})).Return(nil, service.NewValidationError("status", "допустимы Incomplete, Complete"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.CodeValidation,
		},
		{
			name: "favorite строкой",
			body: `{"favorite":"true"}`,
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, "t1", mock.MatchedBy(func(p service.UpdateParams) bool {
					return p.Favorite != nil && *p.Favorite
				})).Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - legacy status",
			body: `{"status":"Important"}`,
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, "t1", mock.Anything).Return(nil, service.NewValidationError("status", "допустимы Incomplete, Complete"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.CodeValidation,
		},
		{
			name: "error - not found",
			body: `{"title":"New"}`,
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, "t1", mock.Anything).Return(nil, service.NewNotFound("t1", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   service.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodPut, "/api/tasks/t1", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedCode, body["error"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_Toggles тестирует PATCH favorite/important
func TestTaskHandler_Toggles(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		method   string
		explicit *bool
	}{
		{"favorite flip on empty body", "/api/tasks/t1/favorite", "", "ToggleFavorite", nil},
		{"favorite explicit", "/api/tasks/t1/favorite", `{"favorite":true}`, "ToggleFavorite", ptr(true)},
		{"favorite non boolean flips", "/api/tasks/t1/favorite", `{"favorite":"true"}`, "ToggleFavorite", nil},
		{"important explicit false", "/api/tasks/t1/important", `{"important":false}`, "ToggleImportant", ptr(false)},
		{"important flip", "/api/tasks/t1/important", `{}`, "ToggleImportant", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			mockService.On(tt.method, mock.Anything, "t1", tt.explicit).Return(sampleTask(), nil)

			w := doRequest(newRouter(mockService), http.MethodPatch, tt.path, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			mockService.AssertExpectations(t)
		})
	}

	t.Run("not found", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ToggleFavorite", mock.Anything, "nope", (*bool)(nil)).Return(nil, service.NewNotFound("nope", repository.ErrNotFound))

		w := doRequest(newRouter(mockService), http.MethodPatch, "/api/tasks/nope/favorite", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestTaskHandler_SetStatus тестирует PATCH status
func TestTaskHandler_SetStatus(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("SetStatus", mock.Anything, "t1", "Important").Return(sampleTask(), nil)
	mockService.On("SetStatus", mock.Anything, "t1", "Bogus").Return(nil, service.NewValidationError("status", "bad"))

	router := newRouter(mockService)

	w := doRequest(router, http.MethodPatch, "/api/tasks/t1/status", `{"status":"Important"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Incomplete"`)

	w = doRequest(router, http.MethodPatch, "/api/tasks/t1/status", `{"status":"Bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по id
func TestTaskHandler_GetTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success",
			id:   "t1",
			setupMock: func(m *MockTaskService) {
				m.On("GetByID", mock.Anything, "t1").Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - not found",
			id:   "missing",
			setupMock: func(m *MockTaskService) {
				m.On("GetByID", mock.Anything, "missing").
					Return(nil, service.NewNotFound("missing", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "error - store",
			id:   "t1",
			setupMock: func(m *MockTaskService) {
				m.On("GetByID", mock.Anything, "t1").
					Return(nil, service.NewStoreError("find_by_id", errors.New("connection refused")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodGet, "/api/tasks/"+tt.id, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "t1", got["id"])
				assert.Equal(t, "Incomplete", got["status"])
				assert.Equal(t, false, got["completed"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTaskByID тестирует удаление
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Delete", mock.Anything, "t1").Return(nil)
	mockService.On("Delete", mock.Anything, "t2").Return(service.NewNotFound("t2", repository.ErrNotFound))

	router := newRouter(mockService)

	w := doRequest(router, http.MethodDelete, "/api/tasks/t1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(router, http.MethodDelete, "/api/tasks/t2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	mockService.AssertExpectations(t)
}

// TestTaskHandler_BulkOperation тестирует bulk
func TestTaskHandler_BulkOperation(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Bulk", mock.Anything, []string{"1", "2", "3"}, service.BulkDelete).Return(&service.BulkResult{
		Action:    service.BulkDelete,
		Requested: 3,
		Succeeded: 2,
		Failed:    1,
		Failures:  []service.BulkFailure{{ID: "2", Code: service.CodeNotFound, Message: "not found"}},
	}, nil)
	mockService.On("Bulk", mock.Anything, []string{"1"}, service.BulkAction("archive")).
		Return(nil, service.NewValidationError("action", "bad"))

	router := newRouter(mockService)

	w := doRequest(router, http.MethodPost, "/api/tasks/bulk", `{"ids":["1","2","3"],"action":"delete"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result service.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "2", result.Failures[0].ID)

	w = doRequest(router, http.MethodPost, "/api/tasks/bulk", `{"ids":["1"],"action":"archive"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

// TestTaskHandler_GetStats тестирует статистику
func TestTaskHandler_GetStats(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Stats", mock.Anything, ptr("alice")).Return(&service.Stats{Total: 2, Complete: 1, Incomplete: 1, Important: 1}, nil)

	w := doRequest(newRouter(mockService), http.MethodGet, "/api/tasks/stats?userId=alice", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"complete":1,"incomplete":1,"important":1,"favorite":0}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func ptr[T any](v T) *T {
	return &v
}
