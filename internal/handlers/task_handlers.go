package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"taskflow/internal/handlers/dto"
	"taskflow/internal/logger"
	"taskflow/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "taskflow"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

// Routes вешает обработчики на /api
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/ping", h.Ping)
	r.Get("/health", h.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)          // GET /api/tasks
		r.Post("/", h.PostTask)          // POST /api/tasks
		r.Get("/stats", h.GetStats)      // GET /api/tasks/stats
		r.Post("/bulk", h.BulkOperation) // POST /api/tasks/bulk

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)       // GET /api/tasks/{id}
			r.Put("/", h.UpdateTaskByID)    // PUT /api/tasks/{id}
			r.Delete("/", h.DeleteTaskByID) // DELETE /api/tasks/{id}

			r.Patch("/favorite", h.ToggleFavorite)   // PATCH /api/tasks/{id}/favorite
			r.Patch("/important", h.ToggleImportant) // PATCH /api/tasks/{id}/important
			r.Patch("/status", h.SetStatus)          // PATCH /api/tasks/{id}/status
		})
	})
}

func (h *TaskHandler) Ping(w http.ResponseWriter, r *http.Request) {
	responseWithPayload(w, http.StatusOK, toPayload("ok", true))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Хранилище недоступно", zap.Error(err))
		responseWithPayload(w, http.StatusServiceUnavailable,
			toPayload("ok", false),
			toPayload("service", serviceName),
		)
		return
	}

	responseWithPayload(w, http.StatusOK,
		toPayload("ok", true),
		toPayload("service", serviceName),
	)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	params := service.ListParams{
		OwnerID:   parseStringQuery(r, "userId", "ownerId"),
		Status:    parseStringQuery(r, "status"),
		Favorite:  parseBoolQuery(r, "favorite"),
		Important: parseBoolQuery(r, "important"),
	}

	tasks, err := h.TaskService.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное тело запроса: "+err.Error())
		return
	}

	created, err := h.TaskService.Create(r.Context(), request.ToParams())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	stats, err := h.TaskService.Stats(r.Context(), parseStringQuery(r, "userId", "ownerId"))
	if err != nil {
		handleServiceError(w, r, err, "stats")
		return
	}

	responseWithJSON(w, http.StatusOK, stats)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	got, err := h.TaskService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", got.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, got)
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	id := chi.URLParam(r, "id")

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	updated, err := h.TaskService.Update(r.Context(), id, request.ToParams())
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	request, ok := decodeToggle(w, r)
	if !ok {
		return
	}

	updated, err := h.TaskService.ToggleFavorite(r.Context(), chi.URLParam(r, "id"), request.Explicit("favorite"))
	if err != nil {
		handleServiceError(w, r, err, "toggle_favorite")
		return
	}
	responseWithJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) ToggleImportant(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	request, ok := decodeToggle(w, r)
	if !ok {
		return
	}

	updated, err := h.TaskService.ToggleImportant(r.Context(), chi.URLParam(r, "id"), request.Explicit("important"))
	if err != nil {
		handleServiceError(w, r, err, "toggle_important")
		return
	}
	responseWithJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное тело запроса: "+err.Error())
		return
	}

	updated, err := h.TaskService.SetStatus(r.Context(), chi.URLParam(r, "id"), request.Status)
	if err != nil {
		handleServiceError(w, r, err, "set_status")
		return
	}
	responseWithJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	if err := h.TaskService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) BulkOperation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	var request dto.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное тело запроса: "+err.Error())
		return
	}

	result, err := h.TaskService.Bulk(r.Context(), request.IDs, service.BulkAction(request.Action))
	if err != nil {
		handleServiceError(w, r, err, "bulk")
		return
	}

	logger.Info("HTTP_OUT: Bulk операция выполнена",
		zap.String("action", request.Action),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, result)
}

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, "application/json") {
		return true
	}

	logger.Warn("HTTP: Неверный тип контента",
		zap.String("expected", "application/json"),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusUnsupportedMediaType, service.CodeValidation, "Content-Type должен быть application/json")
	return false
}

// decodeToggle допускает пустое тело: тогда флаг просто инвертируется
func decodeToggle(w http.ResponseWriter, r *http.Request) (dto.ToggleRequest, bool) {
	var request dto.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное тело запроса: "+err.Error())
		return nil, false
	}
	return request, true
}
