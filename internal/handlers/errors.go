package handlers

import (
	"errors"
	"net/http"
	"taskflow/internal/logger"
	"taskflow/internal/service"

	"go.uber.org/zap"
)

// handleServiceError пишет ответ по ошибке сервиса
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", operation),
			logger.WithRequestID(r.Context()))
		responseWithError(w, http.StatusInternalServerError, service.CodeStore, "внутренняя ошибка сервера")
		return
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: Ошибка хранилища", err,
			zap.String("operation", operation),
			logger.WithRequestID(r.Context()))
		// детали ошибки хранилища наружу не отдаём
		responseWithError(w, statusCode, businessErr.Code, businessErr.Message)
		return
	}

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("operation", operation),
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode),
		logger.WithRequestID(r.Context()))

	responseWithPayload(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeStore:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
