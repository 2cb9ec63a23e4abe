package middleware

import (
	"net/http"
	"taskflow/internal/logger"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// CORS пропускает только перечисленные origin. Запросы без Origin
// (сервер-сервер, curl) проходят как есть.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	logger.Info("HTTP: Разрешённые CORS origin", zap.Strings("origins", allowedOrigins))

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
