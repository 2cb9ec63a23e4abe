package handlers

import (
	"mime"
	"net/http"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// parseBoolQuery: "true" - истина, любое другое непустое значение - ложь,
// пустое - фильтр не задан
func parseBoolQuery(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v := raw == "true"
	return &v
}

func parseStringQuery(r *http.Request, keys ...string) *string {
	for _, key := range keys {
		if raw := r.URL.Query().Get(key); raw != "" {
			return &raw
		}
	}
	return nil
}
