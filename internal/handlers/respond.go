package handlers

import (
	"DriveKeeper/internal/middleware"
	"DriveKeeper/internal/service"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// requireUser отклоняет запросы /api без X-User-ID.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userID достаёт user id; наличие гарантирует requireUser.
func userID(r *http.Request) int64 {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}

// clientID достаёт client id; без него отвечает 400.
func clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing "+middleware.HeaderClientID, http.StatusBadRequest)
	}
	return id, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warnw(op+": invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError сопоставляет вид ошибки сервиса со статусом. Сервис уже залогировал ошибку.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
