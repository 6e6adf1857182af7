package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Заголовки, которыми клиент сообщает, от чьего имени и с какой машины пришёл запрос.
// Аутентификация выполняется снаружи (прокси/шлюз), сервер доверяет этим значениям.
const (
	HeaderUserID   = "X-User-ID"
	HeaderClientID = "X-Client-ID"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	clientIDKey contextKey = "client_id"
)

// WithIdentity переносит X-User-ID и X-Client-ID в контекст запроса.
// Некорректный или отсутствующий user id просто не попадает в контекст.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if raw := strings.TrimSpace(r.Header.Get(HeaderUserID)); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				ctx = WithUserID(ctx, id)
			} else {
				sugar.Warnw("identity: invalid user id header", "value", raw)
			}
		}
		if client := strings.TrimSpace(r.Header.Get(HeaderClientID)); client != "" {
			ctx = WithClientID(ctx, client)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// GetUserIDFromContext возвращает user id, если он есть в контексте.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetClientIDFromContext возвращает client id, если он есть в контексте.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}
