package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// contextKey はコンテキストキーの衝突を避けるための非公開型。
type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader はリクエストIDを返すレスポンスヘッダー名。
const RequestIDHeader = "X-Request-ID"

// ErrRequestIDNotFound はコンテキストにリクエストIDが存在しないことを示す。
var ErrRequestIDNotFound = errors.New("request ID not found in context")

// NewRequestIDMiddleware はリクエストごとに一意のIDを採番するミドルウェアを返す。
// IDはコンテキストとX-Request-IDレスポンスヘッダーの両方に設定され、
// ログとエラー調査の突き合わせに使用する。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext はコンテキストからリクエストIDを取得する。
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrRequestIDNotFound
	}
	return requestID, nil
}
