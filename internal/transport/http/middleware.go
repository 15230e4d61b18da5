package http

import (
	"context"
	"net/http"
	"strings"

	"quizroom/internal/auth"
)

type contextKey int

const userIDKey contextKey = iota

// authenticate guards protected routes. It verifies the bearer token and puts
// the authenticated user ID into the request context.
func (api *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			respondError(w, auth.ErrInvalidToken)
			return
		}
		userID, err := api.tokens.Verify(raw)
		if err != nil {
			respondError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
