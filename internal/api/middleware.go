package api

import (
	"context"
	"net/http"
	"penbox/internal/apperror"
	"penbox/internal/auth"
	"penbox/internal/models"
	"strings"
)

type contextKey string

const userContextKey = contextKey("user")

// bearerToken pulls the access token from the accessToken cookie or the
// Authorization header, cookie first.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) == 2 && headerParts[0] == "Bearer" {
		return headerParts[1]
	}
	return ""
}

// AuthMiddleware resolves the caller from their access token and attaches
// the user record to the request context. The claims alone are not trusted:
// a token for a deleted account is rejected even with a valid signature.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeError(w, apperror.Unauthorized("authorization required"))
			return
		}

		claims, err := auth.VerifyAccessToken(tokenString, s.config.JWT.AccessSecret)
		if err != nil {
			writeError(w, apperror.Unauthorized("invalid or expired token"))
			return
		}

		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if user == nil {
			writeError(w, apperror.Unauthorized("invalid access token"))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}
