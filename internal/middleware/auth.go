// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"seatime-backend/internal/ctxkeys"
)

// Auth validates the JWT token from the Authorization header and
// injects the user's ID and role into the request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || raw == "" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
				return
			}

			token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			}, jwt.WithExpirationRequired())

			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			userID, _ := claims["userId"].(string)
			role, _ := claims["role"].(string)

			if userID == "" {
				writeError(w, http.StatusUnauthorized, "Invalid token: missing user ID")
				return
			}
			if !ctxkeys.ValidRoles[role] {
				writeError(w, http.StatusUnauthorized, "Invalid token: unknown role")
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), userID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMinRole returns middleware that restricts access to users with at least
// the specified role level. Role hierarchy: super_admin > admin > crew.
func RequireMinRole(minRole string) func(http.Handler) http.Handler {
	minLevel := ctxkeys.RoleLevel[minRole]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level := ctxkeys.RoleLevel[ctxkeys.GetUserRole(r.Context())]

			if level < minLevel {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
