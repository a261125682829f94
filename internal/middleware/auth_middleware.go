package middleware

import (
	"context"
	"net/http"
	"strings"

	"profile-registry/pkg/jwt"
	"profile-registry/pkg/response"
)

type contextKey string

const RegulatorIDKey contextKey = "regulatorID"

// AuthMiddleware admits requests carrying a valid regulator access token.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			token := BearerToken(r)
			if token == "" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwt.ValidateTokenOfType(token, jwtSecret, jwt.AccessToken)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			if info, ok := r.Context().Value(requestInfoKey).(*requestInfo); ok {
				info.regulatorID = claims.RegulatorID
			}

			ctx := context.WithValue(r.Context(), RegulatorIDKey, claims.RegulatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func GetRegulatorID(r *http.Request) string {
	regulatorID, ok := r.Context().Value(RegulatorIDKey).(string)
	if !ok {
		return ""
	}
	return regulatorID
}
