package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/server/auth"
)

// RequireToken rejects requests that do not carry a valid bearer token.
// The token is self-contained, no store lookup happens here.
func RequireToken(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			token, found := strings.CutPrefix(header, common.BearerPrefix)
			if !found || !auth.ValidateToken(token, secretKey) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(&ErrorResponse{
					Code:    "auth.unauthorized",
					Message: "a valid bearer token is required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
