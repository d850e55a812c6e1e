package handlers

import (
	"net/http"
	"strings"

	"github.com/linkup/backend/internal/logging"
)

// bearerToken extracts the access token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// requireCaller resolves the authenticated caller for the request. When the
// token is missing or invalid it writes a 401 response and returns false.
func requireCaller(w http.ResponseWriter, r *http.Request, sessions SessionManager) (string, bool) {
	ctx := r.Context()

	if sessions == nil {
		logging.FromContext(ctx).Error("session manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return "", false
	}

	token := bearerToken(r)
	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return "", false
	}

	callerID, err := sessions.Authenticate(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("access token rejected", "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired access token"})
		return "", false
	}

	return callerID, true
}
