package handlers

import (
	"net/http"

	"github.com/onnwee/resep-nusantara/backend/internal/circuitbreaker"
)

// Health returns a liveness payload. When upstream is set the recipe API
// breaker state is included and an open breaker reports "degraded"; the
// status code stays 200 because cached and fallback reads still work.
func Health(upstream func() circuitbreaker.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok"}
		if upstream != nil {
			state := upstream()
			body["upstream"] = state.String()
			if state == circuitbreaker.StateOpen {
				body["status"] = "degraded"
			}
		}
		writeJSON(w, http.StatusOK, body)
	}
}
