package handler

import (
	"encoding/json"
	"net/http"

	"github.com/attaboy/academy/internal/infra"
)

// HealthHandler reports whether the progress store is reachable. A nil pinger
// means the store lives in process and is always healthy.
func HealthHandler(store string, pinger infra.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			if err := infra.HealthCheck(r.Context(), pinger); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unhealthy",
					"store":  store,
					"error":  err.Error(),
				})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"store":  store,
		})
	}
}
