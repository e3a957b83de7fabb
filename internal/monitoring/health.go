// internal/monitoring/health.go
package monitoring

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus is the payload served by the health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler reports liveness. The service has no downstream dependencies
// to probe, so healthy means the process is serving.
func HealthHandler(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{
			Status:    "ok",
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
