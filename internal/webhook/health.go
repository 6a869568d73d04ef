package webhook

import "net/http"

// HealthResponse is the /health output payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health handles GET /health. It is mounted outside the auth and rate-limit
// chain so deployment probes need no credentials.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "healthy",
		Message: "voice agent gateway is running",
	})
}
