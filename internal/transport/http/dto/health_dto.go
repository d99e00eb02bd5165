package dto

type HealthResponse struct {
	OK bool `json:"ok"`
	// Degraded lists optional dependencies that failed to start.
	Degraded []string `json:"degraded,omitempty"`
}
