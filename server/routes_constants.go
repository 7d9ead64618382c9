package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Session Routes
	RouteAPISession       = "/api/session"
	RouteAPISessionStatus = "/api/session/status"
)
