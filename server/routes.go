package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	}

	// Session routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.RequireSession(false))...))
	// Polled by the front end; must not keep an otherwise idle session alive
	s.RegisterRouteHandler("GET "+RouteAPISessionStatus, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.RequireSession(true))...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPISession, ChainMiddleware(noContent, s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPISessionStatus, ChainMiddleware(noContent, s.APIMiddleware()...))
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
