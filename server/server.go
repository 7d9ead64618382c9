package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/config"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
)

// SessionAuthorizer arbitrates the caller's session on every protected request.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, identity auth.Identity, disableLastActivityUpdate bool) (*auth.AuthContext, error)
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	authorizer SessionAuthorizer
	metrics    *metrics.Metrics
}

func New(config config.Config, authorizer SessionAuthorizer, m *metrics.Metrics) (*Server, error) {
	if authorizer == nil {
		return nil, fmt.Errorf("[Server New] session authorizer is required")
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		authorizer: authorizer,
		metrics:    m,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
