package fakebackend

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedRoute = "unmatched"

func newRequestCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "fakebackend",
		Name:      "requests_total",
		Help:      "Requests served by route template, method and status.",
	}, []string{"route", "method", "status"})
}

// RegisterMetrics exposes the backend's request counter on reg.
func (s *Server) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(s.requests)
}

// routeTemplate keeps label cardinality bounded by naming the route, not the path.
func (s *Server) routeTemplate(r *http.Request) string {
	var match mux.RouteMatch
	if !s.router.Match(r, &match) || match.Route == nil {
		return unmatchedRoute
	}
	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}

func (s *Server) countRequest(route, method string, status int) {
	s.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
