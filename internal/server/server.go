package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"likes-service/internal/likes"
)

var metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "likes_http_requests_total",
	Help: "The total number of HTTP requests by path and status",
}, []string{"path", "status"})

// Server routes and handles the HTTP surface of the likes service.
type Server struct {
	router *mux.Router
	likes  *likes.Service
}

// NewServer returns a server with all routes registered.
func NewServer(ls *likes.Service) *Server {
	s := &Server{
		router: mux.NewRouter(),
		likes:  ls,
	}

	s.router.HandleFunc("/likes", s.handleBatchRead).Methods(http.MethodGet)
	s.router.HandleFunc("/likes", s.handleToggle).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// mux does not run middleware for this handler, so set the headers here.
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, r, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	s.router.Use(setResponseHeaders)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Every response is JSON and must never be cached: counts are live state.
func setResponseHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	metricRequests.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "path", r.URL.Path, "error", err)
	}
}
