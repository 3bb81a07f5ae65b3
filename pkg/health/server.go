// Package health exposes the launcher's HTTP health surface.
//
// Container platforms probe a listening port to decide whether a service
// is alive, so the server starts before display provisioning and reports
// the supervisor's progress through its lifecycle. The surface is only
// meaningful with the forward hand-off mode; with exec hand-off it ends
// the moment control transfers to the application.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sixxer/launchpad/pkg/logging"
	"github.com/sixxer/launchpad/pkg/supervisor"
)

// Source is the supervisor-shaped state the server reports on.
type Source interface {
	State() supervisor.State
	DisplayID() string
	DisplayPid() int
	StartedAt() time.Time
}

// Server is the launcher's HTTP health endpoint.
type Server struct {
	src    Source
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a health server reporting on src.
func NewServer(port int, src Source) *Server {
	s := &Server{
		src:    src,
		logger: logging.ComponentLogger("health"),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/ready", s.handleReady).Methods("GET")
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusFound)
	}).Methods("GET")

	return router
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("health server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server failed", zap.Error(err))
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("stopping health server")
	return s.server.Shutdown(ctx)
}

type healthPayload struct {
	Status        string  `json:"status"`
	State         string  `json:"state"`
	Display       string  `json:"display,omitempty"`
	DisplayPid    int     `json:"display_pid,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	RunID         string  `json:"run_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.src.State()

	status := "ok"
	if state == supervisor.StateDisplayFailed {
		status = "failed"
	}

	var uptime float64
	if started := s.src.StartedAt(); !started.IsZero() {
		uptime = time.Since(started).Seconds()
	}

	s.writeJSON(w, http.StatusOK, healthPayload{
		Status:        status,
		State:         state.String(),
		Display:       s.src.DisplayID(),
		DisplayPid:    s.src.DisplayPid(),
		UptimeSeconds: uptime,
		RunID:         logging.RunID(),
	})
}

// handleReady reports 200 only once the display is usable; orchestrators
// gate traffic and restarts on this.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	switch s.src.State() {
	case supervisor.StateDisplayReady, supervisor.StateAppRunning:
		s.writeJSON(w, http.StatusOK, map[string]string{"ready": "true"})
	default:
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"ready": "false"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
