package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/types"
)

// CycleStore reads back persisted cycle reports. Nil when persistence is
// disabled; the endpoint then reports an empty history.
type CycleStore interface {
	RecentCycles(limit int) ([]types.CycleReport, error)
}

// Server exposes liveness and recent cycle history over HTTP.
type Server struct {
	router    *mux.Router
	port      string
	store     CycleStore
	network   string
	coreCount int
	startedAt time.Time
	log       zerolog.Logger
}

// NewServer builds the status server. store may be nil.
func NewServer(port, network string, coreCount int, store CycleStore) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		port:      port,
		store:     store,
		network:   network,
		coreCount: coreCount,
		startedAt: time.Now(),
		log:       logger.GetForComponent("web_server"),
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/cycles", s.handleCycles).Methods(http.MethodGet)
	return s
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	s.log.Info().Str("port", s.port).Msg("Starting status server.")
	return http.ListenAndServe(":"+s.port, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"network": s.network,
		"cores":   s.coreCount,
		"uptime":  time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []types.CycleReport{})
		return
	}
	cycles, err := s.store.RecentCycles(50)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load recent cycles")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load cycle history"})
		return
	}
	if cycles == nil {
		cycles = []types.CycleReport{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
