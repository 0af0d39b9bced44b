package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"homekit-bridge/internal/domain/bridge"
)

// BridgeLister is the slice of the bridge service the status server reads.
type BridgeLister interface {
	Bridges() []bridge.Bridge
}

// Server exposes a read-only status API next to the HomeKit listener.
type Server struct {
	bridges BridgeLister
}

func NewServer(bridges BridgeLister) *Server {
	return &Server{bridges: bridges}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/accessories", s.handleAccessories)
	return r
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type accessoryStatus struct {
	EntityID             string `json:"entity_id"`
	AccessoryID          uint64 `json:"aid"`
	CharacteristicWrites int    `json:"characteristic_writes"`
}

func (s *Server) handleAccessories(w http.ResponseWriter, r *http.Request) {
	bridges := s.bridges.Bridges()
	out := make([]accessoryStatus, 0, len(bridges))
	for _, b := range bridges {
		out = append(out, accessoryStatus{
			EntityID:             b.EntityID(),
			AccessoryID:          b.Accessory().Id,
			CharacteristicWrites: b.CharacteristicWrites(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
