package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brutella/hap/accessory"

	"homekit-bridge/internal/domain/bridge"
	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/ports"
)

// BridgeService assembles the accessory set from the configuration and routes
// state-changed events to the bridge that owns each entity.
type BridgeService struct {
	states   ports.StateProvider
	caller   ports.ServiceCaller
	aids     ports.AccessoryIDStore
	registry *bridge.Registry
	unit     model.Unit
	log      *slog.Logger

	mu      sync.RWMutex
	bridges map[string]bridge.Bridge
	order   []string // entity ids in configuration order
}

func NewBridgeService(states ports.StateProvider, caller ports.ServiceCaller, aids ports.AccessoryIDStore, unit model.Unit, log *slog.Logger) *BridgeService {
	return &BridgeService{
		states:   states,
		caller:   caller,
		aids:     aids,
		registry: bridge.NewRegistry(),
		unit:     unit,
		log:      log,
		bridges:  make(map[string]bridge.Bridge),
	}
}

// Build constructs one bridge per configured accessory. Entities that cannot
// be bridged are skipped with a log entry; Build fails only when nothing at
// all could be built.
func (s *BridgeService) Build(ctx context.Context, accessories []*model.AccessoryConfig) error {
	deps := bridge.Deps{
		States: s.states,
		Caller: s.caller,
		Unit:   s.unit,
		Log:    s.log,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range accessories {
		domain := model.EntityDomain(cfg.EntityID)
		factory, ok := s.registry.Factory(domain)
		if !ok {
			s.log.Warn("no bridge for entity domain, skipping", "entity_id", cfg.EntityID, "domain", domain)
			continue
		}

		state, err := s.states.EntityState(ctx, cfg.EntityID)
		if err != nil {
			s.log.Error("entity state unavailable, skipping", "entity_id", cfg.EntityID, "error", err)
			continue
		}

		b, err := factory(cfg, state, deps)
		if err != nil {
			s.log.Error("bridge construction failed, skipping", "entity_id", cfg.EntityID, "error", err)
			continue
		}

		aid, err := s.aids.AccessoryID(cfg.EntityID)
		if err != nil {
			return fmt.Errorf("accessory id for %s: %w", cfg.EntityID, err)
		}
		b.Accessory().Id = aid

		s.bridges[cfg.EntityID] = b
		s.order = append(s.order, cfg.EntityID)
		s.log.Info("accessory bridged", "entity_id", cfg.EntityID, "aid", aid)
	}

	if len(s.bridges) == 0 {
		return fmt.Errorf("no accessories could be bridged")
	}
	return nil
}

// HandleStateChanged is the event-stream handler. Events for entities this
// bridge does not own are ignored; a nil state means the entity was removed.
func (s *BridgeService) HandleStateChanged(entityID string, state *model.EntityState) {
	if state == nil {
		return
	}
	s.mu.RLock()
	b, ok := s.bridges[entityID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	b.UpdateState(state)
}

// Accessories returns the accessory set in configuration order.
func (s *BridgeService) Accessories() []*accessory.A {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accs := make([]*accessory.A, 0, len(s.order))
	for _, id := range s.order {
		accs = append(accs, s.bridges[id].Accessory())
	}
	return accs
}

// Bridges returns the bridges in configuration order, for the status server.
func (s *BridgeService) Bridges() []bridge.Bridge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bs := make([]bridge.Bridge, 0, len(s.order))
	for _, id := range s.order {
		bs = append(bs, s.bridges[id])
	}
	return bs
}
