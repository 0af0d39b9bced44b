package bridge

import (
	"log/slog"

	"github.com/brutella/hap/accessory"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/ports"
)

// Bridge translates between one entity and one HomeKit accessory.
type Bridge interface {
	EntityID() string
	Accessory() *accessory.A

	// UpdateState pushes a fresh entity snapshot into the HomeKit
	// characteristics. The snapshot is only read for the duration of the call.
	UpdateState(state *model.EntityState)

	// CharacteristicWrites counts outbound characteristic mutations, for the
	// status endpoint.
	CharacteristicWrites() int
}

// Deps are the collaborators every bridge needs.
type Deps struct {
	States ports.StateProvider
	Caller ports.ServiceCaller
	Unit   model.Unit
	Log    *slog.Logger
}

// Factory builds a bridge from an accessory config and the entity's current
// snapshot.
type Factory func(cfg *model.AccessoryConfig, state *model.EntityState, deps Deps) (Bridge, error)

// Registry maps an entity domain to the factory that bridges it.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{
			domainClimate: func(cfg *model.AccessoryConfig, state *model.EntityState, deps Deps) (Bridge, error) {
				return NewThermostat(cfg, state, deps)
			},
			domainWaterHeater: func(cfg *model.AccessoryConfig, state *model.EntityState, deps Deps) (Bridge, error) {
				return NewWaterHeater(cfg, state, deps)
			},
		},
	}
}

func (r *Registry) Factory(domain string) (Factory, bool) {
	f, ok := r.factories[domain]
	return f, ok
}
