package ports

import (
	"context"

	"homekit-bridge/internal/domain/model"
)

// StateProvider reads the latest snapshot of an entity.
type StateProvider interface {
	EntityState(ctx context.Context, entityID string) (*model.EntityState, error)
}

// ServiceCaller dispatches a service call to the home-automation platform.
// Calls are fire-and-forget: the adapter owns delivery and retries, and the
// returned error only covers the enqueue. description is a human-readable
// summary of the fields being changed, used for logging.
type ServiceCaller interface {
	CallService(ctx context.Context, domain, service string, params map[string]interface{}, description string) error
}

// EventHandler receives a parsed snapshot for an entity whose state changed.
type EventHandler func(entityID string, state *model.EntityState)

// EventStream pushes state-changed events until ctx is cancelled.
type EventStream interface {
	Subscribe(ctx context.Context, handler EventHandler) error
}
