package ports

import (
	"context"

	"homekit-bridge/internal/domain/model"
)

type ConfigRepository interface {
	Get(ctx context.Context) (*model.Config, error)
	Save(ctx context.Context, config *model.Config) error
}

// AccessoryIDStore hands out stable HomeKit accessory ids per entity.
// Controllers key room assignments and automations on the id, so it must
// survive restarts.
type AccessoryIDStore interface {
	AccessoryID(entityID string) (uint64, error)
}
