package repositories

import (
	"context"

	"github.com/corebooks/corebooks/internal/core/domain"
)

// EntityRepository persists reporting entities.
type EntityRepository interface {
	SaveEntity(ctx context.Context, entity domain.Entity) error
	FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error)
	ListEntities(ctx context.Context) ([]domain.Entity, error)
}
