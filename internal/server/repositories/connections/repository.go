package connections

import (
	"context"

	"github.com/avolkov/paperstand/internal/server/models"
)

// Repository is the persisted registry of live websocket sessions.
type Repository interface {
	Register(ctx context.Context, conn *models.Connection) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Connection, error)
}
