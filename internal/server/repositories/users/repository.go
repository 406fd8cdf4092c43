package users

import (
	"context"

	"github.com/avolkov/paperstand/internal/server/models"
)

// Repository is the persistence surface for user accounts. Implementations
// return common.ErrNotFound for absent rows and common.ErrConflict for
// unique-email violations.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, excludeUserID string) (bool, error)
	UpdateUsername(ctx context.Context, id string, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) (*models.User, error)
	UpdateLanguage(ctx context.Context, id string, language int) (*models.User, error)
	UpdateAvatar(ctx context.Context, id string, avatarKey string) (*models.User, error)
}
