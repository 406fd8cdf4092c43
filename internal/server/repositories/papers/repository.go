package papers

import (
	"context"

	"github.com/avolkov/paperstand/internal/server/models"
)

// StatusUpdate carries the fields the worker may change on a paper.
// Empty artifact keys leave the stored values untouched.
type StatusUpdate struct {
	Status        string
	SummaryKey    string
	StructuredKey string
	ErrorMessage  string
}

// Repository is the persistence surface for papers.
type Repository interface {
	Create(ctx context.Context, paper *models.Paper) (*models.Paper, error)
	GetByID(ctx context.Context, id string) (*models.Paper, error)
	// ListByUser returns every paper owned by userID, newest first. The
	// library handler sorts and slices the full set in memory.
	ListByUser(ctx context.Context, userID string) ([]*models.Paper, error)
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Paper, error)
}
