package ws

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/logging"
	"github.com/avolkov/paperstand/internal/server/models"
	"github.com/avolkov/paperstand/internal/server/repositories/repomanager"
)

// PaperGetter is the slice of the paper service the relay needs for
// answering inbound status queries.
type PaperGetter interface {
	GetPaper(ctx context.Context, subjectID, paperID string) (*models.Paper, error)
}

// Relay connects the durable connection registry with the in-process hub.
// The worker's status callback lands here and fans out to every session the
// owning user has registered.
type Relay struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	papers      PaperGetter
	pusher      Pusher
	stats       Stats
	log         logging.Logger
}

func NewRelay(db *sql.DB, m repomanager.RepositoryManager, papers PaperGetter, pusher Pusher, stats Stats, log logging.Logger) *Relay {
	if stats == nil {
		stats = NopStats{}
	}
	return &Relay{db: db, repomanager: m, papers: papers, pusher: pusher, stats: stats, log: log}
}

// RegisterConnection records a new session. The connection ID used here is
// the same one DropConnection deletes by, so disconnects always find the
// row they are supposed to remove.
func (r *Relay) RegisterConnection(ctx context.Context, userID, connID, endpoint string) error {
	conn := &models.Connection{ID: connID, UserID: userID, Endpoint: endpoint}
	if err := r.repomanager.Connections(r.db).Register(ctx, conn); err != nil {
		return fmt.Errorf("error registering connection: %w", err)
	}
	return nil
}

// DropConnection removes the session's row. Deleting an already-absent row
// is not an error; disconnect and prune may race.
func (r *Relay) DropConnection(ctx context.Context, connID string) error {
	return r.repomanager.Connections(r.db).Delete(ctx, connID)
}

// NotifyPaperStatus pushes the paper's new state to every registered session
// of its owner. Gone connections are pruned from the registry; any other
// delivery failure is logged and the loop continues, one dead session never
// blocks the rest.
func (r *Relay) NotifyPaperStatus(ctx context.Context, paper *models.Paper) error {
	conns, err := r.repomanager.Connections(r.db).ListByUser(ctx, paper.UserID)
	if err != nil {
		return fmt.Errorf("error listing connections: %w", err)
	}

	frame := StatusUpdateFrame(paper)
	for _, c := range conns {
		err := r.pusher.Push(ctx, c.ID, frame)
		if err == nil {
			r.stats.PushDelivered()
			continue
		}
		if errors.Is(err, common.ErrConnectionGone) {
			if delErr := r.DropConnection(ctx, c.ID); delErr != nil {
				r.log.Warn(ctx, "failed to prune gone connection", "connID", c.ID, "error", delErr)
			} else {
				r.stats.ConnPruned()
			}
			continue
		}
		r.log.Warn(ctx, "failed to push status update", "connID", c.ID, "error", err)
	}
	return nil
}

// HandleStatusQuery answers an inbound paperProcessStatus request on the
// socket it arrived on.
func (r *Relay) HandleStatusQuery(ctx context.Context, userID, connID, paperID string) error {
	paper, err := r.papers.GetPaper(ctx, userID, paperID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return r.pusher.Push(ctx, connID, ErrorFrame("paper not found"))
		case errors.Is(err, common.ErrForbidden):
			return r.pusher.Push(ctx, connID, ErrorFrame("access denied"))
		default:
			return r.pusher.Push(ctx, connID, ErrorFrame("internal error"))
		}
	}
	return r.pusher.Push(ctx, connID, StatusFrame(paper))
}
