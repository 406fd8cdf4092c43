package ws

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/dbx"
	"github.com/avolkov/paperstand/internal/logging"
	"github.com/avolkov/paperstand/internal/server/models"
	connsrepo "github.com/avolkov/paperstand/internal/server/repositories/connections"
	papersrepo "github.com/avolkov/paperstand/internal/server/repositories/papers"
	usersrepo "github.com/avolkov/paperstand/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnsRepo struct {
	mu    sync.Mutex
	conns map[string]*models.Connection
}

func newFakeConnsRepo() *fakeConnsRepo {
	return &fakeConnsRepo{conns: make(map[string]*models.Connection)}
}

func (f *fakeConnsRepo) Register(ctx context.Context, c *models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.conns[cp.ID] = &cp
	return nil
}

func (f *fakeConnsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, id)
	return nil
}

func (f *fakeConnsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Connection
	for _, c := range f.conns {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeRepoManager struct {
	c *fakeConnsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return nil }
func (m *fakeRepoManager) Papers(dbx.DBTX) papersrepo.Repository        { return nil }
func (m *fakeRepoManager) Connections(dbx.DBTX) connsrepo.Repository    { return m.c }

type fakePusher struct {
	mu     sync.Mutex
	pushes map[string][]*Frame
	gone   map[string]bool
}

func newFakePusher() *fakePusher {
	return &fakePusher{pushes: make(map[string][]*Frame), gone: make(map[string]bool)}
}

func (p *fakePusher) Push(ctx context.Context, connID string, frame *Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gone[connID] {
		return fmt.Errorf("%w: %s", common.ErrConnectionGone, connID)
	}
	p.pushes[connID] = append(p.pushes[connID], frame)
	return nil
}

type fakePaperGetter struct {
	papers map[string]*models.Paper
}

func (g *fakePaperGetter) GetPaper(ctx context.Context, subjectID, paperID string) (*models.Paper, error) {
	p, ok := g.papers[paperID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if p.UserID != subjectID {
		return nil, common.ErrForbidden
	}
	return p, nil
}

func newTestRelay(t *testing.T) (*Relay, *fakeConnsRepo, *fakePusher, *fakePaperGetter) {
	t.Helper()
	conns := newFakeConnsRepo()
	pusher := newFakePusher()
	getter := &fakePaperGetter{papers: make(map[string]*models.Paper)}
	relay := NewRelay(nil, &fakeRepoManager{c: conns}, getter, pusher, nil, logging.NewNopLogger())
	return relay, conns, pusher, getter
}

func TestRegisterAndDropUseSameKey(t *testing.T) {
	relay, conns, _, _ := newTestRelay(t)
	ctx := context.Background()

	require.NoError(t, relay.RegisterConnection(ctx, "u1", "c1", "srv-1"))
	require.Len(t, conns.conns, 1)
	assert.Equal(t, "u1", conns.conns["c1"].UserID)

	require.NoError(t, relay.DropConnection(ctx, "c1"))
	assert.Empty(t, conns.conns)
}

func TestDropAbsentConnection(t *testing.T) {
	relay, _, _, _ := newTestRelay(t)
	assert.NoError(t, relay.DropConnection(context.Background(), "never-registered"))
}

func TestNotifyPaperStatusFansOut(t *testing.T) {
	relay, _, pusher, _ := newTestRelay(t)
	ctx := context.Background()

	require.NoError(t, relay.RegisterConnection(ctx, "u1", "c1", "srv-1"))
	require.NoError(t, relay.RegisterConnection(ctx, "u1", "c2", "srv-1"))
	require.NoError(t, relay.RegisterConnection(ctx, "u2", "c3", "srv-1"))

	paper := &models.Paper{ID: "p1", UserID: "u1", Title: "Attention Is All You Need", Status: models.PaperStatusCompleted}
	require.NoError(t, relay.NotifyPaperStatus(ctx, paper))

	require.Len(t, pusher.pushes["c1"], 1)
	require.Len(t, pusher.pushes["c2"], 1)
	assert.Empty(t, pusher.pushes["c3"])

	frame := pusher.pushes["c1"][0]
	assert.Equal(t, FrameTypeStatusUpdate, frame.Type)
	assert.Equal(t, "p1", frame.PaperID)
	assert.Equal(t, models.PaperStatusCompleted, frame.Status)
	assert.Equal(t, "Attention Is All You Need", frame.Title)
}

func TestNotifyPaperStatusPrunesGoneConnections(t *testing.T) {
	relay, conns, pusher, _ := newTestRelay(t)
	ctx := context.Background()

	require.NoError(t, relay.RegisterConnection(ctx, "u1", "c-live", "srv-1"))
	require.NoError(t, relay.RegisterConnection(ctx, "u1", "c-stale", "srv-1"))
	pusher.gone["c-stale"] = true

	paper := &models.Paper{ID: "p1", UserID: "u1", Status: models.PaperStatusProcessing}
	require.NoError(t, relay.NotifyPaperStatus(ctx, paper))

	assert.Len(t, pusher.pushes["c-live"], 1)
	_, stillThere := conns.conns["c-stale"]
	assert.False(t, stillThere)
	_, liveThere := conns.conns["c-live"]
	assert.True(t, liveThere)
}

func TestNotifyPaperStatusNoConnections(t *testing.T) {
	relay, _, pusher, _ := newTestRelay(t)

	paper := &models.Paper{ID: "p1", UserID: "u-nobody", Status: models.PaperStatusFailed}
	require.NoError(t, relay.NotifyPaperStatus(context.Background(), paper))
	assert.Empty(t, pusher.pushes)
}

func TestHandleStatusQuery(t *testing.T) {
	relay, _, pusher, getter := newTestRelay(t)
	ctx := context.Background()

	getter.papers["p1"] = &models.Paper{ID: "p1", UserID: "u1", Status: models.PaperStatusProcessing}

	require.NoError(t, relay.HandleStatusQuery(ctx, "u1", "c1", "p1"))
	require.Len(t, pusher.pushes["c1"], 1)
	assert.Equal(t, FrameTypeStatus, pusher.pushes["c1"][0].Type)
	assert.Equal(t, "p1", pusher.pushes["c1"][0].PaperID)
}

func TestHandleStatusQueryErrors(t *testing.T) {
	relay, _, pusher, getter := newTestRelay(t)
	ctx := context.Background()

	getter.papers["p1"] = &models.Paper{ID: "p1", UserID: "owner"}

	require.NoError(t, relay.HandleStatusQuery(ctx, "u1", "c1", "missing"))
	require.NoError(t, relay.HandleStatusQuery(ctx, "u1", "c1", "p1"))

	require.Len(t, pusher.pushes["c1"], 2)
	assert.Equal(t, FrameTypeError, pusher.pushes["c1"][0].Type)
	assert.Equal(t, "paper not found", pusher.pushes["c1"][0].Message)
	assert.Equal(t, FrameTypeError, pusher.pushes["c1"][1].Type)
	assert.Equal(t, "access denied", pusher.pushes["c1"][1].Message)
}
