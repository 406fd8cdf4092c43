package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/dbx"
	"github.com/avolkov/paperstand/internal/server/config"
	"github.com/avolkov/paperstand/internal/server/models"
	connsrepo "github.com/avolkov/paperstand/internal/server/repositories/connections"
	papersrepo "github.com/avolkov/paperstand/internal/server/repositories/papers"
	"github.com/avolkov/paperstand/internal/server/repositories/repomanager"
	usersrepo "github.com/avolkov/paperstand/internal/server/repositories/users"
)

// --- in-memory repositories ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	usernameScanCalls int
	updateCalls       int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) UsernameTaken(ctx context.Context, username string, excludeUserID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usernameScanCalls++
	for _, u := range f.users {
		if u.ID != excludeUserID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) update(id string, fn func(*models.User)) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

func (f *fakeUsersRepo) UpdateUsername(ctx context.Context, id, username string) (*models.User, error) {
	return f.update(id, func(u *models.User) { u.Username = username })
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, hash string) (*models.User, error) {
	return f.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *fakeUsersRepo) UpdateLanguage(ctx context.Context, id string, language int) (*models.User, error) {
	return f.update(id, func(u *models.User) { u.Language = language })
}

func (f *fakeUsersRepo) UpdateAvatar(ctx context.Context, id, avatarKey string) (*models.User, error) {
	return f.update(id, func(u *models.User) { u.AvatarKey = avatarKey })
}

type fakePapersRepo struct {
	mu     sync.Mutex
	papers map[string]*models.Paper
}

func newFakePapersRepo() *fakePapersRepo {
	return &fakePapersRepo{papers: make(map[string]*models.Paper)}
}

func (f *fakePapersRepo) Create(ctx context.Context, p *models.Paper) (*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	if cp.UploadedAt.IsZero() {
		cp.UploadedAt = time.Now()
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.UploadedAt
	}
	f.papers[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePapersRepo) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakePapersRepo) ListByUser(ctx context.Context, userID string) ([]*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Paper
	for _, p := range f.papers {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (f *fakePapersRepo) UpdateStatus(ctx context.Context, id string, upd papersrepo.StatusUpdate) (*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.Status = upd.Status
	if upd.SummaryKey != "" {
		p.SummaryKey = upd.SummaryKey
	}
	if upd.StructuredKey != "" {
		p.StructuredKey = upd.StructuredKey
	}
	p.ErrorMessage = upd.ErrorMessage
	p.UpdatedAt = time.Now()
	out := *p
	return &out, nil
}

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
	cp.RegisteredAt = time.Now()
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
	u *fakeUsersRepo
	p *fakePapersRepo
	c *fakeConnsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), p: newFakePapersRepo(), c: newFakeConnsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Papers(db dbx.DBTX) papersrepo.Repository     { return m.p }
func (m *fakeRepoManager) Connections(db dbx.DBTX) connsrepo.Repository { return m.c }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}
