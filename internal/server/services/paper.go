package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/server/blob"
	"github.com/avolkov/paperstand/internal/server/config"
	"github.com/avolkov/paperstand/internal/server/models"
	"github.com/avolkov/paperstand/internal/server/repositories/papers"
	"github.com/avolkov/paperstand/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// PlaceholderThumbnailURL is returned for library items without a stored
	// file key.
	PlaceholderThumbnailURL = "/assets/placeholder-paper.png"
)

// UploadGrant is the response to an upload request: the pending paper plus a
// time-limited direct-upload credential.
type UploadGrant struct {
	PaperID    string
	FileKey    string
	Credential *blob.UploadCredential
}

// ContentURLs carries the presigned read URLs for a paper's artifacts.
// SummaryURL and StructuredURL are empty when the artifact does not exist yet.
type ContentURLs struct {
	PDFURL        string
	SummaryURL    string
	StructuredURL string
	ExpiresIn     int64
}

// LibraryItem is one row of a library page.
type LibraryItem struct {
	Paper        *models.Paper
	ThumbnailURL string
}

// LibraryPage is a slice of the owner's library plus continuation state.
type LibraryPage struct {
	Items     []*LibraryItem
	NextToken string
	HasMore   bool
	Total     int
}

// PaperService implements upload requests, artifact URL minting, the library
// listing, and worker-driven status updates.
type PaperService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   blob.Presigner
	cfg         *config.Config
}

// NewPaperService constructs a PaperService.
func NewPaperService(db *sql.DB, m repomanager.RepositoryManager, presigner blob.Presigner, cfg *config.Config) *PaperService {
	return &PaperService{db: db, repomanager: m, presigner: presigner, cfg: cfg}
}

// RequestUpload registers a pending paper and issues a direct-upload
// credential for it. The record is written first so a credential never
// exists without a record; an orphaned pending record left by a failed
// presign is expired by an external reconciliation job.
func (s *PaperService) RequestUpload(ctx context.Context, userID, fileName, fileType string, fileSize int64) (*UploadGrant, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: fileName is required", common.ErrValidation)
	}
	if fileType != "application/pdf" {
		return nil, fmt.Errorf("%w: only PDF uploads are supported", common.ErrValidation)
	}
	if fileSize <= 0 {
		return nil, fmt.Errorf("%w: fileSize must be positive", common.ErrValidation)
	}

	paperID := uuid.NewString()
	fileKey := fmt.Sprintf("users/%s/papers/%s/%s", userID, paperID, sanitizeFileName(fileName))

	paper := &models.Paper{
		ID:      paperID,
		UserID:  userID,
		Title:   strings.TrimSuffix(fileName, ".pdf"),
		FileKey: fileKey,
		Status:  models.PaperStatusPending,
	}

	if _, err := s.repomanager.Papers(s.db).Create(ctx, paper); err != nil {
		return nil, fmt.Errorf("error creating paper: %w", err)
	}

	cred, err := s.presigner.PresignPost(ctx, fileKey, fileType, fileSize, common.MaxPaperUploadSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}

	return &UploadGrant{PaperID: paperID, FileKey: fileKey, Credential: cred}, nil
}

// GetContentURLs mints presigned read URLs for the paper's PDF and, when
// present, its summary artifacts. The caller must own the paper; the
// existence check runs first so a missing paper is 404, not 403.
func (s *PaperService) GetContentURLs(ctx context.Context, subjectID, paperID string) (*ContentURLs, error) {
	paper, err := s.repomanager.Papers(s.db).GetByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(subjectID, paper.UserID); err != nil {
		return nil, err
	}

	urls := &ContentURLs{ExpiresIn: int64(s.cfg.PresignValidityDuration.Seconds())}

	urls.PDFURL, err = s.presigner.PresignGet(ctx, paper.FileKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}

	if paper.SummaryKey != "" {
		urls.SummaryURL, err = s.presigner.PresignGet(ctx, paper.SummaryKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
		}
	}
	if paper.StructuredKey != "" {
		urls.StructuredURL, err = s.presigner.PresignGet(ctx, paper.StructuredKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
		}
	}

	return urls, nil
}

// LoadLibrary returns one page of the owner's papers. This is deliberately
// offset pagination over the full result set: every paper of the owner is
// fetched, sorted in memory, and sliced. Correct only while per-user paper
// counts stay small. The continuation token is a numeric offset; anything
// unparseable falls back to 0.
func (s *PaperService) LoadLibrary(ctx context.Context, subjectID, ownerID string, limit int, sortBy, order, continuationToken string) (*LibraryPage, error) {
	if err := checkOwnership(subjectID, ownerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	all, err := s.repomanager.Papers(s.db).ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing papers: %w", err)
	}

	sortPapers(all, sortBy, order)

	offset := 0
	if continuationToken != "" {
		if n, err := strconv.Atoi(continuationToken); err == nil && n > 0 {
			offset = n
		}
	}

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := &LibraryPage{Total: total}
	for _, p := range all[offset:end] {
		item := &LibraryItem{Paper: p, ThumbnailURL: PlaceholderThumbnailURL}
		if p.FileKey != "" {
			url, err := s.presigner.PresignGet(ctx, p.FileKey)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
			}
			item.ThumbnailURL = url
		}
		page.Items = append(page.Items, item)
	}

	if end < total {
		page.HasMore = true
		page.NextToken = strconv.Itoa(end)
	}

	return page, nil
}

// UpdateStatus applies a worker-reported status transition. Transitions are
// monotonic; anything else is a validation error. Returns the updated paper
// so the caller can fan out a notification.
func (s *PaperService) UpdateStatus(ctx context.Context, paperID string, upd papers.StatusUpdate) (*models.Paper, error) {
	switch upd.Status {
	case models.PaperStatusProcessing, models.PaperStatusCompleted, models.PaperStatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, upd.Status)
	}

	repo := s.repomanager.Papers(s.db)

	paper, err := repo.GetByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !models.ValidStatusTransition(paper.Status, upd.Status) {
		return nil, fmt.Errorf("%w: cannot move %q from %q to %q",
			common.ErrValidation, paperID, paper.Status, upd.Status)
	}

	updated, err := repo.UpdateStatus(ctx, paperID, upd)
	if err != nil {
		return nil, fmt.Errorf("error updating paper: %w", err)
	}
	return updated, nil
}

// GetPaper returns the paper after an ownership check, for the relay's
// inbound status queries.
func (s *PaperService) GetPaper(ctx context.Context, subjectID, paperID string) (*models.Paper, error) {
	paper, err := s.repomanager.Papers(s.db).GetByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(subjectID, paper.UserID); err != nil {
		return nil, err
	}
	return paper, nil
}

// sortPapers orders papers in place by the requested field and direction.
// Unknown fields fall back to upload time; missing timestamps sort as the
// epoch.
func sortPapers(ps []*models.Paper, sortBy, order string) {
	desc := !strings.EqualFold(order, "asc")

	less := func(a, b *models.Paper) bool {
		switch sortBy {
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case "status":
			return a.Status < b.Status
		case "lastUpdated", "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.UploadedAt.Before(b.UploadedAt)
		}
	}

	sort.SliceStable(ps, func(i, j int) bool {
		if desc {
			return less(ps[j], ps[i])
		}
		return less(ps[i], ps[j])
	})
}
