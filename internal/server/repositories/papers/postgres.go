package papers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/dbx"
	"github.com/avolkov/paperstand/internal/server/models"
)

const paperColumns = "id, user_id, title, file_key, status, summary_key, structured_key, error_message, uploaded_at, updated_at"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanPaper(row *sql.Row) (*models.Paper, error) {
	p := &models.Paper{}
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.FileKey, &p.Status,
		&p.SummaryKey, &p.StructuredKey, &p.ErrorMessage, &p.UploadedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	query := `INSERT INTO papers (id, user_id, title, file_key, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING ` + paperColumns

	return scanPaper(r.db.QueryRowContext(ctx, query,
		paper.ID, paper.UserID, paper.Title, paper.FileKey, paper.Status))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE id = $1`
	return scanPaper(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE user_id = $1 ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var papers []*models.Paper
	for rows.Next() {
		p := &models.Paper{}
		err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.FileKey, &p.Status,
			&p.SummaryKey, &p.StructuredKey, &p.ErrorMessage, &p.UploadedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return papers, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Paper, error) {
	query := `UPDATE papers
	          SET status = $2,
	              summary_key = COALESCE(NULLIF($3, ''), summary_key),
	              structured_key = COALESCE(NULLIF($4, ''), structured_key),
	              error_message = $5,
	              updated_at = now()
	          WHERE id = $1
	          RETURNING ` + paperColumns

	return scanPaper(r.db.QueryRowContext(ctx, query,
		id, upd.Status, upd.SummaryKey, upd.StructuredKey, upd.ErrorMessage))
}
