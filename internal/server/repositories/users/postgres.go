package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/dbx"
	"github.com/avolkov/paperstand/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = "id, email, password_hash, username, avatar_key, language, created_at, updated_at"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Username,
		&user.AvatarKey, &user.Language, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (id, email, password_hash, username, language)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Username, user.Language)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username string, excludeUserID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeUserID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id string, username string) (*models.User, error) {
	query := `UPDATE users SET username = $2, updated_at = now()
	          WHERE id = $1
	          RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, username))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) (*models.User, error) {
	query := `UPDATE users SET password_hash = $2, updated_at = now()
	          WHERE id = $1
	          RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, passwordHash))
}

func (r *PostgresRepository) UpdateLanguage(ctx context.Context, id string, language int) (*models.User, error) {
	query := `UPDATE users SET language = $2, updated_at = now()
	          WHERE id = $1
	          RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, language))
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id string, avatarKey string) (*models.User, error) {
	query := `UPDATE users SET avatar_key = $2, updated_at = now()
	          WHERE id = $1
	          RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, avatarKey))
}
