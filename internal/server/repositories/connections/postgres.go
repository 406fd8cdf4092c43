package connections

import (
	"context"
	"fmt"

	"github.com/avolkov/paperstand/internal/dbx"
	"github.com/avolkov/paperstand/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Register stores the session row. Re-registering the same connection ID
// (a reconnect reusing an ID before the old row was pruned) overwrites it.
func (r *PostgresRepository) Register(ctx context.Context, conn *models.Connection) error {
	query := `INSERT INTO connections (id, user_id, endpoint)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO UPDATE SET user_id = $2, endpoint = $3, registered_at = now()`

	if _, err := r.db.ExecContext(ctx, query, conn.ID, conn.UserID, conn.Endpoint); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the session row. Deleting an absent row is not an error:
// disconnect and push-pruning can race.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Connection, error) {
	query := `SELECT id, user_id, endpoint, registered_at FROM connections WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var conns []*models.Connection
	for rows.Next() {
		c := &models.Connection{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Endpoint, &c.RegisteredAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return conns, nil
}
