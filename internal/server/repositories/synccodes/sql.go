package synccodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/dbx"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Insert(ctx context.Context, code *models.SyncCode) error {
	query := `INSERT INTO sync_codes (id, code, device_name, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.Code, code.DeviceName, code.CreatedAt, code.ExpiresAt, code.Used)
	if err != nil {
		return fmt.Errorf("failed to insert sync code: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByCode(ctx context.Context, code string) (*models.SyncCode, error) {
	// 6-digit codes can repeat over time; the newest row wins.
	query := `SELECT id, code, device_name, created_at, expires_at, used
		FROM sync_codes WHERE code = $1 ORDER BY created_at DESC LIMIT 1`
	var c models.SyncCode
	err := r.db.QueryRowContext(ctx, query, code).
		Scan(&c.ID, &c.Code, &c.DeviceName, &c.CreatedAt, &c.ExpiresAt, &c.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select sync code: %w", err)
	}
	return &c, nil
}

// MarkUsed consumes a code exactly once. The used = FALSE guard plus the
// rows-affected check make a second redemption observable as a conflict.
func (r *SQLRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE sync_codes SET used = TRUE WHERE id = $1 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark sync code used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrSyncCodeUsed
	}
	return nil
}
