// Package synccodes provides SQL-backed storage for transient device
// pairing codes.
package synccodes

import (
	"context"

	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

// Repository describes sync-code storage operations.
type Repository interface {
	// Insert stores a freshly minted code.
	Insert(ctx context.Context, code *models.SyncCode) error

	// GetByCode returns the newest row matching the 6-digit code, or
	// common.ErrorNotFound.
	GetByCode(ctx context.Context, code string) (*models.SyncCode, error)

	// MarkUsed flips used to true for an unused code. Returns
	// common.ErrSyncCodeUsed when the row was already consumed, so a
	// racing second redemption fails instead of proceeding.
	MarkUsed(ctx context.Context, id string) error
}
