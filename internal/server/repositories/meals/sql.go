package meals

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
// The SQL is portable between the pgx and sqlite drivers: $N placeholders
// and TEXT timestamps only.
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const mealColumns = "id, date, time, food, created_at, updated_at, device_id, user_id, synced_at"

func scanMeal(row interface{ Scan(dest ...any) error }) (*models.MealEntry, error) {
	var e models.MealEntry
	err := row.Scan(&e.ID, &e.Date, &e.Time, &e.Food, &e.CreatedAt, &e.UpdatedAt,
		&e.DeviceID, &e.UserID, &e.SyncedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *SQLRepository) queryMeals(ctx context.Context, query string, args ...any) ([]models.MealEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select meals: %w", err)
	}
	defer rows.Close()

	var result []models.MealEntry
	for rows.Next() {
		e, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]models.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meals ORDER BY time, id`
	return r.queryMeals(ctx, query)
}

func (r *SQLRepository) ListByDate(ctx context.Context, date string) ([]models.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE date = $1 ORDER BY time, id`
	return r.queryMeals(ctx, query, date)
}

func (r *SQLRepository) ListByRange(ctx context.Context, startDate, endDate string) ([]models.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE date >= $1 AND date <= $2 ORDER BY time, id`
	return r.queryMeals(ctx, query, startDate, endDate)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = $1`
	e, err := scanMeal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select meal: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) Insert(ctx context.Context, entry *models.MealEntry) error {
	query := `INSERT INTO meals (` + mealColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Date, entry.Time, entry.Food, entry.CreatedAt, entry.UpdatedAt,
		entry.DeviceID, entry.UserID, entry.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}
	return nil
}

func (r *SQLRepository) Update(ctx context.Context, id, mealTime, food, updatedAt string) error {
	query := `UPDATE meals SET time = $1, food = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, mealTime, food, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM meals WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE device_id = $1 ORDER BY time, id`
	return r.queryMeals(ctx, query, deviceID)
}

func (r *SQLRepository) ListByDeviceOrGroup(ctx context.Context, deviceID, groupID string) ([]models.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE device_id = $1 OR user_id = $2 ORDER BY time, id`
	return r.queryMeals(ctx, query, deviceID, groupID)
}

// Upsert inserts or fully replaces a record by id. All columns are taken
// from the incoming record, matching the merge algorithm's
// insert-or-replace step.
func (r *SQLRepository) Upsert(ctx context.Context, entry *models.MealEntry) error {
	query := `INSERT INTO meals (` + mealColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			time = EXCLUDED.time,
			food = EXCLUDED.food,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			device_id = EXCLUDED.device_id,
			user_id = EXCLUDED.user_id,
			synced_at = EXCLUDED.synced_at`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Date, entry.Time, entry.Food, entry.CreatedAt, entry.UpdatedAt,
		entry.DeviceID, entry.UserID, entry.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert meal: %w", err)
	}
	return nil
}
