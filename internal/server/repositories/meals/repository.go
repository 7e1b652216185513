// Package meals provides SQL-backed repositories for server-side meal
// persistence and the sync merge queries.
package meals

import (
	"context"

	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

// Repository describes meal storage operations used by the services.
type Repository interface {
	// ListAll returns every stored meal, ordered by time.
	ListAll(ctx context.Context) ([]models.MealEntry, error)

	// ListByDate returns all meals for an exact date, ordered by time.
	ListByDate(ctx context.Context, date string) ([]models.MealEntry, error)

	// ListByRange returns all meals with startDate <= date <= endDate,
	// ordered by time.
	ListByRange(ctx context.Context, startDate, endDate string) ([]models.MealEntry, error)

	// GetByID returns a single meal or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.MealEntry, error)

	// Insert stores a new meal record.
	Insert(ctx context.Context, entry *models.MealEntry) error

	// Update mutates time/food/updated_at of an existing record.
	// Returns common.ErrorNotFound when no row matches the id.
	Update(ctx context.Context, id, mealTime, food, updatedAt string) error

	// Delete removes the record with the given id. Deleting a missing id
	// is not an error.
	Delete(ctx context.Context, id string) error

	// ListByDevice returns every record tagged with the device id,
	// ordered by time.
	ListByDevice(ctx context.Context, deviceID string) ([]models.MealEntry, error)

	// ListByDeviceOrGroup returns records belonging to either the device
	// or the sync group, ordered by time.
	ListByDeviceOrGroup(ctx context.Context, deviceID, groupID string) ([]models.MealEntry, error)

	// Upsert inserts or fully replaces a record by id.
	Upsert(ctx context.Context, entry *models.MealEntry) error
}
