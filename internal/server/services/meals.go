// Package services holds the server-side business logic: meal CRUD with
// validation and the sync code/merge operations.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MealService implements the meal CRUD operations behind the REST façade.
// The server assigns ids and timestamps; clients only ever send
// date/time/food.
type MealService struct {
	repomanager repomanager.RepositoryManager

	// test seam for timestamps
	now func() time.Time
}

func NewMealService(rm repomanager.RepositoryManager) *MealService {
	return &MealService{repomanager: rm, now: time.Now}
}

func (s *MealService) timestamp() string {
	return s.now().UTC().Format(models.TimestampLayout)
}

// List returns meals filtered by an exact date, by an inclusive date range,
// or unfiltered when neither is given. Results are ordered by time.
func (s *MealService) List(ctx context.Context, date, startDate, endDate string) ([]models.MealEntry, error) {
	repo := s.repomanager.Meals()

	switch {
	case date != "":
		return repo.ListByDate(ctx, date)
	case startDate != "" && endDate != "":
		return repo.ListByRange(ctx, startDate, endDate)
	default:
		return repo.ListAll(ctx)
	}
}

// Create validates and stores a new meal entry.
func (s *MealService) Create(ctx context.Context, date, mealTime, food string) (*models.MealEntry, error) {
	if date == "" || mealTime == "" || food == "" {
		return nil, common.ErrorValidation
	}

	now := s.timestamp()
	entry := &models.MealEntry{
		ID:        uuid.NewString(),
		Date:      date,
		Time:      mealTime,
		Food:      food,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repomanager.Meals().Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	return entry, nil
}

// Update mutates time/food of an existing entry and returns the updated
// record.
func (s *MealService) Update(ctx context.Context, id, mealTime, food string) (*models.MealEntry, error) {
	if mealTime == "" || food == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Meals()

	if err := repo.Update(ctx, id, mealTime, food, s.timestamp()); err != nil {
		return nil, err
	}

	entry, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving meal: %w", err)
	}
	return entry, nil
}

// Delete removes an entry by id.
func (s *MealService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Meals().Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting meal: %w", err)
	}
	return nil
}
