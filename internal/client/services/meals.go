// Package services holds the device-side logic: the meal data service
// (remote/local mode machine with fallback) and the sync coordinator
// (pairing, merge sync, backup export/import).
package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/client/api"
	"github.com/dmitrijs2005/foodscheduler/internal/client/localstore"
	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/google/uuid"
)

// Mode is the backing currently used by the meal data service.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// State is the snapshot exposed to presentation code.
type State struct {
	Schedules   models.DaySchedule
	Loading     bool
	Err         string
	IsLocalMode bool
}

// MealService is the central data-access abstraction for meal schedules.
//
// It starts in remote mode (unless constructed without an api client) and
// permanently downgrades to local mode on the first store or transport
// error in a session; mutating calls that hit such an error are retried
// transparently against local storage so the caller still succeeds. There
// is no automatic re-upgrade.
//
// Concurrent calls are allowed and may interleave; the cached state takes
// the last response to resolve. Loading is a counter, not a flag, so racing
// operations cannot clobber each other's busy state, and a generation
// counter bumped at downgrade time keeps a stale in-flight remote result
// from being written into local-mode state.
type MealService struct {
	api    api.Client
	store  *localstore.Store
	logger logging.Logger

	mu        sync.Mutex
	schedules models.DaySchedule
	mode      Mode
	gen       uint64
	loading   int
	lastErr   string

	now func() time.Time
}

// NewMealService builds the service with the local blob preloaded. Passing
// a nil api client starts the service in local mode (no backend configured).
func NewMealService(apiClient api.Client, store *localstore.Store, logger logging.Logger) *MealService {
	mode := ModeRemote
	if apiClient == nil {
		mode = ModeLocal
	}
	return &MealService{
		api:       apiClient,
		store:     store,
		logger:    logger,
		schedules: store.Load(),
		mode:      mode,
		now:       time.Now,
	}
}

func (s *MealService) timestamp() string {
	return s.now().UTC().Format(models.TimestampLayout)
}

// begin marks an operation as started: busy counter up, previous error
// cleared. It returns the mode and generation the operation was issued
// under.
func (s *MealService) begin() (Mode, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	s.lastErr = ""
	return s.mode, s.gen
}

func (s *MealService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
}

// downgradeLocked flips the one-way Remote -> Local switch and invalidates
// in-flight remote results. Callers hold s.mu.
func (s *MealService) downgradeLocked(ctx context.Context, err error) {
	s.lastErr = err.Error()
	if s.mode == ModeRemote {
		s.mode = ModeLocal
		s.gen++
		s.logger.Warn(ctx, "switched to local mode", "reason", err.Error())
	}
}

// persistLocked writes the cache through to the blob when in local mode.
// Save failures are logged only; in-memory state stays authoritative for
// the session. Callers hold s.mu.
func (s *MealService) persistLocked(ctx context.Context) {
	if s.mode != ModeLocal {
		return
	}
	if err := s.store.Save(s.schedules); err != nil {
		s.logger.Error(ctx, "error saving meals", "error", err.Error())
	}
}

// Reload replaces the cache with the persisted blob. The sync coordinator
// rewrites the blob behind the service's back; callers use Reload after a
// sync or import to pick the result up.
func (s *MealService) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = s.store.Load()
}

// State returns a snapshot of the view-facing state.
func (s *MealService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Schedules:   s.schedules.Clone(),
		Loading:     s.loading > 0,
		Err:         s.lastErr,
		IsLocalMode: s.mode == ModeLocal,
	}
}

// FetchForDate returns the meals scheduled for one date. In remote mode a
// fetch failure flips the service to local mode, records the error and
// falls back to whatever is cached — the error is reported through State,
// not the return value.
func (s *MealService) FetchForDate(ctx context.Context, date string) []models.MealEntry {
	mode, gen := s.begin()
	defer s.end()

	if mode == ModeLocal {
		return s.cachedPartition(date)
	}

	entries, err := s.api.ListMealsByDate(ctx, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.downgradeLocked(ctx, err)
		return clonePartition(s.schedules[date])
	}
	if s.gen != gen {
		// downgraded while this request was in flight
		return clonePartition(s.schedules[date])
	}

	models.SortPartition(entries)
	s.schedules[date] = entries
	return clonePartition(entries)
}

// FetchForRange loads an inclusive date range, merging the grouped results
// into the cache without discarding dates outside the range. Failure
// semantics match FetchForDate.
func (s *MealService) FetchForRange(ctx context.Context, startDate, endDate string) models.DaySchedule {
	mode, gen := s.begin()
	defer s.end()

	if mode == ModeLocal {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.schedules.Clone()
	}

	entries, err := s.api.ListMealsByRange(ctx, startDate, endDate)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.downgradeLocked(ctx, err)
		return s.schedules.Clone()
	}
	if s.gen != gen {
		return s.schedules.Clone()
	}

	for date, dateEntries := range models.GroupByDate(entries) {
		s.schedules[date] = dateEntries
	}
	return s.schedules.Clone()
}

// Add schedules a meal. In remote mode the server assigns id and
// timestamps; a store error downgrades the service and retries the add
// against local storage so the call still succeeds.
func (s *MealService) Add(ctx context.Context, date, mealTime, food string) (*models.MealEntry, error) {
	mode, gen := s.begin()
	defer s.end()

	if mode == ModeLocal {
		return s.addLocal(ctx, date, mealTime, food), nil
	}

	entry, err := s.api.CreateMeal(ctx, date, mealTime, food)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.downgradeLocked(ctx, err)
		return s.addLocalLocked(ctx, date, mealTime, food), nil
	}
	if s.gen != gen {
		return entry, nil
	}

	s.schedules[date] = append(s.schedules[date], *entry)
	models.SortPartition(s.schedules[date])
	return entry, nil
}

func (s *MealService) addLocal(ctx context.Context, date, mealTime, food string) *models.MealEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocalLocked(ctx, date, mealTime, food)
}

func (s *MealService) addLocalLocked(ctx context.Context, date, mealTime, food string) *models.MealEntry {
	now := s.timestamp()
	entry := models.MealEntry{
		ID:        uuid.NewString(),
		Date:      date,
		Time:      mealTime,
		Food:      food,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.schedules[date] = append(s.schedules[date], entry)
	models.SortPartition(s.schedules[date])
	s.persistLocked(ctx)
	return &entry
}

// Update locates the meal by id across all partitions and mutates its
// time/food. Failure semantics match Add.
func (s *MealService) Update(ctx context.Context, id, mealTime, food string) (*models.MealEntry, error) {
	mode, gen := s.begin()
	defer s.end()

	if mode == ModeLocal {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.updateLocalLocked(ctx, id, mealTime, food)
	}

	entry, err := s.api.UpdateMeal(ctx, id, mealTime, food)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.downgradeLocked(ctx, err)
		return s.updateLocalLocked(ctx, id, mealTime, food)
	}
	if s.gen != gen {
		return entry, nil
	}

	s.replaceLocked(*entry)
	return entry, nil
}

func (s *MealService) updateLocalLocked(ctx context.Context, id, mealTime, food string) (*models.MealEntry, error) {
	for date, entries := range s.schedules {
		for i := range entries {
			if entries[i].ID == id {
				entries[i].Time = mealTime
				entries[i].Food = food
				entries[i].UpdatedAt = s.timestamp()
				updated := entries[i]
				models.SortPartition(s.schedules[date])
				s.persistLocked(ctx)
				return &updated, nil
			}
		}
	}
	return nil, common.ErrorNotFound
}

// replaceLocked swaps the cached record with the same id for the given one
// and re-sorts its partition. Callers hold s.mu.
func (s *MealService) replaceLocked(entry models.MealEntry) {
	for date, entries := range s.schedules {
		for i := range entries {
			if entries[i].ID == entry.ID {
				entries[i] = entry
				models.SortPartition(s.schedules[date])
				return
			}
		}
	}
	// Not cached yet (e.g. updated before any fetch): file it under its date.
	s.schedules[entry.Date] = append(s.schedules[entry.Date], entry)
	models.SortPartition(s.schedules[entry.Date])
}

// Remove deletes the meal with the given id from whichever partition holds
// it. Failure semantics match Add.
func (s *MealService) Remove(ctx context.Context, id string) error {
	mode, gen := s.begin()
	defer s.end()

	if mode == ModeLocal {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.removeLocalLocked(ctx, id)
		return nil
	}

	err := s.api.DeleteMeal(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.downgradeLocked(ctx, err)
		s.removeLocalLocked(ctx, id)
		return nil
	}
	if s.gen != gen {
		return nil
	}

	s.removeFromCacheLocked(id)
	return nil
}

func (s *MealService) removeLocalLocked(ctx context.Context, id string) {
	s.removeFromCacheLocked(id)
	s.persistLocked(ctx)
}

func (s *MealService) removeFromCacheLocked(id string) {
	for date, entries := range s.schedules {
		filtered := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				filtered = append(filtered, e)
			}
		}
		s.schedules[date] = filtered
	}
}

func (s *MealService) cachedPartition(date string) []models.MealEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePartition(s.schedules[date])
}

func clonePartition(entries []models.MealEntry) []models.MealEntry {
	cp := make([]models.MealEntry, len(entries))
	copy(cp, entries)
	return cp
}
