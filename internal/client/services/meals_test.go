package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dmitrijs2005/foodscheduler/internal/client/api"
	"github.com/dmitrijs2005/foodscheduler/internal/client/localstore"
	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory Client. Setting err makes every call fail,
// simulating an unreachable or broken backend.
type fakeAPI struct {
	mu      sync.Mutex
	err     error
	calls   int
	seq     int
	entries map[string]models.MealEntry

	code    string
	useCode *api.UseCodeResult
	merged  models.DaySchedule
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{entries: map[string]models.MealEntry{}}
}

func (f *fakeAPI) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	return f.begin()
}

func (f *fakeAPI) ListMealsByDate(ctx context.Context, date string) ([]models.MealEntry, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MealEntry
	for _, e := range f.entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	models.SortPartition(out)
	return out, nil
}

func (f *fakeAPI) ListMealsByRange(ctx context.Context, startDate, endDate string) ([]models.MealEntry, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MealEntry
	for _, e := range f.entries {
		if e.Date >= startDate && e.Date <= endDate {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateMeal(ctx context.Context, date, mealTime, food string) (*models.MealEntry, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	entry := models.MealEntry{
		ID:        fmt.Sprintf("srv-%d", f.seq),
		Date:      date,
		Time:      mealTime,
		Food:      food,
		CreatedAt: "2025-03-10T07:00:00Z",
		UpdatedAt: "2025-03-10T07:00:00Z",
	}
	f.entries[entry.ID] = entry
	return &entry, nil
}

func (f *fakeAPI) UpdateMeal(ctx context.Context, id, mealTime, food string) (*models.MealEntry, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return nil, errors.New("meal not found")
	}
	entry.Time = mealTime
	entry.Food = food
	entry.UpdatedAt = "2025-03-10T08:00:00Z"
	f.entries[id] = entry
	return &entry, nil
}

func (f *fakeAPI) DeleteMeal(ctx context.Context, id string) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *fakeAPI) GenerateCode(ctx context.Context, deviceName string) (string, error) {
	if err := f.begin(); err != nil {
		return "", err
	}
	return f.code, nil
}

func (f *fakeAPI) UseCode(ctx context.Context, code, deviceID string) (*api.UseCodeResult, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	if f.useCode == nil {
		return nil, errors.New("invalid sync code")
	}
	return f.useCode, nil
}

func (f *fakeAPI) SyncData(ctx context.Context, deviceID string, meals models.DaySchedule, lastSync string) (models.DaySchedule, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	return f.merged, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestMealService_NilClientStartsLocal(t *testing.T) {
	svc := NewMealService(nil, testStore(t), testLogger())
	assert.True(t, svc.State().IsLocalMode)
}

func TestMealService_RemoteAdd(t *testing.T) {
	fake := newFakeAPI()
	svc := NewMealService(fake, testStore(t), testLogger())
	ctx := context.Background()

	entry, err := svc.Add(ctx, "2025-03-10", "08:00", "Oatmeal")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", entry.ID)

	state := svc.State()
	assert.False(t, state.IsLocalMode)
	require.Len(t, state.Schedules["2025-03-10"], 1)
}

func TestMealService_AddFailureFallsBackToLocal(t *testing.T) {
	fake := newFakeAPI()
	fake.err = errors.New("connection refused")
	store := testStore(t)
	svc := NewMealService(fake, store, testLogger())
	ctx := context.Background()

	// the failed call still succeeds, served from local storage
	entry, err := svc.Add(ctx, "2025-03-10", "08:00", "Oatmeal")
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	assert.True(t, svc.State().IsLocalMode)

	// subsequent operations never touch the network again
	before := fake.callCount()
	_, err = svc.Add(ctx, "2025-03-10", "07:00", "Coffee")
	require.NoError(t, err)
	assert.Equal(t, before, fake.callCount())

	// and the data survived to disk
	saved := store.Load()
	assert.Len(t, saved["2025-03-10"], 2)
}

func TestMealService_FetchFailureReturnsCache(t *testing.T) {
	fake := newFakeAPI()
	svc := NewMealService(fake, testStore(t), testLogger())
	ctx := context.Background()

	_, err := svc.Add(ctx, "2025-03-10", "08:00", "Oatmeal")
	require.NoError(t, err)

	fake.mu.Lock()
	fake.err = errors.New("connection refused")
	fake.mu.Unlock()

	entries := svc.FetchForDate(ctx, "2025-03-10")
	require.Len(t, entries, 1)
	assert.Equal(t, "Oatmeal", entries[0].Food)

	state := svc.State()
	assert.True(t, state.IsLocalMode)
	assert.NotEmpty(t, state.Err)
}

func TestMealService_PartitionOrdering(t *testing.T) {
	svc := NewMealService(nil, testStore(t), testLogger())
	ctx := context.Background()

	_, err := svc.Add(ctx, "2025-03-10", "08:00", "Oatmeal")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "2025-03-10", "07:00", "Coffee")
	require.NoError(t, err)

	entries := svc.FetchForDate(ctx, "2025-03-10")
	require.Len(t, entries, 2)
	assert.Equal(t, "Coffee", entries[0].Food)
	assert.Equal(t, "Oatmeal", entries[1].Food)
}

func TestMealService_LocalUpdate(t *testing.T) {
	svc := NewMealService(nil, testStore(t), testLogger())
	ctx := context.Background()

	entry, err := svc.Add(ctx, "2025-03-10", "08:00", "Oatmeal")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, entry.ID, "08:30", "Porridge")
	require.NoError(t, err)
	assert.Equal(t, "Porridge", updated.Food)
	assert.Equal(t, entry.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "no-such-id", "08:30", "Porridge")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMealService_AddRemoveRoundTrip(t *testing.T) {
	svc := NewMealService(nil, testStore(t), testLogger())
	ctx := context.Background()

	before := svc.FetchForDate(ctx, "2025-03-10")

	entry, err := svc.Add(ctx, "2025-03-10", "08:00", "Oatmeal")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, entry.ID))

	after := svc.FetchForDate(ctx, "2025-03-10")
	assert.Equal(t, before, after)
}

func TestMealService_Reload(t *testing.T) {
	store := testStore(t)
	svc := NewMealService(nil, store, testLogger())
	ctx := context.Background()

	// the blob is rewritten behind the service's back, as sync does
	require.NoError(t, store.Save(models.DaySchedule{
		"2025-03-11": {{ID: "m1", Date: "2025-03-11", Time: "12:00", Food: "Soup"}},
	}))
	assert.Empty(t, svc.FetchForDate(ctx, "2025-03-11"))

	svc.Reload()
	entries := svc.FetchForDate(ctx, "2025-03-11")
	require.Len(t, entries, 1)
	assert.Equal(t, "Soup", entries[0].Food)
}
