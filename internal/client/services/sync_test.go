package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/foodscheduler/internal/client/api"
	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T, apiClient api.Client) *SyncCoordinator {
	t.Helper()
	c, err := NewSyncCoordinator(apiClient, testStore(t), testLogger())
	require.NoError(t, err)
	return c
}

func TestSyncCoordinator_Status(t *testing.T) {
	c := newCoordinator(t, newFakeAPI())

	st := c.Status()
	assert.True(t, st.IsEnabled)
	assert.Regexp(t, `^device-\d+-[0-9a-z]{9}$`, st.DeviceID)
	assert.Empty(t, st.LastSync)
	assert.Zero(t, st.PendingChanges)

	// identity is stable across calls
	assert.Equal(t, st.DeviceID, c.Status().DeviceID)
}

func TestSyncCoordinator_NoBackend(t *testing.T) {
	c := newCoordinator(t, nil)
	ctx := context.Background()

	assert.False(t, c.Status().IsEnabled)

	_, err := c.GenerateCode(ctx, "Laptop")
	assert.ErrorIs(t, err, ErrSyncUnavailable)

	_, err = c.RedeemCode(ctx, "123456")
	assert.ErrorIs(t, err, ErrSyncUnavailable)

	_, err = c.SyncNow(ctx)
	assert.ErrorIs(t, err, ErrSyncUnavailable)
}

func TestSyncCoordinator_GenerateCode(t *testing.T) {
	fake := newFakeAPI()
	fake.code = "123456"
	c := newCoordinator(t, fake)

	code, err := c.GenerateCode(context.Background(), "Laptop")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
}

func TestSyncCoordinator_RedeemCodeAdoptsMeals(t *testing.T) {
	fake := newFakeAPI()
	fake.useCode = &api.UseCodeResult{
		Success:   true,
		SyncGroup: "group-1",
		Meals: []models.MealEntry{
			{ID: "m1", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal"},
			{ID: "m2", Date: "2025-03-11", Time: "12:00", Food: "Soup"},
		},
	}

	store := testStore(t)
	c, err := NewSyncCoordinator(fake, store, testLogger())
	require.NoError(t, err)

	schedule, err := c.RedeemCode(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, 2, schedule.Count())

	// the received set became the persisted schedule
	saved := store.Load()
	require.Len(t, saved["2025-03-10"], 1)
	require.Len(t, saved["2025-03-11"], 1)
	assert.NotEmpty(t, c.Status().LastSync)
}

func TestSyncCoordinator_RedeemCodeRejectionLeavesStateAlone(t *testing.T) {
	fake := newFakeAPI() // useCode unset: every redemption fails

	store := testStore(t)
	existing := models.DaySchedule{
		"2025-03-10": {{ID: "m1", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal"}},
	}
	require.NoError(t, store.Save(existing))

	c, err := NewSyncCoordinator(fake, store, testLogger())
	require.NoError(t, err)

	_, err = c.RedeemCode(context.Background(), "000000")
	require.Error(t, err)

	assert.Equal(t, existing, store.Load())
	assert.Empty(t, c.Status().LastSync)
}

func TestSyncCoordinator_SyncNow(t *testing.T) {
	fake := newFakeAPI()
	fake.merged = models.DaySchedule{
		"2025-03-10": {
			{ID: "m1", Date: "2025-03-10", Time: "07:00", Food: "Coffee"},
			{ID: "m2", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal"},
		},
	}

	store := testStore(t)
	require.NoError(t, store.Save(models.DaySchedule{
		"2025-03-10": {{ID: "m2", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal"}},
	}))

	c, err := NewSyncCoordinator(fake, store, testLogger())
	require.NoError(t, err)

	merged, err := c.SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Count())

	// the authoritative merged result replaced the local blob
	assert.Equal(t, fake.merged, store.Load())
	assert.NotEmpty(t, c.Status().LastSync)
	assert.Zero(t, c.Status().PendingChanges)
}

func TestSyncCoordinator_ExportImportRoundTrip(t *testing.T) {
	source := testStore(t)
	require.NoError(t, source.Save(models.DaySchedule{
		"2025-03-10": {{ID: "m1", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal",
			CreatedAt: "2025-03-10T07:00:00Z", UpdatedAt: "2025-03-10T07:00:00Z"}},
	}))

	exporter, err := NewSyncCoordinator(nil, source, testLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportBackup(&buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)

	target := testStore(t)
	importer, err := NewSyncCoordinator(nil, target, testLogger())
	require.NoError(t, err)

	require.NoError(t, importer.ImportBackup(&buf))
	assert.Equal(t, source.Load(), target.Load())
}

func TestSyncCoordinator_ImportRejectsMalformed(t *testing.T) {
	c := newCoordinator(t, nil)

	err := c.ImportBackup(strings.NewReader("not json"))
	assert.ErrorIs(t, err, common.ErrInvalidBackup)

	// valid JSON but no meals field
	err = c.ImportBackup(strings.NewReader(`{"version":"1.0","deviceId":"device-x"}`))
	assert.ErrorIs(t, err, common.ErrInvalidBackup)
}

func TestSyncCoordinator_ImportReplacesPartitionsWholesale(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(models.DaySchedule{
		"2025-03-10": {
			{ID: "m1", Date: "2025-03-10", Time: "07:00", Food: "Coffee"},
			{ID: "m2", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal"},
		},
		"2025-03-11": {{ID: "m3", Date: "2025-03-11", Time: "12:00", Food: "Soup"}},
	}))

	c, err := NewSyncCoordinator(nil, store, testLogger())
	require.NoError(t, err)

	backup := `{"version":"1.0","deviceId":"device-x","meals":{
		"2025-03-10":[{"id":"m9","date":"2025-03-10","time":"09:00","food":"Eggs"}]
	}}`
	require.NoError(t, c.ImportBackup(strings.NewReader(backup)))

	saved := store.Load()
	// the imported date replaced the local partition outright
	require.Len(t, saved["2025-03-10"], 1)
	assert.Equal(t, "Eggs", saved["2025-03-10"][0].Food)
	// untouched dates survive
	require.Len(t, saved["2025-03-11"], 1)
}
