package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/client/api"
	"github.com/dmitrijs2005/foodscheduler/internal/client/localstore"
	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

// ErrSyncUnavailable is returned by sync operations when no backend is
// configured.
var ErrSyncUnavailable = errors.New("sync not available - server not configured")

// SyncCoordinator manages device identity, pairing codes, the full merge
// sync and portable backups. Unlike the meal data service it never
// recovers from failures: every error is surfaced verbatim to the caller
// and no state is mutated on a failed operation.
type SyncCoordinator struct {
	api    api.Client
	store  *localstore.Store
	logger logging.Logger

	mu       sync.Mutex
	deviceID string
	pending  int

	now func() time.Time
}

// NewSyncCoordinator resolves (or mints) the device identity up front.
func NewSyncCoordinator(apiClient api.Client, store *localstore.Store, logger logging.Logger) (*SyncCoordinator, error) {
	deviceID, err := store.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("device id error: %w", err)
	}
	return &SyncCoordinator{
		api:      apiClient,
		store:    store,
		logger:   logger,
		deviceID: deviceID,
		now:      time.Now,
	}, nil
}

func (c *SyncCoordinator) timestamp() string {
	return c.now().UTC().Format(models.TimestampLayout)
}

// Status reports the process-local sync state.
func (c *SyncCoordinator) Status() models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.SyncStatus{
		IsEnabled:      c.api != nil,
		DeviceID:       c.deviceID,
		LastSync:       c.store.LastSync(),
		PendingChanges: c.pending,
	}
}

// GenerateCode asks the façade to mint a pairing code tagged with this
// device's human-readable name. The code is relayed out-of-band.
func (c *SyncCoordinator) GenerateCode(ctx context.Context, deviceName string) (string, error) {
	if c.api == nil {
		return "", ErrSyncUnavailable
	}
	return c.api.GenerateCode(ctx, deviceName)
}

// RedeemCode joins this device to the sync group behind the code. On
// success the returned meal set becomes this device's initial schedule:
// it is grouped by date, written to local storage and last-sync is
// recorded. A rejected code leaves all local state untouched.
func (c *SyncCoordinator) RedeemCode(ctx context.Context, code string) (models.DaySchedule, error) {
	if c.api == nil {
		return nil, ErrSyncUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.api.UseCode(ctx, code, c.deviceID)
	if err != nil {
		return nil, err
	}

	schedule := models.GroupByDate(result.Meals)
	if err := c.store.Save(schedule); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	c.recordSyncLocked(ctx)

	c.logger.Info(ctx, "joined sync group", "syncGroup", result.SyncGroup, "meals", len(result.Meals))
	return schedule, nil
}

// SyncNow uploads the full local schedule to the merge endpoint and
// overwrites local storage with the authoritative merged result.
func (c *SyncCoordinator) SyncNow(ctx context.Context) (models.DaySchedule, error) {
	if c.api == nil {
		return nil, ErrSyncUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merged, err := c.api.SyncData(ctx, c.deviceID, c.store.Load(), c.store.LastSync())
	if err != nil {
		return nil, err
	}
	if merged == nil {
		merged = models.DaySchedule{}
	}

	if err := c.store.Save(merged); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	c.recordSyncLocked(ctx)

	return merged, nil
}

func (c *SyncCoordinator) recordSyncLocked(ctx context.Context) {
	if err := c.store.SetLastSync(c.timestamp()); err != nil {
		c.logger.Error(ctx, "error recording last sync", "error", err.Error())
	}
	c.pending = 0
}

// ExportBackup writes the portable backup document to w.
func (c *SyncCoordinator) ExportBackup(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	backup := models.Backup{
		Version:    models.BackupVersion,
		ExportDate: c.timestamp(),
		DeviceID:   c.deviceID,
		Meals:      c.store.Load(),
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ExportToFile writes the backup document to path.
func (c *SyncCoordinator) ExportToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()
	return c.ExportBackup(f)
}

// ImportBackup merges a backup document into local storage. A document
// without a meals field is rejected as malformed. Imported data takes
// unconditional precedence per date partition: an imported date replaces
// the local partition wholesale rather than merging record by record.
func (c *SyncCoordinator) ImportBackup(r io.Reader) error {
	var doc struct {
		Version  string              `json:"version"`
		DeviceID string              `json:"deviceId"`
		Meals    *models.DaySchedule `json:"meals"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return common.ErrInvalidBackup
	}
	if doc.Meals == nil {
		return common.ErrInvalidBackup
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := c.store.Load()
	for date, entries := range *doc.Meals {
		models.SortPartition(entries)
		merged[date] = entries
	}

	if err := c.store.Save(merged); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	c.pending += len(*doc.Meals)
	return nil
}

// ImportFromFile merges the backup document at path into local storage.
func (c *SyncCoordinator) ImportFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()
	return c.ImportBackup(f)
}
