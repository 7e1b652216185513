package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/dbx"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/meals"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/synccodes"
	"github.com/google/uuid"
)

// RedeemResult is what a successful code redemption hands back to the
// joining device: its initial meal set and the sync group identity.
type RedeemResult struct {
	Meals     []models.MealEntry
	SyncGroup string
}

// SyncService implements the server half of cross-device sync: pairing
// code issuance/redemption and the merge endpoint.
type SyncService struct {
	repomanager repomanager.RepositoryManager
	codeTTL     time.Duration

	// test seams
	now      func() time.Time
	randCode func() string
}

func NewSyncService(rm repomanager.RepositoryManager, codeTTL time.Duration) *SyncService {
	return &SyncService{
		repomanager: rm,
		codeTTL:     codeTTL,
		now:         time.Now,
		randCode:    randomCode,
	}
}

// randomCode mints a 6-digit decimal code (100000–999999).
func randomCode() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// GenerateCode mints a single-use pairing code tagged with the human
// device name. The code is relayed out-of-band to the joining device.
func (s *SyncService) GenerateCode(ctx context.Context, deviceName string) (*models.SyncCode, error) {
	if deviceName == "" {
		return nil, common.ErrorValidation
	}

	now := s.now().UTC()
	code := &models.SyncCode{
		ID:         uuid.NewString(),
		Code:       s.randCode(),
		DeviceName: deviceName,
		CreatedAt:  now.Format(models.TimestampLayout),
		ExpiresAt:  now.Add(s.codeTTL).Format(models.TimestampLayout),
		Used:       false,
	}

	if err := s.repomanager.SyncCodes().Insert(ctx, code); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	return code, nil
}

// UseCode redeems a pairing code for the given device. The whole operation
// runs in one transaction: validation, the single-use flip and the meal
// lookup either all happen or none do, so a rejected redemption has no
// partial effect and a racing second redemption fails on the used guard.
func (s *SyncService) UseCode(ctx context.Context, code, deviceID string) (*RedeemResult, error) {
	if code == "" || deviceID == "" {
		return nil, common.ErrorValidation
	}

	var result *RedeemResult

	err := dbx.WithTx(ctx, s.repomanager.Conn(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		codeRepo := synccodes.NewSQLRepository(tx)

		sc, err := codeRepo.GetByCode(ctx, code)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrSyncCodeInvalid
		}
		if err != nil {
			return err
		}

		if sc.Used {
			return common.ErrSyncCodeUsed
		}

		expiresAt, err := time.Parse(models.TimestampLayout, sc.ExpiresAt)
		if err != nil || !s.now().UTC().Before(expiresAt) {
			return common.ErrSyncCodeExpired
		}

		if err := codeRepo.MarkUsed(ctx, sc.ID); err != nil {
			return err
		}

		// The code row id doubles as the sync group identity.
		mealRows, err := meals.NewSQLRepository(tx).ListByDeviceOrGroup(ctx, deviceID, sc.ID)
		if err != nil {
			return err
		}

		result = &RedeemResult{Meals: mealRows, SyncGroup: sc.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SyncData merges an uploading device's full local schedule into the remote
// store and returns the new authoritative schedule:
//
//  1. flatten the schedule, stamping each record with the device id and a
//     fresh synced_at;
//  2. fetch what the store already holds for this device;
//  3. stage records that are new or strictly newer by updated_at (the
//     stored copy wins ties and newer-or-equal cases);
//  4. upsert the staged batch in one transaction;
//  5. re-fetch everything for the device, ordered by time, regrouped by date.
//
// Conflict resolution trusts client-supplied updated_at timestamps
// (last-writer-wins); the window between step 2 and step 4 is an accepted
// narrow race between devices syncing at the same moment.
func (s *SyncService) SyncData(ctx context.Context, deviceID string, schedule models.DaySchedule) (models.DaySchedule, error) {
	if deviceID == "" {
		return nil, common.ErrorValidation
	}

	syncedAt := s.now().UTC().Format(models.TimestampLayout)

	incoming := schedule.Flatten()
	for i := range incoming {
		incoming[i].DeviceID = deviceID
		incoming[i].SyncedAt = syncedAt
	}

	existing, err := s.repomanager.Meals().ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("error fetching existing meals: %w", err)
	}

	existingByID := make(map[string]models.MealEntry, len(existing))
	for _, e := range existing {
		existingByID[e.ID] = e
	}

	var staged []models.MealEntry
	for _, in := range incoming {
		prev, ok := existingByID[in.ID]
		if !ok || newerThan(in.UpdatedAt, prev.UpdatedAt) {
			staged = append(staged, in)
		}
	}

	if len(staged) > 0 {
		err := dbx.WithTx(ctx, s.repomanager.Conn(), nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := meals.NewSQLRepository(tx)
			for i := range staged {
				if err := repo.Upsert(ctx, &staged[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error upserting meals: %w", err)
		}
	}

	merged, err := s.repomanager.Meals().ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("error fetching merged meals: %w", err)
	}

	return models.GroupByDate(merged), nil
}

// newerThan reports whether timestamp a is strictly newer than b. Both are
// RFC3339 strings; records with unparseable timestamps lose the comparison.
func newerThan(a, b string) bool {
	ta, err := time.Parse(models.TimestampLayout, a)
	if err != nil {
		return false
	}
	tb, err := time.Parse(models.TimestampLayout, b)
	if err != nil {
		return true
	}
	return ta.After(tb)
}
