package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

func printEntry(e models.MealEntry) {
	printlnFn(fmt.Sprintf("  %s  %-30s  [%s]", e.Time, e.Food, e.ID))
}

// List shows the meals scheduled for one date.
func (a *App) List(ctx context.Context, date string) error {
	entries := a.mealService.FetchForDate(ctx, date)

	if state := a.mealService.State(); state.Err != "" {
		printlnFn("Warning:", state.Err)
	}

	printlnFn(date + ":")
	if len(entries) == 0 {
		printlnFn("  (no meals)")
		return nil
	}
	for _, e := range entries {
		printEntry(e)
	}
	return nil
}

// Week shows a seven-day grid starting at startDate.
func (a *App) Week(ctx context.Context, startDate string) error {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", startDate, err)
	}
	end := start.AddDate(0, 0, 6)

	schedules := a.mealService.FetchForRange(ctx, startDate, end.Format("2006-01-02"))

	if state := a.mealService.State(); state.Err != "" {
		printlnFn("Warning:", state.Err)
	}

	var dates []string
	for d := range schedules {
		if d >= startDate && d <= end.Format("2006-01-02") {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	for _, d := range dates {
		printlnFn(d + ":")
		for _, e := range schedules[d] {
			printEntry(e)
		}
	}
	if len(dates) == 0 {
		printlnFn("(no meals scheduled this week)")
	}
	return nil
}

// Add schedules a meal.
func (a *App) Add(ctx context.Context, date, mealTime, food string) error {
	entry, err := a.mealService.Add(ctx, date, mealTime, food)
	if err != nil {
		return err
	}
	printlnFn("Added", entry.Food, "on", entry.Date, "at", entry.Time, "id:", entry.ID)
	return nil
}

// Edit changes time/food of an existing meal.
func (a *App) Edit(ctx context.Context, id, mealTime, food string) error {
	entry, err := a.mealService.Update(ctx, id, mealTime, food)
	if err != nil {
		return err
	}
	printlnFn("Updated", entry.ID, "->", entry.Time, entry.Food)
	return nil
}

// Remove deletes a meal by id.
func (a *App) Remove(ctx context.Context, id string) error {
	if err := a.mealService.Remove(ctx, id); err != nil {
		return err
	}
	printlnFn("Removed", id)
	return nil
}

// Pair mints a pairing code for another device to join with.
func (a *App) Pair(ctx context.Context, deviceName string) error {
	code, err := a.sync.GenerateCode(ctx, deviceName)
	if err != nil {
		return err
	}
	printlnFn("Sync code:", code, "(valid for 10 minutes, single use)")
	return nil
}

// Join redeems a pairing code from another device.
func (a *App) Join(ctx context.Context, code string) error {
	schedule, err := a.sync.RedeemCode(ctx, code)
	if err != nil {
		return err
	}
	a.mealService.Reload()
	printlnFn("Joined sync group;", schedule.Count(), "meals received")
	return nil
}

// Sync runs a full merge sync with the server.
func (a *App) Sync(ctx context.Context) error {
	merged, err := a.sync.SyncNow(ctx)
	if err != nil {
		return err
	}
	a.mealService.Reload()
	printlnFn("Synced;", merged.Count(), "meals total")
	return nil
}

// Export writes a portable backup file.
func (a *App) Export(ctx context.Context, path string) error {
	if err := a.sync.ExportToFile(path); err != nil {
		return err
	}
	printlnFn("Exported backup to", path)
	return nil
}

// Import merges a backup file into local storage.
func (a *App) Import(ctx context.Context, path string) error {
	if err := a.sync.ImportFromFile(path); err != nil {
		return err
	}
	a.mealService.Reload()
	printlnFn("Imported backup from", path)
	return nil
}

// Status prints the sync status.
func (a *App) Status(ctx context.Context) error {
	st := a.sync.Status()
	state := a.mealService.State()

	mode := "remote"
	if state.IsLocalMode {
		mode = "local"
	}

	printlnFn("Mode:", mode)
	printlnFn("Sync enabled:", st.IsEnabled)
	printlnFn("Device id:", st.DeviceID)
	if st.LastSync != "" {
		printlnFn("Last sync:", st.LastSync)
	} else {
		printlnFn("Last sync: never")
	}
	printlnFn("Pending changes:", st.PendingChanges)
	return nil
}
