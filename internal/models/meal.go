// Package models defines the wire and storage types shared by the REST
// façade and the on-device client: meal entries, per-date schedules, sync
// pairing codes and backup documents.
package models

import "sort"

// TimestampLayout is the format used for created_at/updated_at/synced_at
// values everywhere in the system (UTC RFC3339).
const TimestampLayout = "2006-01-02T15:04:05Z07:00"

// MealEntry is one scheduled meal. Date ("YYYY-MM-DD") is the partition
// key; Time ("HH:MM", 24h) orders entries within a date. UpdatedAt is the
// authority for conflict resolution during sync.
//
// DeviceID, UserID and SyncedAt only ever appear on records that have been
// through the remote store; they are provenance tags, not client state.
type MealEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Food      string `json:"food"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	DeviceID  string `json:"device_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SyncedAt  string `json:"synced_at,omitempty"`
}

// DaySchedule is the complete client-visible state: all meals grouped by
// date, each partition kept sorted ascending by time.
type DaySchedule map[string][]MealEntry

// SortPartition orders a single date partition ascending by time,
// breaking ties by id so the order is deterministic.
func SortPartition(entries []MealEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Time != entries[j].Time {
			return entries[i].Time < entries[j].Time
		}
		return entries[i].ID < entries[j].ID
	})
}

// Flatten converts a DaySchedule into a flat record sequence.
func (s DaySchedule) Flatten() []MealEntry {
	var result []MealEntry
	for _, entries := range s {
		result = append(result, entries...)
	}
	return result
}

// GroupByDate rebuilds a DaySchedule from flat records, sorting every
// partition.
func GroupByDate(entries []MealEntry) DaySchedule {
	s := DaySchedule{}
	for _, e := range entries {
		s[e.Date] = append(s[e.Date], e)
	}
	for date := range s {
		SortPartition(s[date])
	}
	return s
}

// Clone returns a deep copy of the schedule. Partition slices are copied so
// callers can hand snapshots out without sharing backing arrays.
func (s DaySchedule) Clone() DaySchedule {
	out := make(DaySchedule, len(s))
	for date, entries := range s {
		cp := make([]MealEntry, len(entries))
		copy(cp, entries)
		out[date] = cp
	}
	return out
}

// Count returns the total number of entries across all partitions.
func (s DaySchedule) Count() int {
	n := 0
	for _, entries := range s {
		n += len(entries)
	}
	return n
}

// SyncCode is a short-lived, single-use pairing token linking two devices.
type SyncCode struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	DeviceName string `json:"device_name"`
	CreatedAt  string `json:"created_at"`
	ExpiresAt  string `json:"expires_at"`
	Used       bool   `json:"used"`
}

// SyncStatus is process-local sync state; it is never persisted remotely.
type SyncStatus struct {
	IsEnabled      bool   `json:"isEnabled"`
	DeviceID       string `json:"deviceId"`
	LastSync       string `json:"lastSync,omitempty"`
	PendingChanges int    `json:"pendingChanges"`
}

// BackupVersion is the format version written into exported backup files.
const BackupVersion = "1.0"

// Backup is the portable export document.
type Backup struct {
	Version    string      `json:"version"`
	ExportDate string      `json:"exportDate"`
	DeviceID   string      `json:"deviceId,omitempty"`
	Meals      DaySchedule `json:"meals"`
}
