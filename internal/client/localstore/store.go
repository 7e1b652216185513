// Package localstore is the on-device persistence adapter: a single JSON
// blob holding the whole meal schedule, plus two small slots for the device
// id and the last successful sync timestamp.
//
// The blob is always written whole — read-modify-write is the unit of
// atomicity, matching what the underlying store can actually guarantee.
package localstore

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

const (
	mealsFile    = "meals.json"
	deviceIDFile = "device-id"
	lastSyncFile = "last-sync"
)

// Store owns the on-device slots. Absent or corrupt content is treated as
// empty state: loads fail soft so a damaged blob never takes the app down.
type Store struct {
	dir string
	mu  sync.RWMutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads the meal blob. A missing or unparseable file yields an empty
// schedule.
func (s *Store) Load() models.DaySchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(mealsFile))
	if err != nil {
		return models.DaySchedule{}
	}

	var schedule models.DaySchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return models.DaySchedule{}
	}
	if schedule == nil {
		schedule = models.DaySchedule{}
	}
	return schedule
}

// Save rewrites the whole meal blob.
func (s *Store) Save(schedule models.DaySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meals: %w", err)
	}
	if err := os.WriteFile(s.path(mealsFile), data, 0o644); err != nil {
		return fmt.Errorf("write meals: %w", err)
	}
	return nil
}

// DeviceID returns the stable per-device identity, generating and
// persisting one on first use.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(deviceIDFile))
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := newDeviceID()
	if err := os.WriteFile(s.path(deviceIDFile), []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}

// newDeviceID builds "device-<unix ms>-<9 random base36 chars>": unique
// enough for provenance tagging without any coordination.
func newDeviceID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return fmt.Sprintf("device-%d-%s", time.Now().UnixMilli(), suffix)
}

// LastSync returns the stored last-sync timestamp, or "" when the device
// has never synced.
func (s *Store) LastSync() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(lastSyncFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetLastSync records the last successful sync timestamp.
func (s *Store) SetLastSync(ts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path(lastSyncFile), []byte(ts), 0o644); err != nil {
		return fmt.Errorf("write last sync: %w", err)
	}
	return nil
}
