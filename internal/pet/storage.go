// Package pet provides the storage boundary for the local pet state and
// the graveyard of past pets. The pet's own energy/feeding state machine
// lives with the status-line tool; this package only reads and writes its
// on-disk records.
package pet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sdpower/ccpet-go/internal/types"
)

// State is the on-disk pet record at pet-state.json.
type State struct {
	UUID                string    `json:"uuid"`
	PetName             string    `json:"petName"`
	AnimalType          string    `json:"animalType"`
	Emoji               string    `json:"emoji,omitempty"`
	BirthTime           time.Time `json:"birthTime"`
	Energy              float64   `json:"energy"`
	TotalLifetimeTokens int64     `json:"totalLifetimeTokens"`
}

// IsAlive reports whether the pet still has energy.
func (s State) IsAlive() bool {
	return s.Energy > 0
}

// GraveyardRecord is one dead pet archived under graveyard/.
type GraveyardRecord struct {
	PetName             string `json:"petName"`
	AnimalType          string `json:"animalType"`
	TotalLifetimeTokens int64  `json:"totalLifetimeTokens"`
	SurvivalDays        int    `json:"survivalDays"`
}

// Storage reads and writes pet state under a base directory.
type Storage struct {
	dir string
}

func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

func (s *Storage) statePath() string {
	return filepath.Join(s.dir, "pet-state.json")
}

// Load reads the current pet state. It returns types.ErrNoPetState when no
// pet has been created yet. States written before UUIDs were introduced get
// one assigned and persisted on first load.
func (s *Storage) Load() (State, error) {
	data, err := os.ReadFile(s.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, types.ErrNoPetState
		}
		return State{}, fmt.Errorf("read pet state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse pet state: %w", err)
	}

	if st.UUID == "" {
		st.UUID = uuid.NewString()
		if err := s.Save(st); err != nil {
			return State{}, err
		}
	}
	return st, nil
}

// Save persists the pet state, creating the directory if needed.
func (s *Storage) Save(st State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir pet dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pet state: %w", err)
	}
	if err := os.WriteFile(s.statePath(), data, 0o644); err != nil {
		return fmt.Errorf("write pet state: %w", err)
	}
	return nil
}

// Graveyard returns archived records of dead pets. Corrupt files are
// skipped rather than failing the listing.
func (s *Storage) Graveyard() ([]GraveyardRecord, error) {
	dir := filepath.Join(s.dir, "graveyard")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read graveyard: %w", err)
	}

	var records []GraveyardRecord
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var rec GraveyardRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
