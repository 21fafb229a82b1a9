package leaderboard

import (
	"errors"
	"time"

	"github.com/sdpower/ccpet-go/internal/pet"
	"github.com/sdpower/ccpet-go/internal/types"
)

// LocalEntries derives a ranking from on-disk pet data alone: the current
// pet plus the graveyard. Local data carries no cost dimension, so
// TotalCost is always zero here and the formatter hides it in offline mode.
func LocalEntries(store *pet.Storage, now time.Time) ([]types.LeaderboardEntry, error) {
	var entries []types.LeaderboardEntry

	state, err := store.Load()
	switch {
	case err == nil:
		entries = append(entries, types.LeaderboardEntry{
			PetName:      state.PetName,
			AnimalType:   state.AnimalType,
			TotalTokens:  state.TotalLifetimeTokens,
			SurvivalDays: int(now.Sub(state.BirthTime).Hours() / 24),
			IsAlive:      state.IsAlive(),
		})
	case errors.Is(err, types.ErrNoPetState):
		// no living pet, the graveyard may still have entries
	default:
		return nil, err
	}

	graves, err := store.Graveyard()
	if err != nil {
		return nil, err
	}
	for _, g := range graves {
		entries = append(entries, types.LeaderboardEntry{
			PetName:      g.PetName,
			AnimalType:   g.AnimalType,
			TotalTokens:  g.TotalLifetimeTokens,
			SurvivalDays: g.SurvivalDays,
			IsAlive:      false,
		})
	}

	return Rank(entries, types.SortTokens), nil
}
