// Package leaderboard ranks pets and renders the leaderboard table.
package leaderboard

import (
	"sort"

	"github.com/sdpower/ccpet-go/internal/types"
)

// Rank sorts entries descending by the sort field and reassigns dense
// 1..N ranks. The input is not modified. Ties keep their input order.
func Rank(entries []types.LeaderboardEntry, sortBy types.SortBy) []types.LeaderboardEntry {
	ranked := make([]types.LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch sortBy {
		case types.SortCost:
			return a.TotalCost > b.TotalCost
		case types.SortSurvival:
			return a.SurvivalDays > b.SurvivalDays
		default:
			return a.TotalTokens > b.TotalTokens
		}
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Truncate limits a ranked list. Ranking always happens before truncation
// so the kept entries carry their true positions.
func Truncate(entries []types.LeaderboardEntry, limit int) []types.LeaderboardEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
