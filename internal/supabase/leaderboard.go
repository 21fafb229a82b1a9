package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/sdpower/ccpet-go/internal/types"
)

// LeaderboardOptions selects the window, ordering and size of a ranking
// query.
type LeaderboardOptions struct {
	Period types.Period
	SortBy types.SortBy
	Limit  int
}

// QueryLeaderboard asks the backend for a pre-aggregated ranking via the
// get_leaderboard RPC.
func (c *Client) QueryLeaderboard(ctx context.Context, opts LeaderboardOptions) ([]types.LeaderboardEntry, error) {
	var dateFilter *string
	if op, date := periodFilter(opts.Period, c.now()); op != "" {
		dateFilter = &date
	}

	payload, err := json.Marshal(map[string]any{
		"date_filter": dateFilter,
		"sort_by":     string(opts.SortBy),
		"limit_count": opts.Limit,
	})
	if err != nil {
		return nil, types.SyncError{Op: "leaderboard query", Err: err}
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/rest/v1/rpc/get_leaderboard", "", payload)
	if err != nil {
		return nil, types.SyncError{Op: "leaderboard query", Err: err}
	}
	if status != http.StatusOK {
		return nil, types.SyncError{
			Op:  "leaderboard query",
			Err: types.HTTPError{StatusCode: status, Body: string(body)},
		}
	}

	var entries []types.LeaderboardEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, types.SyncError{Op: "leaderboard query", Err: err}
	}
	return entries, nil
}

// QueryLeaderboardFallback computes the same ranking client-side from the
// raw tables, for backends without the get_leaderboard RPC. It fetches all
// pet records plus the period's usage rows, aggregates token and cost sums
// per pet, and joins the two with zero usage for pets that have none.
func (c *Client) QueryLeaderboardFallback(ctx context.Context, opts LeaderboardOptions) ([]types.LeaderboardEntry, error) {
	pets, err := c.fetchAllPetRecords(ctx)
	if err != nil {
		return nil, err
	}

	usage, err := c.fetchUsageTotals(ctx, opts.Period)
	if err != nil {
		return nil, err
	}

	now := c.now()
	entries := make([]types.LeaderboardEntry, 0, len(pets))
	for _, p := range pets {
		entry := types.LeaderboardEntry{
			PetName:    p.PetName,
			AnimalType: p.AnimalType,
			IsAlive:    p.DeathTime == nil,
		}
		if totals, ok := usage[p.ID]; ok {
			entry.TotalTokens = totals.tokens
			entry.TotalCost = totals.cost
		}

		end := now
		if p.DeathTime != nil {
			end = *p.DeathTime
		}
		if days := int(end.Sub(p.BirthTime).Hours() / 24); days > 0 {
			entry.SurvivalDays = days
		}
		entries = append(entries, entry)
	}

	sortAndRank(entries, opts.SortBy)
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

type usageTotals struct {
	tokens int64
	cost   float64
}

func (c *Client) fetchAllPetRecords(ctx context.Context) ([]types.PetRecord, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/rest/v1/pet_records?select=*", "", nil)
	if err != nil {
		return nil, types.SyncError{Op: "pet records query", Err: err}
	}
	if status != http.StatusOK {
		return nil, types.SyncError{
			Op:  "pet records query",
			Err: types.HTTPError{StatusCode: status, Body: string(body)},
		}
	}

	var pets []types.PetRecord
	if err := json.Unmarshal(body, &pets); err != nil {
		return nil, types.SyncError{Op: "pet records query", Err: err}
	}
	return pets, nil
}

func (c *Client) fetchUsageTotals(ctx context.Context, period types.Period) (map[string]usageTotals, error) {
	path := "/rest/v1/token_usage?select=pet_id,total_tokens,cost_usd"
	if op, date := periodFilter(period, c.now()); op != "" {
		path += fmt.Sprintf("&usage_date=%s.%s", op, date)
	}

	status, body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, types.SyncError{Op: "usage totals query", Err: err}
	}
	if status != http.StatusOK {
		return nil, types.SyncError{
			Op:  "usage totals query",
			Err: types.HTTPError{StatusCode: status, Body: string(body)},
		}
	}

	var rows []struct {
		PetID       string  `json:"pet_id"`
		TotalTokens int64   `json:"total_tokens"`
		CostUSD     float64 `json:"cost_usd"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, types.SyncError{Op: "usage totals query", Err: err}
	}

	totals := make(map[string]usageTotals)
	for _, row := range rows {
		t := totals[row.PetID]
		t.tokens += row.TotalTokens
		t.cost += row.CostUSD
		totals[row.PetID] = t
	}
	return totals, nil
}

// sortAndRank orders entries descending by the sort field and assigns dense
// 1..N ranks. The sort is stable so ties keep their input order.
func sortAndRank(entries []types.LeaderboardEntry, sortBy types.SortBy) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch sortBy {
		case types.SortCost:
			return a.TotalCost > b.TotalCost
		case types.SortSurvival:
			return a.SurvivalDays > b.SurvivalDays
		default:
			return a.TotalTokens > b.TotalTokens
		}
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
