package types

import (
	"math"
	"time"
)

// UsageRow is one day's token usage for one pet, in the shape of the
// token_usage table. PetID is empty until the row has been attributed to a
// pet by the sync client.
type UsageRow struct {
	PetID        string  `json:"pet_id,omitempty"`
	UsageDate    string  `json:"usage_date"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CacheTokens  int     `json:"cache_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	ModelName    string  `json:"model_name"`
}

// Key returns the content identity of the row. Two rows with the same key
// are considered the same remote record; any drift in tokens or cost makes
// a new row rather than an update.
func (r UsageRow) Key() UsageRowKey {
	return UsageRowKey{
		UsageDate:    r.UsageDate,
		TotalTokens:  r.TotalTokens,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		CostMicros:   int64(math.Round(r.CostUSD * 1e6)),
	}
}

// UsageRowKey is the composite content key used for reconciliation diffs.
// Cost participates rounded to 6 decimal places so float noise from JSON
// round-trips does not defeat the match.
type UsageRowKey struct {
	UsageDate    string
	TotalTokens  int
	InputTokens  int
	OutputTokens int
	CostMicros   int64
}

// PetRecord is the durable per-installation entity in the pet_records
// table. DeathTime and SurvivalDays are set exactly once, when the pet
// dies, and never cleared.
type PetRecord struct {
	ID           string     `json:"id"`
	PetName      string     `json:"pet_name"`
	AnimalType   string     `json:"animal_type"`
	Emoji        string     `json:"emoji,omitempty"`
	BirthTime    time.Time  `json:"birth_time"`
	DeathTime    *time.Time `json:"death_time,omitempty"`
	SurvivalDays *int       `json:"survival_days,omitempty"`
}

// Equal reports whether two records carry the same content. Timestamps are
// compared as instants since the backend rewrites their text form.
func (p PetRecord) Equal(o PetRecord) bool {
	if p.ID != o.ID || p.PetName != o.PetName || p.AnimalType != o.AnimalType || p.Emoji != o.Emoji {
		return false
	}
	if !p.BirthTime.Equal(o.BirthTime) {
		return false
	}
	if (p.DeathTime == nil) != (o.DeathTime == nil) {
		return false
	}
	if p.DeathTime != nil && !p.DeathTime.Equal(*o.DeathTime) {
		return false
	}
	if (p.SurvivalDays == nil) != (o.SurvivalDays == nil) {
		return false
	}
	if p.SurvivalDays != nil && *p.SurvivalDays != *o.SurvivalDays {
		return false
	}
	return true
}

// SyncStatus accumulates per-row accounting across upload batches.
type SyncStatus struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// SyncResult is the outcome of a bulk upload.
type SyncResult struct {
	Success bool       `json:"success"`
	Status  SyncStatus `json:"status"`
	Message string     `json:"message"`
}

// LeaderboardEntry is one ranked row. It is derived on every query and
// never persisted.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	PetName      string  `json:"pet_name"`
	AnimalType   string  `json:"animal_type"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	SurvivalDays int     `json:"survival_days"`
	IsAlive      bool    `json:"is_alive"`
}

// Period selects the leaderboard time window.
type Period string

const (
	PeriodToday Period = "today"
	Period7d    Period = "7d"
	Period30d   Period = "30d"
	PeriodAll   Period = "all"
)

// SortBy selects the leaderboard ranking field.
type SortBy string

const (
	SortTokens   SortBy = "tokens"
	SortCost     SortBy = "cost"
	SortSurvival SortBy = "survival"
)

// ValidPeriod reports whether s names a supported period.
func ValidPeriod(s string) bool {
	switch Period(s) {
	case PeriodToday, Period7d, Period30d, PeriodAll:
		return true
	}
	return false
}

// ValidSortBy reports whether s names a supported sort field.
func ValidSortBy(s string) bool {
	switch SortBy(s) {
	case SortTokens, SortCost, SortSurvival:
		return true
	}
	return false
}
