package syncer

import (
	"context"
	"time"
)

// LastDateQuerier is the slice of the sync client the range resolver needs.
type LastDateQuerier interface {
	LastSyncedDate(ctx context.Context, petID string) (string, error)
}

// ResolveRange picks the date window for a reconciliation run.
//
// Explicit bounds always win and skip the remote query entirely, with the
// missing bound defaulting to the pet's birth date or today. Otherwise the
// window is incremental: first sync covers [birth, today], later syncs
// start the day after the last remote row. A failing remote query falls
// back to the full window; re-uploading is harmless because the diff step
// is idempotent, while skipping a sync loses data.
func ResolveRange(ctx context.Context, remote LastDateQuerier, explicitStart, explicitEnd, petID string, birth, now time.Time) (string, string) {
	today := now.Format("2006-01-02")
	birthDate := birth.Format("2006-01-02")

	if explicitStart != "" || explicitEnd != "" {
		start, end := explicitStart, explicitEnd
		if start == "" {
			start = birthDate
		}
		if end == "" {
			end = today
		}
		return start, end
	}

	last, err := remote.LastSyncedDate(ctx, petID)
	if err != nil || last == "" {
		return birthDate, today
	}
	return nextDay(last), today
}

// nextDay returns the day after a YYYY-MM-DD date.
func nextDay(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, 1).Format("2006-01-02")
}
