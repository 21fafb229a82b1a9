package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeLastDate struct {
	date   string
	err    error
	called bool
}

func (f *fakeLastDate) LastSyncedDate(ctx context.Context, petID string) (string, error) {
	f.called = true
	return f.date, f.err
}

var (
	testBirth = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	testNow   = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
)

func TestResolveRangeFirstSync(t *testing.T) {
	remote := &fakeLastDate{}

	start, end := ResolveRange(context.Background(), remote, "", "", "pet-1", testBirth, testNow)
	require.Equal(t, "2024-01-01", start, "first sync starts at birth date")
	require.Equal(t, "2024-01-20", end)
	require.True(t, remote.called)
}

func TestResolveRangeIncremental(t *testing.T) {
	remote := &fakeLastDate{date: "2024-01-10"}

	start, end := ResolveRange(context.Background(), remote, "", "", "pet-1", testBirth, testNow)
	require.Equal(t, "2024-01-11", start, "window starts the day after the last remote row")
	require.Equal(t, "2024-01-20", end)
}

func TestResolveRangeQueryFailureFallsBack(t *testing.T) {
	remote := &fakeLastDate{err: errors.New("remote down")}

	start, end := ResolveRange(context.Background(), remote, "", "", "pet-1", testBirth, testNow)
	require.Equal(t, "2024-01-01", start, "failure falls back to full resync")
	require.Equal(t, "2024-01-20", end)
}

func TestResolveRangeExplicitBoundsSkipRemote(t *testing.T) {
	remote := &fakeLastDate{date: "2024-01-10"}

	start, end := ResolveRange(context.Background(), remote, "2024-01-05", "2024-01-15", "pet-1", testBirth, testNow)
	require.Equal(t, "2024-01-05", start)
	require.Equal(t, "2024-01-15", end)
	require.False(t, remote.called, "explicit bounds must not contact the remote")
}

func TestResolveRangeExplicitStartOnly(t *testing.T) {
	remote := &fakeLastDate{}

	start, end := ResolveRange(context.Background(), remote, "2024-01-05", "", "pet-1", testBirth, testNow)
	require.Equal(t, "2024-01-05", start)
	require.Equal(t, "2024-01-20", end, "missing end defaults to today")
	require.False(t, remote.called)
}

func TestResolveRangeExplicitEndOnly(t *testing.T) {
	remote := &fakeLastDate{}

	start, end := ResolveRange(context.Background(), remote, "", "2024-01-15", "pet-1", testBirth, testNow)
	require.Equal(t, "2024-01-01", start, "missing start defaults to birth date")
	require.Equal(t, "2024-01-15", end)
	require.False(t, remote.called)
}

func TestNextDayCrossesMonth(t *testing.T) {
	require.Equal(t, "2024-02-01", nextDay("2024-01-31"))
	require.Equal(t, "2024-03-01", nextDay("2024-02-29"))
}
