package autosync

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sdpower/ccpet-go/internal/config"
	"github.com/stretchr/testify/require"
)

type memLockStore struct {
	mu      sync.Mutex
	rec     LockRecord
	loadErr error
}

func (s *memLockStore) Load() (LockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, s.loadErr
}

func (s *memLockStore) Store(rec LockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	return nil
}

type fakeLauncher struct {
	launches int
	onExit   func(error)
	err      error
}

func (l *fakeLauncher) Launch(onExit func(error)) error {
	if l.err != nil {
		return l.err
	}
	l.launches++
	l.onExit = onExit
	return nil
}

func enabledConfig() config.Config {
	return config.Config{Supabase: config.SupabaseConfig{
		URL:          "https://example.supabase.co",
		APIKey:       "key",
		AutoSync:     true,
		SyncInterval: 60,
	}}
}

func newTestService(t *testing.T, lock LockStore, launcher Launcher, cfg config.Config, now time.Time) *Service {
	t.Helper()
	svc := NewService(lock, launcher, NewLog(t.TempDir()))
	svc.SetConfigLoader(func() (config.Config, error) { return cfg, nil })
	svc.SetNow(func() time.Time { return now })
	return svc
}

func TestCheckDisabledIsNoOp(t *testing.T) {
	lock := &memLockStore{}
	launcher := &fakeLauncher{}
	cfg := enabledConfig()
	cfg.Supabase.AutoSync = false

	svc := newTestService(t, lock, launcher, cfg, time.Now())
	svc.Check()

	require.Zero(t, launcher.launches)
	require.False(t, lock.rec.SyncInProgress)
}

func TestCheckIncompleteConfigIsNoOp(t *testing.T) {
	lock := &memLockStore{}
	launcher := &fakeLauncher{}
	cfg := enabledConfig()
	cfg.Supabase.APIKey = ""

	svc := newTestService(t, lock, launcher, cfg, time.Now())
	svc.Check()

	require.Zero(t, launcher.launches)
}

func TestCheckNotDueIsNoOp(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{LastSyncTime: now.Add(-30 * time.Minute).UnixMilli()}}
	launcher := &fakeLauncher{}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()

	require.Zero(t, launcher.launches, "interval is 60m, only 30m elapsed")
}

func TestCheckDueTriggersWorker(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{LastSyncTime: now.Add(-2 * time.Hour).UnixMilli()}}
	launcher := &fakeLauncher{}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()

	require.Equal(t, 1, launcher.launches)
	require.True(t, lock.rec.SyncInProgress, "lock flips before the launch returns")
	require.Equal(t, now.UnixMilli(), lock.rec.LastSyncTime)

	// worker completion releases the lock
	launcher.onExit(nil)
	require.False(t, lock.rec.SyncInProgress)
}

func TestCheckFirstEverSyncIsDue(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{}
	launcher := &fakeLauncher{}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()

	require.Equal(t, 1, launcher.launches, "zero record means a sync has never run")
}

func TestCheckFreshInProgressIsNoOp(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{
		LastSyncTime:   now.Add(-2 * time.Minute).UnixMilli(),
		SyncInProgress: true,
	}}
	launcher := &fakeLauncher{}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()

	require.Zero(t, launcher.launches, "another run owns the lock")
	require.True(t, lock.rec.SyncInProgress)
}

func TestCheckStaleInProgressIsResetWithoutRelaunch(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{
		LastSyncTime:   now.Add(-10 * time.Minute).UnixMilli(),
		SyncInProgress: true,
	}}
	launcher := &fakeLauncher{}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()

	require.False(t, lock.rec.SyncInProgress, "stale marker force-reset")
	require.Zero(t, launcher.launches, "reset and relaunch are separate cycles")
	require.Equal(t, now.UnixMilli(), lock.rec.LastSyncTime)
}

func TestCheckLaunchErrorResetsLock(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{LastSyncTime: now.Add(-2 * time.Hour).UnixMilli()}}
	launcher := &fakeLauncher{err: errors.New("spawn failed")}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()

	require.False(t, lock.rec.SyncInProgress)
}

func TestCheckWorkerFailureReleasesLock(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{LastSyncTime: now.Add(-2 * time.Hour).UnixMilli()}}
	launcher := &fakeLauncher{}

	svc := newTestService(t, lock, launcher, enabledConfig(), now)
	svc.Check()
	require.True(t, lock.rec.SyncInProgress)

	launcher.onExit(errors.New("worker exit 1"))
	require.False(t, lock.rec.SyncInProgress, "failure still releases the lock")
}

func TestCheckConfigErrorNeverPanicsOrLaunches(t *testing.T) {
	lock := &memLockStore{}
	launcher := &fakeLauncher{}
	svc := NewService(lock, launcher, NewLog(t.TempDir()))
	svc.SetConfigLoader(func() (config.Config, error) { return config.Config{}, errors.New("corrupt config") })

	require.NotPanics(t, svc.Check)
	require.Zero(t, launcher.launches)
}

func TestResetUnconditionallyClearsFlag(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{rec: LockRecord{
		LastSyncTime:   now.Add(-1 * time.Minute).UnixMilli(),
		SyncInProgress: true,
	}}

	svc := newTestService(t, lock, &fakeLauncher{}, enabledConfig(), now)
	svc.Reset()

	require.False(t, lock.rec.SyncInProgress)
}

func TestStatusAccessors(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	lock := &memLockStore{}
	svc := newTestService(t, lock, &fakeLauncher{}, enabledConfig(), now)

	_, ok := svc.LastSyncTime()
	require.False(t, ok, "never synced")
	require.False(t, svc.InProgress())

	require.NoError(t, lock.Store(LockRecord{LastSyncTime: now.UnixMilli(), SyncInProgress: true}))
	last, ok := svc.LastSyncTime()
	require.True(t, ok)
	require.Equal(t, now.UnixMilli(), last.UnixMilli())
	require.True(t, svc.InProgress())
}

func TestFileLockStoreRoundTrip(t *testing.T) {
	store := NewFileLockStore(t.TempDir())

	rec, err := store.Load()
	require.NoError(t, err)
	require.Zero(t, rec, "missing file yields the zero record")

	want := LockRecord{LastSyncTime: 1705752000000, SyncInProgress: true}
	require.NoError(t, store.Store(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}
