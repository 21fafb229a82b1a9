// Package autosync decides when a background sync is due, guards against
// concurrent or abandoned runs, and launches the detached sync worker.
package autosync

import (
	"time"

	"github.com/sdpower/ccpet-go/internal/config"
)

// stalenessTimeout bounds how long an in-progress marker is honored. An
// older marker belongs to a crashed or hung worker and is force-reset.
const stalenessTimeout = 5 * time.Minute

// defaultIntervalMinutes applies when the configured interval is missing
// or non-positive.
const defaultIntervalMinutes = 1440

// Service is the sync scheduler/guard.
type Service struct {
	lock       LockStore
	launcher   Launcher
	log        *Log
	loadConfig func() (config.Config, error)
	now        func() time.Time
}

func NewService(lock LockStore, launcher Launcher, log *Log) *Service {
	return &Service{
		lock:       lock,
		launcher:   launcher,
		log:        log,
		loadConfig: config.Load,
		now:        time.Now,
	}
}

// SetConfigLoader replaces the configuration source, for tests.
func (s *Service) SetConfigLoader(load func() (config.Config, error)) {
	s.loadConfig = load
}

// SetNow replaces the clock, for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Check runs one scheduling decision. It is called on the status-line hot
// path and therefore never returns an error: every failure is logged and
// treated as "no sync this cycle".
func (s *Service) Check() {
	cfg, err := s.loadConfig()
	if err != nil {
		s.log.Error("auto sync check failed: %v", err)
		return
	}

	if !cfg.Supabase.AutoSync {
		return
	}
	if cfg.Supabase.URL == "" || cfg.Supabase.APIKey == "" {
		s.log.Warn("auto sync enabled but supabase configuration is incomplete")
		return
	}

	interval := time.Duration(cfg.Supabase.SyncInterval) * time.Minute
	if interval <= 0 {
		interval = defaultIntervalMinutes * time.Minute
	}

	rec, err := s.lock.Load()
	if err != nil {
		s.log.Error("failed to read sync lock record: %v", err)
		rec = LockRecord{}
	}

	now := s.now()
	if rec.SyncInProgress {
		elapsed := now.Sub(time.UnixMilli(rec.LastSyncTime))
		if elapsed <= stalenessTimeout {
			s.log.Info("sync already in progress (started %ds ago)", int(elapsed.Seconds()))
			return
		}
		// Stale marker from a crashed worker. Reset it and restart the
		// interval from now; the relaunch happens on a later check.
		s.log.Warn("detected stale sync process (%ds), resetting sync status", int(elapsed.Seconds()))
		s.setStatus(false, now)
		rec = LockRecord{LastSyncTime: now.UnixMilli()}
	}

	if now.Sub(time.UnixMilli(rec.LastSyncTime)) < interval {
		return
	}

	s.trigger(now)
}

// trigger flips the lock and launches the worker. The lock write happens
// before the launch so a racing check observes in-progress first.
func (s *Service) trigger(now time.Time) {
	s.setStatus(true, now)

	err := s.launcher.Launch(func(err error) {
		s.setStatus(false, s.now())
		if err != nil {
			s.log.Error("background sync failed: %v", err)
		} else {
			s.log.Info("background sync completed successfully")
		}
	})
	if err != nil {
		s.log.Error("failed to trigger background sync: %v", err)
		s.setStatus(false, now)
		return
	}
	s.log.Info("background sync triggered")
}

// Reset unconditionally clears the in-progress marker, for operator
// recovery when a worker died without reporting back.
func (s *Service) Reset() {
	rec, err := s.lock.Load()
	if err != nil {
		s.log.Error("failed to read sync lock record: %v", err)
	}

	now := s.now()
	if rec.SyncInProgress {
		stuck := now.Sub(time.UnixMilli(rec.LastSyncTime))
		s.log.Warn("manually resetting stuck sync status (was stuck for %ds)", int(stuck.Seconds()))
	} else {
		s.log.Info("sync status manually reset (was already clear)")
	}
	s.setStatus(false, now)
}

// LastSyncTime returns the recorded last sync time; ok is false when no
// sync has ever run.
func (s *Service) LastSyncTime() (time.Time, bool) {
	rec, err := s.lock.Load()
	if err != nil || rec.LastSyncTime == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(rec.LastSyncTime), true
}

// InProgress reports whether a sync currently holds the lock.
func (s *Service) InProgress() bool {
	rec, err := s.lock.Load()
	if err != nil {
		return false
	}
	return rec.SyncInProgress
}

func (s *Service) setStatus(inProgress bool, at time.Time) {
	rec := LockRecord{LastSyncTime: at.UnixMilli(), SyncInProgress: inProgress}
	if err := s.lock.Store(rec); err != nil {
		s.log.Error("failed to update sync status: %v", err)
		return
	}
	s.log.Info("sync status updated: syncInProgress=%t", inProgress)
}
