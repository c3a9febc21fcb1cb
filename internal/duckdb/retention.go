package duckdb

import (
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// RetentionConfig holds configuration for the retention cleaner.
type RetentionConfig struct {
	RetentionDays int
	SweepInterval time.Duration
}

// RetentionCleaner periodically deletes submissions older than the
// configured retention period.
type RetentionCleaner struct {
	store         *Store
	retentionDays int
	sweep         time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	stopOnce      sync.Once
}

// NewRetentionCleaner creates a retention cleaner for the history store.
// Returns nil when retention is 0 (disabled).
func NewRetentionCleaner(store *Store, conf ...RetentionConfig) *RetentionCleaner {
	days := model.DefaultHistoryRetention
	sweep := model.DefaultRetentionSweep
	if len(conf) > 0 {
		days = conf[0].RetentionDays
		if conf[0].SweepInterval > 0 {
			sweep = conf[0].SweepInterval
		}
	}
	if days <= 0 || store == nil {
		return nil
	}

	rc := &RetentionCleaner{
		store:         store,
		retentionDays: days,
		sweep:         sweep,
		done:          make(chan struct{}),
	}

	// Catch up on anything that expired while the process was down.
	rc.cleanup()

	rc.wg.Add(1)
	go rc.tickLoop()

	return rc
}

func (rc *RetentionCleaner) tickLoop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(rc.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) cleanup() {
	cutoff := time.Now().Add(-time.Duration(rc.retentionDays) * 24 * time.Hour)

	n, err := rc.store.DeleteSubmissionsBefore(cutoff)
	if err != nil {
		log.Printf("duckdb: retention cleanup error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("duckdb: retention cleanup deleted %d submissions (older than %d days)", n, rc.retentionDays)
	}
}

// Stop signals the cleaner to stop and waits for it to finish.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
