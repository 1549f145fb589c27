package vectree

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultCompactRatio is used when WithAutoCompaction is given a ratio
// outside (0, 1).
const defaultCompactRatio = 0.25

// maintainer watches the tombstone fraction of the active index and
// triggers build-then-swap rebuilds off the critical path, so the write
// path rarely pays for compaction itself. Rebuilds are paced by a rate
// limiter to keep a churning workload from rebuilding back to back.
type maintainer struct {
	lib      *Library
	interval time.Duration
	ratio    float64
	limiter  *rate.Limiter

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newMaintainer(lib *Library, interval time.Duration, ratio float64) *maintainer {
	if ratio <= 0 || ratio >= 1 {
		ratio = defaultCompactRatio
	}
	return &maintainer{
		lib:      lib,
		interval: interval,
		ratio:    ratio,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		done:     make(chan struct{}),
	}
}

func (m *maintainer) start() {
	m.wg.Add(1)
	go m.run()
}

func (m *maintainer) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.compactIfNeeded()
		}
	}
}

func (m *maintainer) compactIfNeeded() {
	stats := m.lib.Stats()
	total := stats.Size + stats.Tombstones
	if total == 0 || float64(stats.Tombstones)/float64(total) <= m.ratio {
		return
	}
	if !m.limiter.Allow() {
		return
	}

	// Rebuild onto the same variant; errors are logged by Rebuild itself.
	_ = m.lib.Rebuild(m.lib.Algorithm())
}

func (m *maintainer) stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}
