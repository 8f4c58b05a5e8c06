package services

import (
	"context"
	"sync"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

type mockObserver struct {
	mu       sync.Mutex
	started  []string
	finished []catasto.RegionResult
}

func (m *mockObserver) RegionStarted(code string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, code)
}

func (m *mockObserver) RegionFinished(result catasto.RegionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, result)
}

// cancellingObserver cancels the run once the given number of regions finished.
type cancellingObserver struct {
	mockObserver
	cancel context.CancelFunc
	after  int
}

func (c *cancellingObserver) RegionFinished(result catasto.RegionResult) {
	c.mockObserver.RegionFinished(result)
	c.mu.Lock()
	done := len(c.finished)
	c.mu.Unlock()
	if done == c.after {
		c.cancel()
	}
}
