package service

import (
	"context"
	"sync"
)

// nodeJobs tracks background removals by node id. A node runs at most one
// removal; shutdown drains the rest.
type nodeJobs struct {
	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

// begin claims id and reports false when a removal for it is in flight.
// A successful begin must be paired with end.
func (j *nodeJobs) begin(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, busy := j.active[id]; busy {
		return false
	}
	if j.active == nil {
		j.active = make(map[string]struct{})
	}
	j.active[id] = struct{}{}
	j.wg.Add(1)
	return true
}

func (j *nodeJobs) end(id string) {
	j.mu.Lock()
	delete(j.active, id)
	j.mu.Unlock()
	j.wg.Done()
}

func (j *nodeJobs) busy(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.active[id]
	return ok
}

// drain waits for every claimed node. It returns false if ctx ended first.
func (j *nodeJobs) drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
