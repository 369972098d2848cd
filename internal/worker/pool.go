// Package worker runs jobs off the caller's goroutine. The local store has no
// asynchronous primitive of its own, so its async operations are queued here.
package worker

import (
	"sync"
)

// Pool is a fixed set of goroutines draining a bounded queue. Submit never
// blocks: when the queue is full the job gets a goroutine of its own.
type Pool struct {
	q      chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func New(workers, qlen int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	p := &Pool{q: make(chan func(), qlen)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.q {
				f()
			}
		}()
	}
	return p
}

// Submit schedules f. After Close, f runs on its own goroutine so pending
// futures still resolve.
func (p *Pool) Submit(f func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		go f()
		return
	}
	select {
	case p.q <- f:
	default: // overflow
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			f()
		}()
	}
}

// Close stops accepting queued work and waits for everything already
// submitted to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.q)
		p.mu.Unlock()
		p.wg.Wait()
	})
}
