package generic

import (
	"context"
	"sync"
	"sync/atomic"
)

// =============================================================================
// LANE - Single logical mutation lane
// =============================================================================

// Lane runs submitted jobs one at a time, in the order received, on a single
// worker goroutine. Every state-mutating call of a service goes through its
// Lane, so no two mutations of that service ever interleave.
//
// There is no timeout for a running job: a job that hangs stalls every job
// queued behind it.
type Lane struct {
	name string
	jobs chan *laneJob
	done chan struct{}

	mu     sync.RWMutex // guards closed against concurrent sends
	closed bool

	processed atomic.Uint64
}

type laneJob struct {
	fn       func()
	panicked any
	finished chan struct{}
}

// NewLane starts a lane whose intake buffers up to buffer pending jobs.
func NewLane(name string, buffer int) *Lane {
	if buffer < 0 {
		buffer = 0
	}
	l := &Lane{
		name: name,
		jobs: make(chan *laneJob, buffer),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Lane) run() {
	defer close(l.done)
	for j := range l.jobs {
		l.exec(j)
		l.processed.Add(1)
		close(j.finished)
	}
}

func (l *Lane) exec(j *laneJob) {
	defer func() {
		if r := recover(); r != nil {
			j.panicked = r
		}
	}()
	j.fn()
}

// Do runs fn on the lane and blocks until it has finished.
//
// ctx is only consulted while waiting for a slot in the intake: once the job
// is accepted the caller waits for it to complete, so an accepted mutation is
// never abandoned half-way from the caller's point of view.
func (l *Lane) Do(ctx context.Context, fn func()) error {
	j := &laneJob{fn: fn, finished: make(chan struct{})}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrLaneClosed
	}
	select {
	case l.jobs <- j:
		l.mu.RUnlock()
	case <-ctx.Done():
		l.mu.RUnlock()
		return ctx.Err()
	}

	<-j.finished
	if j.panicked != nil {
		return &LanePanicError{Lane: l.name, Value: j.panicked}
	}
	return nil
}

// Submit runs fn on l and returns its result.
func Submit[T any](ctx context.Context, l *Lane, fn func() (T, error)) (T, error) {
	var (
		res T
		err error
	)
	if laneErr := l.Do(ctx, func() { res, err = fn() }); laneErr != nil {
		var zero T
		return zero, laneErr
	}
	return res, err
}

// Close stops intake and waits until every accepted job has run.
func (l *Lane) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.jobs)
	}
	l.mu.Unlock()
	<-l.done
}

// Name returns the lane name.
func (l *Lane) Name() string { return l.name }

// Pending returns the number of accepted jobs not yet started.
func (l *Lane) Pending() int { return len(l.jobs) }

// Processed returns the number of jobs run so far.
func (l *Lane) Processed() uint64 { return l.processed.Load() }
