// Package hostloop provides the designated thread for host mutations.
//
// A Loop runs every submitted task and every tick callback on one goroutine
// locked to its OS thread. It plays the role of the host application's event
// loop for relayd; an embedding host with its own loop implements Scheduler
// directly instead.
package hostloop

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned for work submitted to a loop that is not running.
var ErrClosed = errors.New("host loop closed")

// Scheduler invokes fn every interval on the designated thread until cancel
// is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// Loop is a single-worker task queue pinned to one OS thread.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	started atomic.Bool
	tickers sync.WaitGroup
}

// New creates a loop with room for backlog queued tasks.
func New(backlog int) *Loop {
	if backlog <= 0 {
		backlog = 64
	}
	return &Loop{
		tasks: make(chan func(), backlog),
		done:  make(chan struct{}),
	}
}

// Run executes tasks on the calling goroutine until ctx is cancelled.
// It must be called exactly once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("host loop already running")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.tasks:
			task()
		}
	}
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Do runs fn on the loop and waits for it. Calling Do from inside a task
// deadlocks; tasks call each other directly.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Every implements Scheduler. A tick is skipped while the previous one is
// still queued, so a slow host never accumulates a backlog of ticks.
func (l *Loop) Every(interval time.Duration, fn func()) (cancel func()) {
	var (
		pending   atomic.Bool
		cancelled atomic.Bool
		once      sync.Once
	)
	stop := make(chan struct{})

	l.tickers.Add(1)
	go func() {
		defer l.tickers.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-l.done:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				err := l.Post(func() {
					defer pending.Store(false)
					if !cancelled.Load() {
						fn()
					}
				})
				if err != nil {
					return
				}
			}
		}
	}()

	return func() {
		once.Do(func() {
			cancelled.Store(true)
			close(stop)
		})
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until every ticker goroutine has exited.
func (l *Loop) Wait() {
	l.tickers.Wait()
}
