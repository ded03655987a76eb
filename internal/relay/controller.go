// Package relay implements the tick-driven controller that turns queued
// messages into actions and runs them on the host's designated thread.
//
// Each tick first executes the actions decoded on the previous tick, then
// decodes the messages that arrived since. A message therefore runs one tick
// after it is decoded, and FIFO order is kept end to end.
package relay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mfulz/scenerelay/dispatch"
	"github.com/mfulz/scenerelay/interfaces"
	"github.com/mfulz/scenerelay/internal/hostloop"
	"github.com/mfulz/scenerelay/internal/listener"
	"github.com/mfulz/scenerelay/internal/logging"
	"github.com/mfulz/scenerelay/internal/queue"
	"github.com/mfulz/scenerelay/protocol"
)

var (
	ErrRunning    = errors.New("relay already running")
	ErrNotRunning = errors.New("relay not running")
)

// Runner is the network side the controller starts and stops.
type Runner interface {
	Start() error
	Stop() error
}

// ListenerFactory builds the network side around the controller's queue.
type ListenerFactory func(sink listener.Sink) Runner

// Config holds the controller settings.
type Config struct {
	TickInterval time.Duration
}

// Controller owns the command queue for the lifetime of one Start/Stop cycle.
type Controller struct {
	cfg         Config
	table       *dispatch.Table
	reporter    interfaces.Reporter
	newListener ListenerFactory

	mu         sync.Mutex
	queue      *queue.CommandQueue
	runner     Runner
	cancelTick func()
}

// New creates a stopped controller.
func New(cfg Config, table *dispatch.Table, reporter interfaces.Reporter, newListener ListenerFactory) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if reporter == nil {
		reporter = logging.Reporter{}
	}
	return &Controller{
		cfg:         cfg,
		table:       table,
		reporter:    reporter,
		newListener: newListener,
	}
}

// Start creates a fresh queue, starts the listener on it and registers Tick
// with the scheduler. A bind failure is returned and leaves the controller
// stopped.
func (c *Controller) Start(sched hostloop.Scheduler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue != nil {
		return ErrRunning
	}

	q := queue.New()
	runner := c.newListener(q)
	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	c.queue = q
	c.runner = runner
	c.cancelTick = sched.Every(c.cfg.TickInterval, c.Tick)

	logging.Log.Infof("[relay] Started, ticking every %s with %d commands", c.cfg.TickInterval, len(c.table.Names()))
	return nil
}

// Stop cancels the tick, stops the listener and drops the queue.
// Queued but unexecuted work is discarded.
func (c *Controller) Stop() error {
	c.mu.Lock()
	q, runner, cancel := c.queue, c.runner, c.cancelTick
	c.queue, c.runner, c.cancelTick = nil, nil, nil
	c.mu.Unlock()

	if q == nil {
		return nil
	}

	cancel()
	err := runner.Stop()

	if n := q.PendingMessages() + q.PendingActions(); n > 0 {
		logging.Log.Warnf("[relay] Discarding %d pending items on stop", n)
	}
	logging.Log.Infof("[relay] Stopped")
	return err
}

// Running reports whether the controller has been started.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue != nil
}

// Pending returns the number of queued messages and actions.
func (c *Controller) Pending() (messages, actions int) {
	q := c.currentQueue()
	if q == nil {
		return 0, 0
	}
	return q.PendingMessages(), q.PendingActions()
}

// Tick runs one cycle. It must be called on the designated thread.
func (c *Controller) Tick() {
	q := c.currentQueue()
	if q == nil {
		return
	}

	for _, p := range q.DrainActions() {
		c.execute(p)
	}

	for _, body := range q.DrainMessages() {
		c.process(q, body)
	}
}

func (c *Controller) currentQueue() *queue.CommandQueue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

func (c *Controller) execute(p queue.Pending) {
	result, err := runAction(p.Action)

	outcome := interfaces.Outcome{
		ID:      p.ID,
		Label:   p.Label,
		Success: err == nil,
		Message: result,
		At:      time.Now(),
	}
	if err != nil {
		outcome.Message = err.Error()
	}
	c.reporter.Report(outcome)
}

// runAction converts a panicking action into an error.
func runAction(action dispatch.Action) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action()
}

func (c *Controller) process(q *queue.CommandQueue, body []byte) {
	msg, err := protocol.Decode(body)
	if err != nil {
		logging.Log.Warnf("[relay] Invalid message dropped: %v (%q)", err, preview(body))
		return
	}

	logging.Log.Infof("[relay] Command '%s' received from %s at %s", msg.Command, orUnknown(msg.User, "user"), orUnknown(msg.Timestamp, "time"))

	action, ok, err := resolve(c.table, msg)
	if err != nil {
		logging.Log.Errorf("[relay] Error processing command '%s': %v", msg.Command, err)
		return
	}
	if !ok {
		logging.Log.Warnf("[relay] Unknown command: %q", msg.Command)
		return
	}

	id := q.EnqueueAction(action, msg.Command)
	logging.Log.Debugf("[relay] Command '%s' queued for execution (%s)", msg.Command, id)
}

func resolve(table *dispatch.Table, msg *protocol.Message) (action dispatch.Action, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panic: %v", r)
		}
	}()
	action, ok = table.Resolve(msg.Command, msg.Params)
	return action, ok, nil
}

func orUnknown(s, what string) string {
	if s == "" {
		return "unknown " + what
	}
	return s
}

func preview(body []byte) string {
	const max = 120
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
