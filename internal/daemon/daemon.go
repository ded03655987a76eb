// Package daemon assembles relayd: the host loop, the host backend, the
// command table, the reporting sinks and the relay controller.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/mfulz/scenerelay/dispatch"
	"github.com/mfulz/scenerelay/interfaces"
	"github.com/mfulz/scenerelay/internal/commands"
	"github.com/mfulz/scenerelay/internal/configd"
	"github.com/mfulz/scenerelay/internal/hostloop"
	"github.com/mfulz/scenerelay/internal/journal"
	"github.com/mfulz/scenerelay/internal/listener"
	"github.com/mfulz/scenerelay/internal/logging"
	"github.com/mfulz/scenerelay/internal/relay"
)

// Daemon is one relayd instance.
type Daemon struct {
	cfg     *configd.Config
	host    interfaces.Host
	table   *dispatch.Table
	framer  listener.Framer
	journal *journal.Store
	extra   []interfaces.Reporter

	mu  sync.Mutex
	lis *listener.Listener
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithHost uses host instead of the one registered under cfg.Host.
func WithHost(host interfaces.Host) Option {
	return func(d *Daemon) { d.host = host }
}

// WithReporter adds a reporting sink next to the log and the journal.
func WithReporter(r interfaces.Reporter) Option {
	return func(d *Daemon) { d.extra = append(d.extra, r) }
}

// New resolves the host and builds the command table. It does not bind.
func New(cfg *configd.Config, opts ...Option) (*Daemon, error) {
	d := &Daemon{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}

	if d.host == nil {
		host, err := interfaces.GetHost(cfg.Host)
		if err != nil {
			return nil, err
		}
		d.host = host
	}

	framer, err := listener.NewFramer(cfg.Listener.Framing, cfg.Listener.ChunkSize)
	if err != nil {
		return nil, err
	}
	d.framer = framer

	table := dispatch.New()
	commands.Register(table, d.host)
	d.table = table.Without(cfg.Commands.Disabled...)
	for _, name := range cfg.Commands.Disabled {
		logging.Log.Infof("[relayd] Command %q disabled by config", name)
	}
	return d, nil
}

// Commands lists the commands this daemon accepts.
func (d *Daemon) Commands() []string {
	return d.table.Names()
}

// Addr returns the bound listener address, or nil before Run has bound.
func (d *Daemon) Addr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lis == nil {
		return nil
	}
	return d.lis.Addr()
}

// Run starts everything and blocks until ctx is cancelled. Only a failure
// to configure the host, open the journal or bind the socket is returned.
// ready, if not nil, is closed once the listener is bound.
func (d *Daemon) Run(ctx context.Context, ready chan<- struct{}) error {
	if d.cfg.Journal.Enabled {
		store, err := journal.Open(ctx, d.cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		d.journal = store
		defer func() {
			if err := store.Close(); err != nil {
				logging.Log.Warnf("[relayd] Closing journal: %v", err)
			}
		}()
		logging.Log.Infof("[relayd] Journal at %s", d.cfg.Journal.Path)
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := hostloop.New(0)
	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopErr
		loop.Wait()
	}()

	var cfgErr error
	if err := loop.Do(func() { cfgErr = d.host.Configure(d.cfg.HostConfig) }); err != nil {
		return err
	}
	if cfgErr != nil {
		return fmt.Errorf("failed to configure host %q: %w", d.cfg.Host, cfgErr)
	}

	ctrl := relay.New(relay.Config{TickInterval: d.cfg.Relay.TickInterval}, d.table, d.reporter(), d.newListener)
	if err := ctrl.Start(loop); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	logging.Log.Infof("[relayd] Relay is running. Accepting %v", d.table.Names())

	<-ctx.Done()
	logging.Log.Infof("[relayd] Shutting down")

	if err := ctrl.Stop(); err != nil && !errors.Is(err, listener.ErrStopTimeout) {
		return err
	} else if err != nil {
		logging.Log.Warnf("[relayd] %v", err)
	}
	return nil
}

func (d *Daemon) reporter() interfaces.Reporter {
	reporters := interfaces.MultiReporter{logging.Reporter{}}
	if d.journal != nil {
		reporters = append(reporters, d.journal)
	}
	return append(reporters, d.extra...)
}

func (d *Daemon) newListener(sink listener.Sink) relay.Runner {
	l := listener.New(listener.Config{
		Addr:          d.cfg.Listen,
		AcceptTimeout: d.cfg.Listener.AcceptTimeout,
		AcceptBackoff: d.cfg.Listener.AcceptBackoff,
		ReadTimeout:   d.cfg.Listener.ReadTimeout,
		StopTimeout:   d.cfg.Listener.StopTimeout,
		Framer:        d.framer,
	}, sink)

	d.mu.Lock()
	d.lis = l
	d.mu.Unlock()
	return l
}
