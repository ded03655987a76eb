// Package listener accepts sender connections on the relay's TCP endpoint.
// Connections are served one at a time; each carries exactly one message,
// which is handed to the queue as raw bytes for decoding on the host thread.
package listener

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mfulz/scenerelay/internal/logging"
)

// State is the listener's lifecycle state.
type State int32

const (
	Idle State = iota
	Listening
	Accepting
	Serving
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Accepting:
		return "accepting"
	case Serving:
		return "serving"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var (
	ErrAlreadyStarted = errors.New("listener already started")
	ErrStopTimeout    = errors.New("listener did not stop in time")
)

// Sink receives every complete message body.
type Sink interface {
	EnqueueMessage(body []byte)
}

// Config holds the listener settings.
type Config struct {
	Addr          string
	AcceptTimeout time.Duration
	AcceptBackoff time.Duration
	ReadTimeout   time.Duration
	StopTimeout   time.Duration
	Framer        Framer
}

// Listener owns the server socket and its accept goroutine.
type Listener struct {
	cfg  Config
	sink Sink

	state    atomic.Int32
	stopping atomic.Bool
	stopCh   chan struct{}
	done     chan struct{}

	mu   sync.Mutex
	ln   *net.TCPListener
	conn net.Conn
}

// New creates an idle listener. Zero durations fall back to the defaults.
func New(cfg Config, sink Sink) *Listener {
	if cfg.AcceptTimeout <= 0 {
		cfg.AcceptTimeout = time.Second
	}
	if cfg.AcceptBackoff <= 0 {
		cfg.AcceptBackoff = time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 2 * cfg.AcceptTimeout
	}
	if cfg.Framer == nil {
		cfg.Framer = ShortReadFramer{ChunkSize: 8192}
	}
	return &Listener{
		cfg:    cfg,
		sink:   sink,
		stopCh: make(chan struct{}),
	}
}

// Start binds the socket and launches the accept loop.
// Bind failures are returned; everything after that is logged only.
func (l *Listener) Start() error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Listening)) {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", l.cfg.Addr)
	if err != nil {
		l.setState(Stopped)
		return fmt.Errorf("failed to bind %s: %w", l.cfg.Addr, err)
	}

	l.mu.Lock()
	l.ln = ln.(*net.TCPListener)
	l.done = make(chan struct{})
	l.mu.Unlock()

	logging.Log.Infof("[listener] Listening on %s", ln.Addr())
	go l.run()
	return nil
}

// Stop closes the socket and waits for the accept loop to exit.
// It is safe to call more than once.
func (l *Listener) Stop() error {
	if l.stopping.CompareAndSwap(false, true) {
		close(l.stopCh)
	}

	l.mu.Lock()
	if l.ln != nil {
		_ = l.ln.Close()
	}
	if l.conn != nil {
		_ = l.conn.Close()
	}
	done := l.done
	l.mu.Unlock()

	if done == nil {
		l.setState(Stopped)
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(l.cfg.StopTimeout):
		return ErrStopTimeout
	}
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// State reports the current lifecycle state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	l.state.Store(int32(s))
}

func (l *Listener) run() {
	defer close(l.done)
	defer l.setState(Stopped)
	defer func() { _ = l.ln.Close() }()

	for !l.stopping.Load() {
		l.setState(Accepting)
		_ = l.ln.SetDeadline(time.Now().Add(l.cfg.AcceptTimeout))

		conn, err := l.ln.Accept()
		if err != nil {
			if l.stopping.Load() {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			logging.Log.Warnf("[listener] Accept error: %v", err)
			select {
			case <-l.stopCh:
				return
			case <-time.After(l.cfg.AcceptBackoff):
			}
			continue
		}

		l.serve(conn)
	}

	logging.Log.Infof("[listener] Stopping")
}

func (l *Listener) serve(conn net.Conn) {
	l.setState(Serving)
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()
		_ = conn.Close()
	}()

	remote := conn.RemoteAddr()
	logging.Log.Debugf("[listener] Connection from %s", remote)

	if l.stopping.Load() {
		return
	}
	if l.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	}

	body, err := l.cfg.Framer.ReadMessage(conn)
	if err != nil {
		logging.Log.Warnf("[listener] Error receiving data from %s: %v", remote, err)
		return
	}
	if len(body) == 0 {
		logging.Log.Debugf("[listener] Empty message from %s ignored", remote)
		return
	}

	l.sink.EnqueueMessage(body)
	logging.Log.Debugf("[listener] Received %d bytes from %s", len(body), remote)
}
