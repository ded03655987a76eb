package listener

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"
)

type chanSink chan []byte

func (c chanSink) EnqueueMessage(body []byte) { c <- body }

func startListener(t *testing.T, cfg Config) (*Listener, chanSink) {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	sink := make(chanSink, 16)
	l := New(cfg, sink)
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })
	return l, sink
}

func send(t *testing.T, addr net.Addr, body []byte) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(body); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, sink chanSink) []byte {
	t.Helper()
	select {
	case body := <-sink:
		return body
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestListenerDeliversMessage(t *testing.T) {
	l, sink := startListener(t, Config{AcceptTimeout: 100 * time.Millisecond})

	msg := []byte(`{"command":"create_cube","params":{"size":4}}`)
	send(t, l.Addr(), msg)

	if got := receive(t, sink); !bytes.Equal(got, msg) {
		t.Errorf("got %q, want %q", got, msg)
	}
}

func TestListenerServesSequentialConnections(t *testing.T) {
	l, sink := startListener(t, Config{AcceptTimeout: 100 * time.Millisecond})

	for _, m := range []string{"first", "second", "third"} {
		send(t, l.Addr(), []byte(m))
		if got := string(receive(t, sink)); got != m {
			t.Errorf("got %q, want %q", got, m)
		}
	}
}

func TestListenerAccumulatesLargeMessage(t *testing.T) {
	l, sink := startListener(t, Config{
		AcceptTimeout: 100 * time.Millisecond,
		Framer:        EOFFramer{},
	})

	big := []byte(strings.Repeat("x", 64*1024))
	send(t, l.Addr(), big)

	if got := receive(t, sink); len(got) != len(big) {
		t.Errorf("got %d bytes, want %d", len(got), len(big))
	}
}

func TestListenerIgnoresEmptyConnection(t *testing.T) {
	l, sink := startListener(t, Config{AcceptTimeout: 100 * time.Millisecond})

	send(t, l.Addr(), nil)
	send(t, l.Addr(), []byte("after"))

	if got := string(receive(t, sink)); got != "after" {
		t.Errorf("got %q, want the message after the empty connection", got)
	}
}

func TestListenerRecoversFromReadError(t *testing.T) {
	l, sink := startListener(t, Config{
		AcceptTimeout: 100 * time.Millisecond,
		ReadTimeout:   100 * time.Millisecond,
		Framer:        ShortReadFramer{ChunkSize: 4},
	})

	// Exactly one chunk without closing: the framer keeps reading until the
	// deadline fires, which is reported as an error and dropped.
	stalled, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := stalled.Write([]byte("abcd")); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	stalled.Close()

	send(t, l.Addr(), []byte("ok"))
	if got := string(receive(t, sink)); got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
}

func TestListenerBindFailure(t *testing.T) {
	l, _ := startListener(t, Config{AcceptTimeout: 100 * time.Millisecond})

	second := New(Config{Addr: l.Addr().String()}, make(chanSink, 1))
	if err := second.Start(); err == nil {
		_ = second.Stop()
		t.Fatal("expected bind failure on an address in use")
	}
	if second.State() != Stopped {
		t.Errorf("state after bind failure = %v", second.State())
	}
}

func TestListenerStopWhileAccepting(t *testing.T) {
	const acceptTimeout = time.Second
	l, _ := startListener(t, Config{AcceptTimeout: acceptTimeout})
	addr := l.Addr().String()

	time.Sleep(50 * time.Millisecond)
	if s := l.State(); s != Accepting {
		t.Fatalf("state = %v, want accepting", s)
	}

	start := time.Now()
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if elapsed := time.Since(start); elapsed > acceptTimeout+100*time.Millisecond {
		t.Errorf("Stop took %v", elapsed)
	}
	if l.State() != Stopped {
		t.Errorf("state = %v, want stopped", l.State())
	}

	again := New(Config{Addr: addr, AcceptTimeout: 100 * time.Millisecond}, make(chanSink, 1))
	if err := again.Start(); err != nil {
		t.Fatalf("restart on %s: %v", addr, err)
	}
	_ = again.Stop()
}

func TestListenerStopIsIdempotent(t *testing.T) {
	l := New(Config{Addr: "127.0.0.1:0"}, make(chanSink, 1))
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
	if err := l.Start(); err != ErrAlreadyStarted {
		t.Errorf("Start after Stop = %v, want ErrAlreadyStarted", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
