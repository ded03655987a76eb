package listener

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

// chunkReader returns the given chunks one Read at a time, then EOF.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks = c.chunks[1:]
	return n, nil
}

func TestShortReadFramerStopsOnShortChunk(t *testing.T) {
	r := &chunkReader{chunks: [][]byte{
		[]byte("abcd"), []byte("ef"), []byte("never read"),
	}}

	got, err := ShortReadFramer{ChunkSize: 4}.ReadMessage(r)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("got %q, want abcdef", got)
	}
}

func TestShortReadFramerStopsOnEOF(t *testing.T) {
	r := &chunkReader{chunks: [][]byte{[]byte("abcd"), []byte("efgh")}}

	got, err := ShortReadFramer{ChunkSize: 4}.ReadMessage(r)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(got) != "abcdefgh" {
		t.Errorf("got %q", got)
	}
}

func TestShortReadFramerPropagatesError(t *testing.T) {
	boom := errors.New("reset")
	_, err := ShortReadFramer{ChunkSize: 4}.ReadMessage(iotest.ErrReader(boom))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestEOFFramerReadsEverything(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), 20000)
	got, err := EOFFramer{}.ReadMessage(iotest.OneByteReader(bytes.NewReader(payload)))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %d bytes, want %d", len(got), len(payload))
	}
}

func TestNewFramer(t *testing.T) {
	if f, err := NewFramer("short_read", 16); err != nil || f.(ShortReadFramer).ChunkSize != 16 {
		t.Errorf("short_read = %v, %v", f, err)
	}
	if _, err := NewFramer("short_read", 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if f, err := NewFramer("eof", 0); err != nil {
		t.Errorf("eof = %v, %v", f, err)
	}
	if _, err := NewFramer("newline", 16); err == nil {
		t.Error("expected error for unknown framing")
	}
}
