package listener

import (
	"errors"
	"fmt"
	"io"

	"github.com/mfulz/scenerelay/internal/configd"
)

// Framer decides where the single message on a connection ends.
type Framer interface {
	ReadMessage(r io.Reader) ([]byte, error)
}

// ShortReadFramer accumulates chunks until the peer closes or a read returns
// fewer than ChunkSize bytes. A message whose length is an exact multiple of
// ChunkSize, sent without closing the write side, waits for the read timeout.
type ShortReadFramer struct {
	ChunkSize int
}

func (f ShortReadFramer) ReadMessage(r io.Reader) ([]byte, error) {
	buf := make([]byte, f.ChunkSize)
	var data []byte
	for {
		n, err := r.Read(buf)
		data = append(data, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return data, nil
			}
			return data, err
		}
		if n > 0 && n < len(buf) {
			return data, nil
		}
	}
}

// EOFFramer reads until the peer closes its write side.
type EOFFramer struct{}

func (EOFFramer) ReadMessage(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// NewFramer maps a configured framing name to a Framer.
func NewFramer(name string, chunkSize int) (Framer, error) {
	switch name {
	case configd.FramingShortRead, "":
		if chunkSize <= 0 {
			return nil, fmt.Errorf("short_read framing needs a positive chunk size")
		}
		return ShortReadFramer{ChunkSize: chunkSize}, nil
	case configd.FramingEOF:
		return EOFFramer{}, nil
	}
	return nil, fmt.Errorf("unknown framing %q", name)
}
