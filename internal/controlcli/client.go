// Package controlcli is the relayctl side of the wire: it encodes messages
// and writes them to a relay, one connection per message. The relay never
// answers, so a successful Send only means the bytes were handed over.
package controlcli

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/mfulz/scenerelay/internal/configcli"
	"github.com/mfulz/scenerelay/internal/logging"
	"github.com/mfulz/scenerelay/protocol"
)

// Sender delivers commands to one relay.
type Sender struct {
	cfg *configcli.Config
}

func NewSender(cfg *configcli.Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send encodes command and params and writes them on a fresh connection.
// The write side is closed afterwards so the relay sees EOF.
func (s *Sender) Send(ctx context.Context, command string, params protocol.Params) error {
	msg := protocol.NewMessage(command, params, s.cfg.User)
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", command, err)
	}

	dialer := net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to relay %s: %w", s.cfg.Addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to send %s: %w", command, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	logging.Log.Debugf("[relayctl] Sent %s to %s (%d bytes)", command, s.cfg.Addr, len(data))
	return nil
}

func (s *Sender) CreateCube(ctx context.Context, location [3]float64, size float64) error {
	return s.Send(ctx, protocol.CmdCreateCube, protocol.Params{"location": location[:], "size": size})
}

func (s *Sender) CreateSphere(ctx context.Context, location [3]float64, radius float64) error {
	return s.Send(ctx, protocol.CmdCreateSphere, protocol.Params{"location": location[:], "radius": radius})
}

func (s *Sender) DeleteAll(ctx context.Context) error {
	return s.Send(ctx, protocol.CmdDeleteAll, nil)
}

func (s *Sender) ExecuteCode(ctx context.Context, code string) error {
	return s.Send(ctx, protocol.CmdExecuteCode, protocol.Params{"code": code})
}

func (s *Sender) RenderScene(ctx context.Context, path string) error {
	return s.Send(ctx, protocol.CmdRenderScene, protocol.Params{"filepath": path})
}

func (s *Sender) CreateTextBlock(ctx context.Context, name, code string, execute bool) error {
	params := protocol.Params{"code": code, "execute": execute}
	if name != "" {
		params["name"] = name
	}
	return s.Send(ctx, protocol.CmdCreateTextBlock, params)
}

func (s *Sender) ExecuteTextBlock(ctx context.Context, name string) error {
	return s.Send(ctx, protocol.CmdExecuteTextBlock, protocol.Params{"name": name})
}

// ParseParams turns key=value pairs into Params. Values that parse as JSON
// keep their JSON type; anything else is a string.
func ParseParams(pairs []string) (protocol.Params, error) {
	params := protocol.Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", pair)
		}
		params[key] = parseValue(value)
	}
	return params, nil
}
