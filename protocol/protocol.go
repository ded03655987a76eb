// Package protocol defines the wire message exchanged between relayctl (or any
// other sender) and the relayd daemon. It can be used externally to build
// additional tooling or integrations.
//
// A connection carries exactly one UTF-8 JSON object and no response is sent
// back: the protocol is fire-and-forget.
package protocol

import (
	"fmt"
	"time"
)

// Command names for Message.Command
const (
	CmdCreateCube       = "create_cube"
	CmdCreateSphere     = "create_sphere"
	CmdDeleteAll        = "delete_all"
	CmdExecuteCode      = "execute_code"
	CmdRenderScene      = "render_scene"
	CmdCreateTextBlock  = "create_text_block"
	CmdExecuteTextBlock = "execute_text_block"
)

// TimestampLayout is the layout senders use for Message.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultAddr is the endpoint relayd listens on unless configured otherwise.
const DefaultAddr = "localhost:9999"

// Message represents one command sent to the daemon.
type Message struct {
	Command   string `json:"command"`   // e.g. "create_cube"
	Params    Params `json:"params"`    // interpreted only by the selected action factory
	Timestamp string `json:"timestamp"` // advisory
	User      string `json:"user"`      // advisory, not used for authorization
}

// NewMessage builds a message stamped with the current UTC time.
func NewMessage(command string, params Params, user string) *Message {
	if params == nil {
		params = Params{}
	}
	return &Message{
		Command:   command,
		Params:    params,
		Timestamp: time.Now().UTC().Format(TimestampLayout),
		User:      user,
	}
}

// Params holds the raw parameter mapping of a message.
//
// The accessors return the supplied default when a key is absent or null, and
// an error when the key is present with an unusable type.
type Params map[string]any

// Float reads a numeric parameter.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return def, fmt.Errorf("param %q: expected number, got %T", key, v)
	}
	return f, nil
}

// Vector reads a three component numeric parameter such as a location.
func (p Params) Vector(key string, def [3]float64) ([3]float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []float64:
		for _, f := range t {
			items = append(items, f)
		}
	case [3]float64:
		return t, nil
	default:
		return def, fmt.Errorf("param %q: expected list of 3 numbers, got %T", key, v)
	}

	if len(items) != 3 {
		return def, fmt.Errorf("param %q: expected 3 components, got %d", key, len(items))
	}

	var out [3]float64
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return def, fmt.Errorf("param %q[%d]: expected number, got %T", key, i, item)
		}
		out[i] = f
	}
	return out, nil
}

// String reads a string parameter.
func (p Params) String(key string, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("param %q: expected string, got %T", key, v)
	}
	return s, nil
}

// Bool reads a boolean parameter.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("param %q: expected bool, got %T", key, v)
	}
	return b, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
