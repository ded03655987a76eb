package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrInvalidUTF8    = errors.New("body is not valid UTF-8")
	ErrNotObject      = errors.New("body is not a JSON object")
	ErrMissingCommand = errors.New("missing command field")
)

// DecodeError is returned by Decode for any body that must not reach the queue.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wireMessage distinguishes an absent command from an empty one.
type wireMessage struct {
	Command   *string `json:"command"`
	Params    Params  `json:"params"`
	Timestamp string  `json:"timestamp"`
	User      string  `json:"user"`
}

// Decode parses a single message body.
// An empty command string is accepted; it simply resolves to no action later.
func Decode(data []byte) (*Message, error) {
	if !utf8.Valid(data) {
		return nil, &DecodeError{Err: ErrInvalidUTF8}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeError{Err: ErrNotObject}
	}

	var wire wireMessage
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if wire.Command == nil {
		return nil, &DecodeError{Err: ErrMissingCommand}
	}

	params := wire.Params
	if params == nil {
		params = Params{}
	}
	return &Message{
		Command:   *wire.Command,
		Params:    params,
		Timestamp: wire.Timestamp,
		User:      wire.User,
	}, nil
}

// Encode serializes a message. Unlike the control protocols that frame by
// newline, no terminator is appended: the connection close ends the message.
func Encode(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode error: nil message")
	}
	out := *msg
	if out.Params == nil {
		out.Params = Params{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}
	return data, nil
}
