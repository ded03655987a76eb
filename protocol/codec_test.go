package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	msgs := []*Message{
		{Command: CmdCreateCube, Params: Params{"location": []any{1.0, 2.0, 3.0}, "size": 4.0}, Timestamp: "2025-04-01 10:00:00", User: "alice"},
		{Command: CmdExecuteCode, Params: Params{"code": "echo hi"}, User: "bob"},
		{Command: "", Params: Params{}},
		{Command: CmdCreateTextBlock, Params: Params{"name": "a.py", "execute": true, "nested": map[string]any{"k": []any{"v"}}}},
	}

	for _, m := range msgs {
		data, err := Encode(m)
		if err != nil {
			t.Fatalf("encode %q: %v", m.Command, err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %q: %v", m.Command, err)
		}
		if !reflect.DeepEqual(got, m) {
			t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, m)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want error
	}{
		{"invalid json", []byte("{not json"), nil},
		{"invalid utf8", []byte{'{', 0xff, 0xfe, '}'}, ErrInvalidUTF8},
		{"missing command", []byte(`{"params": {}}`), ErrMissingCommand},
		{"array body", []byte(`["create_cube"]`), ErrNotObject},
		{"empty body", []byte("   "), ErrNotObject},
		{"trailing garbage", []byte(`{"command":"delete_all"} x`), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.body)
			if err == nil {
				t.Fatalf("expected error, got message %#v", msg)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeEmptyCommandIsNotAnError(t *testing.T) {
	msg, err := Decode([]byte(`{"command": ""}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Command != "" {
		t.Errorf("Command = %q, want empty", msg.Command)
	}
	if msg.Params == nil {
		t.Error("Params should default to an empty map")
	}
}

func TestDecodeNullParams(t *testing.T) {
	msg, err := Decode([]byte(`{"command": "delete_all", "params": null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Params) != 0 {
		t.Errorf("Params = %v, want empty", msg.Params)
	}
}

func TestNewMessageTimestamp(t *testing.T) {
	msg := NewMessage(CmdDeleteAll, nil, "carol")
	if msg.Params == nil {
		t.Fatal("Params is nil")
	}
	if len(msg.Timestamp) != len(TimestampLayout) {
		t.Errorf("Timestamp = %q, want layout %q", msg.Timestamp, TimestampLayout)
	}
}

func TestEncodeNil(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Fatal("expected error for nil message")
	}
}
