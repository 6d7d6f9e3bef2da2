// Package ipc defines the JSON values exchanged with niri over its IPC socket.
//
// Every value on the wire is an externally tagged variant: unit variants are
// encoded as a bare JSON string ("Windows") and data-carrying variants as an
// object with exactly one key ({"Windows":[...]}). One value is sent per line.
package ipc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SocketPathEnv is the environment variable holding the path of the niri
// IPC socket.
const SocketPathEnv = "NIRI_SOCKET"

var errEmptyVariant = errors.New("ipc: empty variant name")

// decodeTagged splits an externally tagged JSON value into its variant name
// and payload. Payload is nil for unit variants.
func decodeTagged(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return "", nil, err
		}
		if kind == "" {
			return "", nil, errEmptyVariant
		}
		return kind, nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, err
	}
	if len(fields) != 1 {
		return "", nil, fmt.Errorf("ipc: expected exactly one variant, got %d", len(fields))
	}
	for kind, payload := range fields {
		if kind == "" {
			return "", nil, errEmptyVariant
		}
		return kind, payload, nil
	}
	return "", nil, errEmptyVariant
}

// encodeTagged is the inverse of decodeTagged.
func encodeTagged(kind string, payload any) ([]byte, error) {
	if kind == "" {
		return nil, errEmptyVariant
	}
	if payload == nil {
		return json.Marshal(kind)
	}
	if raw, ok := payload.(json.RawMessage); ok && raw == nil {
		return json.Marshal(kind)
	}
	return json.Marshal(map[string]any{kind: payload})
}
