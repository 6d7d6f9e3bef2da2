package ipc

import (
	"encoding/json"
	"fmt"
)

// Event kinds niri sends on an event stream. The list is not exhaustive;
// unknown kinds decode fine and keep their raw payload.
const (
	EventWorkspacesChanged            = "WorkspacesChanged"
	EventWorkspaceActivated           = "WorkspaceActivated"
	EventWorkspaceUrgencyChanged      = "WorkspaceUrgencyChanged"
	EventWindowsChanged               = "WindowsChanged"
	EventWindowOpenedOrChanged        = "WindowOpenedOrChanged"
	EventWindowClosed                 = "WindowClosed"
	EventWindowFocusChanged           = "WindowFocusChanged"
	EventWindowUrgencyChanged         = "WindowUrgencyChanged"
	EventKeyboardLayoutsChanged       = "KeyboardLayoutsChanged"
	EventKeyboardLayoutSwitched       = "KeyboardLayoutSwitched"
	EventOverviewOpenedOrClosed       = "OverviewOpenedOrClosed"
	EventWorkspaceActiveWindowChanged = "WorkspaceActiveWindowChanged"
)

// Event is one message of an event stream.
type Event struct {
	Kind    string
	Payload json.RawMessage
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if e.Payload == nil {
		return fmt.Errorf("ipc: event %q carries no payload", e.Kind)
	}
	return json.Unmarshal(e.Payload, v)
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	return encodeTagged(e.Kind, e.Payload)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	kind, payload, err := decodeTagged(data)
	if err != nil {
		return err
	}
	e.Kind, e.Payload = kind, payload
	return nil
}
