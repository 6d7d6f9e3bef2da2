package ipc

import "encoding/json"

// Request is a message sent to niri.
type Request struct {
	kind string
	body any
}

// Requests without arguments.
var (
	RequestVersion         = Request{kind: "Version"}
	RequestOutputs         = Request{kind: "Outputs"}
	RequestWorkspaces      = Request{kind: "Workspaces"}
	RequestWindows         = Request{kind: "Windows"}
	RequestLayers          = Request{kind: "Layers"}
	RequestKeyboardLayouts = Request{kind: "KeyboardLayouts"}
	RequestFocusedOutput   = Request{kind: "FocusedOutput"}
	RequestFocusedWindow   = Request{kind: "FocusedWindow"}
	RequestPickWindow      = Request{kind: "PickWindow"}
	RequestPickColor       = Request{kind: "PickColor"}
	RequestOverviewState   = Request{kind: "OverviewState"}

	// RequestEventStream asks niri to turn the connection into an event feed.
	RequestEventStream = Request{kind: "EventStream"}

	// RequestReturnError makes niri reply with an error, for testing.
	RequestReturnError = Request{kind: "ReturnError"}
)

// ActionRequest builds an {"Action":{name:args}} request. A nil args is sent
// as an empty object, which is how niri encodes actions without fields.
func ActionRequest(name string, args any) Request {
	if args == nil {
		args = struct{}{}
	}
	return Request{kind: "Action", body: map[string]any{name: args}}
}

// OutputRequest builds a request applying action to the named output.
func OutputRequest(output string, action any) Request {
	return Request{kind: "Output", body: struct {
		Output string `json:"output"`
		Action any    `json:"action"`
	}{output, action}}
}

// Kind returns the variant name of the request.
func (r Request) Kind() string {
	return r.kind
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	return encodeTagged(r.kind, r.body)
}

// UnmarshalJSON implements json.Unmarshaler. The payload of a data-carrying
// request is kept as raw JSON.
func (r *Request) UnmarshalJSON(data []byte) error {
	kind, payload, err := decodeTagged(data)
	if err != nil {
		return err
	}
	r.kind = kind
	r.body = nil
	if payload != nil {
		r.body = payload
	}
	return nil
}

// ParseRequest decodes a request given as raw JSON, such as "Windows" or
// {"Action":{"FocusWindow":{"id":3}}}.
func ParseRequest(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, err
	}
	return r, nil
}
