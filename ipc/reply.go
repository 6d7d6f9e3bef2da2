package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ResponseHandled is the response kind for requests that carry no data back,
// such as actions.
const ResponseHandled = "Handled"

// Response is the successful payload of a Reply. Payload holds the raw JSON
// of the variant and is nil for unit responses like "Handled".
type Response struct {
	Kind    string
	Payload json.RawMessage
}

// Decode unmarshals the response payload into v.
func (r Response) Decode(v any) error {
	if r.Payload == nil {
		return fmt.Errorf("ipc: response %q carries no payload", r.Kind)
	}
	return json.Unmarshal(r.Payload, v)
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	return encodeTagged(r.Kind, r.Payload)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Response) UnmarshalJSON(data []byte) error {
	kind, payload, err := decodeTagged(data)
	if err != nil {
		return err
	}
	r.Kind, r.Payload = kind, payload
	return nil
}

// Reply is the envelope niri answers every request with. Exactly one of Ok
// and Err is set.
type Reply struct {
	Ok  *Response
	Err *string
}

// OkReply wraps a successful response.
func OkReply(resp Response) Reply {
	return Reply{Ok: &resp}
}

// ErrReply wraps an error message.
func ErrReply(msg string) Reply {
	return Reply{Err: &msg}
}

// MarshalJSON implements json.Marshaler.
func (r Reply) MarshalJSON() ([]byte, error) {
	switch {
	case r.Ok != nil && r.Err == nil:
		return encodeTagged("Ok", *r.Ok)
	case r.Err != nil && r.Ok == nil:
		return encodeTagged("Err", *r.Err)
	default:
		return nil, errors.New("ipc: reply must hold exactly one of Ok and Err")
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Reply) UnmarshalJSON(data []byte) error {
	kind, payload, err := decodeTagged(data)
	if err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("ipc: reply variant %q carries no payload", kind)
	}

	switch kind {
	case "Ok":
		var resp Response
		if err := json.Unmarshal(payload, &resp); err != nil {
			return err
		}
		r.Ok, r.Err = &resp, nil
	case "Err":
		var msg *string
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}
		if msg == nil {
			return errors.New("ipc: Err reply carries a null message")
		}
		r.Ok, r.Err = nil, msg
	default:
		return fmt.Errorf("ipc: unknown reply variant %q", kind)
	}
	return nil
}
