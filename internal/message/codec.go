// internal/message/codec.go
// Wire envelope: every frame is a JSON object mapping a kind to its payload.
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrWrongDirection = errors.New("message kind not allowed in this direction")
)

// Frame is one decoded kind/payload pair.
type Frame struct {
	Kind    Kind
	Payload any
}

// Decode parses a client frame. Keys are returned in the order they appear
// in the text. Keys that are unknown, not sendable by a client, or whose
// payload does not match the kind's shape are skipped and reported in the
// returned error; the remaining frames are still returned.
func Decode(text string) ([]Frame, error) {
	if !gjson.Valid(text) {
		return nil, ErrMalformedFrame
	}
	envelope := gjson.Parse(text)
	if !envelope.IsObject() {
		return nil, fmt.Errorf("%w: envelope is not an object", ErrMalformedFrame)
	}

	var (
		frames []Frame
		errs   []error
	)
	envelope.ForEach(func(key, value gjson.Result) bool {
		kind := Kind(key.String())
		payload, err := decodePayload(kind, value)
		if err != nil {
			errs = append(errs, err)
			return true
		}
		frames = append(frames, Frame{Kind: kind, Payload: payload})
		return true
	})
	return frames, errors.Join(errs...)
}

func decodePayload(kind Kind, value gjson.Result) (any, error) {
	e, ok := catalog[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if e.direction&FromClient == 0 || e.newPayload == nil {
		return nil, fmt.Errorf("%w: %s from client", ErrWrongDirection, kind)
	}
	payload := e.newPayload()
	if value.Type == gjson.Null {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(value.Raw), payload); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, kind, err)
	}
	return payload, nil
}

// Encode renders a server frame. A nil payload is sent as {}.
func Encode(kind Kind, payload any) (string, error) {
	e, ok := catalog[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if e.direction&FromServer == 0 {
		return "", fmt.Errorf("%w: %s from server", ErrWrongDirection, kind)
	}
	raw := []byte("{}")
	if payload != nil {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return "", fmt.Errorf("encode %s: %w", kind, err)
		}
	}
	frame, err := sjson.SetRawBytes([]byte("{}"), string(kind), raw)
	if err != nil {
		return "", fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	return string(frame), nil
}
