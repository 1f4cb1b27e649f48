package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/mossy-p/webrtc-recorder/internal/models"
)

// ParseMessage decodes one reassembled message. Unknown fields are ignored.
func ParseMessage(raw []byte) (*models.SignalingMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedMessage)
	}

	msg := &models.SignalingMessage{
		Offer:     fields["offer"],
		Answer:    fields["answer"],
		Candidate: fields["candidate"],
	}
	_, hasOffer := fields["offer"]
	_, hasAnswer := fields["answer"]
	_, hasCandidate := fields["candidate"]
	msg.HasSignal = hasOffer || hasAnswer || hasCandidate

	typ, ok := textField(fields, "type")
	msg.Type = models.MessageType(typ)
	msg.ID, _ = textField(fields, "id")
	msg.CallID, _ = textField(fields, "callId")
	if data, ok := textField(fields, "data"); ok {
		msg.Data = &data
	}

	if !ok || msg.Type == "" {
		return msg, ErrMissingType
	}
	return msg, nil
}

// textField reads a field as text. Strings are unquoted; numbers and other
// scalars keep their JSON spelling, so an id sent as 42 reads as "42".
func textField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}
