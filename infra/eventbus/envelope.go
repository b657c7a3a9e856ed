package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amirasaad/paygate/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(e eventbus.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(envelope{Type: e.Type, Payload: data})
}

func decode(raw []byte) (eventbus.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return eventbus.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	var e eventbus.Event
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return eventbus.Event{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	if e.Type == "" {
		e.Type = env.Type
	}
	return e, nil
}

// nameFor maps "payment.approved" to "{prefix}:payment:approved".
func nameFor(prefix, eventType string) string {
	return prefix + ":" + strings.ReplaceAll(strings.ToLower(eventType), ".", ":")
}
