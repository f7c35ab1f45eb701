package gateway

import (
	"encoding/json"
	"fmt"
)

// Fields flattens a payload struct into record fields using its json tags.
func Fields[T any](payload T) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

// Decode reads record fields back into a payload struct. Numbers that
// crossed the wire as floats decode into integer fields when whole.
func Decode[T any](r Record) (T, error) {
	var out T
	b, err := json.Marshal(r.Fields)
	if err != nil {
		return out, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return out, nil
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, k := range Collections {
		if k == c {
			return true
		}
	}
	return false
}

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	return b == MemoriesBucket || b == VoiceNotesBucket
}
