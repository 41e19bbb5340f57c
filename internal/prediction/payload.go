package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// wrapKey returns the key a non-object payload is nested under.
func wrapKey(command string) string {
	switch command {
	case "predict_bed":
		return "occupancy"
	case "predict_eta":
		return "location"
	default:
		return "value"
	}
}

// encodePayload serializes payload as a JSON object, wrapping scalars,
// arrays and null under a single command-specific key.
func encodePayload(command string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, nil
	}

	wrapped, err := json.Marshal(map[string]json.RawMessage{wrapKey(command): raw})
	if err != nil {
		return nil, fmt.Errorf("failed to wrap payload: %w", err)
	}
	return wrapped, nil
}

// decodeResult parses stdout as exactly one JSON value. Numbers keep their
// textual form so callers see what the process wrote.
func decodeResult(stdout []byte) (any, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var result any
	if err := dec.Decode(&result); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return result, nil
}
