package schema

// GetStateRequest fetches values from the state management service.
type GetStateRequest struct {
	SessionID string   `json:"session_id,omitempty" cbor:"session_id,omitempty"`
	Keys      []string `json:"keys,omitempty" cbor:"keys,omitempty"`
}

// GetStateResponse carries the requested state values.
type GetStateResponse struct {
	SessionID string         `json:"session_id,omitempty" cbor:"session_id,omitempty"`
	Values    map[string]any `json:"values,omitempty" cbor:"values,omitempty"`
}

// SetStateRequest writes values into the state management service.
type SetStateRequest struct {
	SessionID string         `json:"session_id,omitempty" cbor:"session_id,omitempty"`
	Values    map[string]any `json:"values,omitempty" cbor:"values,omitempty"`
}

// SetStateResponse reports how many keys were written.
type SetStateResponse struct {
	SessionID string `json:"session_id,omitempty" cbor:"session_id,omitempty"`
	Updated   int    `json:"updated,omitempty" cbor:"updated,omitempty"`
}
