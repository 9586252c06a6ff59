package socket

// Message is one decoded unit taken off the inbox: a JSON object with
// at least a "type" field plus protocol-defined auxiliary fields
// ("id", "result", "message", "access_token", ...).
//
// A Message has no identity beyond the mapping itself.
type Message map[string]any

// Type returns the message's "type" field, or "" if absent or not a
// string.
func (m Message) Type() string {
	t, _ := m["type"].(string) //nolint:errcheck // Absent type reads as ""
	return t
}

// ID returns the message's "id" field as an integer.
//
// JSON numbers decode as float64; the protocol only ever sends whole
// request identifiers, so the truncation is safe.
//
// Returns:
//   - int64: The id value
//   - bool: false if the field is absent or not numeric
func (m Message) ID() (int64, bool) {
	switch v := m["id"].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// Text returns the message's "message" field, the server-provided
// human-readable text on auth and error replies.
func (m Message) Text() string {
	t, _ := m["message"].(string) //nolint:errcheck // Absent text reads as ""
	return t
}
