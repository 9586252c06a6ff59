package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MissingFieldError reports that a declared field's key path could not
// be resolved in a payload.
//
// It carries the full requested path, the specific key that was absent,
// and the entire original payload so the failure can be diagnosed
// without re-running with added logging.
type MissingFieldError struct {
	// Path is the full declared key path of the field.
	Path []string

	// Key is the specific key that was absent.
	Key string

	// Payload is the complete original payload.
	Payload map[string]any
}

// Error renders the path, the missing key, and the payload.
func (e *MissingFieldError) Error() string {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", e.Payload))
	}
	return fmt.Sprintf("envelope: missing key %q at path %q in payload %s",
		e.Key, strings.Join(e.Path, "."), payload)
}
