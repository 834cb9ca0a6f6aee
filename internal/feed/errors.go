package feed

import (
	"encoding/json"
	"fmt"
)

type apiError struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
}

// parseHTTPError turns a non-200 response into a descriptive error, keeping
// the upstream error body when it decodes.
func parseHTTPError(status int, payload []byte) error {
	var decoded apiError
	if err := json.Unmarshal(payload, &decoded); err == nil && decoded.ErrorType != "" {
		return fmt.Errorf("feed request failed (%d): %s %s", status, decoded.ErrorType, decoded.Description)
	}
	return fmt.Errorf("feed request failed with status %d", status)
}
