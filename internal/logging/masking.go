// Package logging provides utilities for secure logging with data masking.
// Token values are credentials here, so anything that could carry one
// (Authorization headers, token fields in JSON bodies) is masked before it
// reaches a log line.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaskHeader redacts sensitive header values based on header name.
// Returns the redacted value suitable for logging.
//
// The Authorization header carries the token as the basic-auth username, so
// only the last four characters survive.
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	// Password/secret headers - full redaction
	if strings.Contains(lowerName, "password") || strings.Contains(lowerName, "secret") {
		return "[REDACTED]"
	}

	// Credential headers - show last 4 chars
	if lowerName == "authorization" || lowerName == "x-api-key" {
		if len(value) < 4 {
			return "****"
		}
		return "****" + value[len(value)-4:]
	}

	return value
}

// MaskJSONBody redacts non-allowlisted fields in a JSON body.
// Uses an allowlist approach: a token value leaking into a new field is
// masked by default instead of logged by default.
//
// If allowlist is nil, returns the body unchanged (everything allowed).
// If allowlist is non-nil, only fields in the allowlist are preserved; all
// other primitive fields are replaced with "[REDACTED]".
//
// Returns the masked JSON as bytes, or the original if parsing fails.
func MaskJSONBody(body []byte, allowlist []string) []byte {
	if allowlist == nil {
		return body
	}

	if len(body) == 0 {
		return body
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		// Not JSON - return original
		return body
	}

	allowed := make(map[string]bool, len(allowlist))
	for _, field := range allowlist {
		allowed[field] = true
	}

	masked := maskJSONValue(data, allowed)

	result, err := json.Marshal(masked)
	if err != nil {
		return body
	}

	return result
}

// maskJSONValue recursively masks JSON values based on the allowlist.
func maskJSONValue(value interface{}, allowed map[string]bool) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			if allowed[key] {
				result[key] = maskJSONValue(val, allowed)
				continue
			}
			switch val.(type) {
			case map[string]interface{}, []interface{}:
				// Containers are kept so nested allowlisted fields survive
				result[key] = maskJSONValue(val, allowed)
			default:
				result[key] = "[REDACTED]"
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = maskJSONValue(item, allowed)
		}
		return result
	default:
		return value
	}
}

// FormatBinaryData formats binary data for logging.
// Returns a human-readable size indicator.
func FormatBinaryData(data []byte) string {
	return fmt.Sprintf("[BINARY: %d bytes]", len(data))
}
