package call

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire contract for the HTTP dispatch path. The Remote Invoker and the
// serving handler must agree on these shapes exactly; they are the
// contract boundary between deployments.

// ErrorBody is the JSON body returned for a failed remote call.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the failure kind and message across the wire.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PathSegment converts a module name to its URL path segment.
// Module names use snake_case; routes use kebab-case, so a call to
// "llm_judge" travels as /api/llm-judge/<operation>.
func PathSegment(module string) string {
	return strings.ReplaceAll(module, "_", "-")
}

// ModuleName converts a URL path segment back to a module name.
func ModuleName(segment string) string {
	return strings.ReplaceAll(segment, "-", "_")
}

// DecodePayload maps structured payload data onto a typed request.
// Handlers use this to recover their request shape regardless of
// whether the payload arrived in-process or over HTTP.
func DecodePayload(payload map[string]any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// EncodePayload converts a typed response into structured payload data.
func EncodePayload(in any) (map[string]any, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
