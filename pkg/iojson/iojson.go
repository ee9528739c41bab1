// iojson are utilities for reading and writing JSON IO from a
// command line interface perspective
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the standard error format type that is returned when errors
// happen.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func jsonError(msg string, jsonErr error) string {
	// Use json.Marshal to properly escape strings
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// MarshalError marshals msg and data as an Error. If that fails the
// result is a hand-built JSON blob noting the marshaling failure.
func MarshalError(msg string, data map[string]any) string {
	bits, err := json.Marshal(Error{Message: msg, Data: data})
	if err != nil {
		return jsonError(msg, err)
	}
	return string(bits)
}

// WriteError writes msg and data to w as a single JSON line.
func WriteError(w io.Writer, msg string, data map[string]any) error {
	_, err := fmt.Fprintln(w, MarshalError(msg, data))
	return err
}

// Write writes obj to w as indented JSON.
func Write(w io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine writes obj to w as one compact JSON line.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}
