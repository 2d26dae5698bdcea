package main

import (
	"encoding/json"
)

// Error codes reported by the CLI.
const (
	ErrInvalidConfig = "ERR_INVALID_CONFIG"
	ErrUnknownCop    = "ERR_UNKNOWN_COP"
	ErrInvalidFormat = "ERR_INVALID_FORMAT"
	ErrIO            = "ERR_IO"
	ErrHistory       = "ERR_HISTORY"
)

// CLIError is a uniform error payload for both human and JSON output.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e CLIError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e CLIError) JSON() string {
	b, _ := json.Marshal(struct {
		Error CLIError `json:"error"`
	}{e})
	return string(b)
}

// wrap builds a CLIError with the inner error as detail.
func wrap(code, msg string, inner error) error {
	return CLIError{Code: code, Message: msg, Detail: inner.Error()}
}
