package service

import (
	"errors"
	"strings"
)

var (
	ErrSessionNotFound = errors.New("intake session not found")

	// ErrNoInput: no modality has non-empty staged data; the network is
	// never contacted.
	ErrNoInput = errors.New("no input provided")

	// ErrSubmissionInFlight: the re-entrancy guard turned away a second
	// submit while one is unresolved.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrDeviceDenied: the capture device refused the session. Recoverable,
	// recording state stays idle.
	ErrDeviceDenied = errors.New("microphone capture was denied")

	// ErrInvalidRecordingState: lifecycle call outside its required state.
	// Caller error; session state is left untouched.
	ErrInvalidRecordingState = errors.New("recording operation not allowed in current state")
)

// ValidationError aborts a text submission locally, before any network call.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "text validation failed: " + strings.Join(e.Violations, "; ")
}
