package facerec

import (
	"context"
	"sync/atomic"
)

// MockRecognizer is a Recognizer for testing
type MockRecognizer struct {
	match Match
	err   error
	calls atomic.Int32
}

// MockOption configures the mock recognizer
type MockOption func(*MockRecognizer)

// WithMatch sets the match to return
func WithMatch(username string, confidence float64, status string) MockOption {
	return func(m *MockRecognizer) {
		m.match = Match{Username: username, Confidence: confidence, Status: status}
	}
}

// WithError sets an error to return from Identify
func WithError(err error) MockOption {
	return func(m *MockRecognizer) {
		m.err = err
	}
}

// NewMockRecognizer creates a mock that matches nobody unless configured
func NewMockRecognizer(opts ...MockOption) *MockRecognizer {
	m := &MockRecognizer{err: ErrNoMatch}
	for _, opt := range opts {
		opt(m)
	}
	if m.match.Username != "" && m.err == ErrNoMatch {
		m.err = nil
	}
	return m
}

// Identify returns the configured match or error
func (m *MockRecognizer) Identify(ctx context.Context) (Match, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	if m.err != nil {
		return Match{}, m.err
	}
	return m.match, nil
}

// Calls returns how many times Identify ran
func (m *MockRecognizer) Calls() int {
	return int(m.calls.Load())
}

var _ Recognizer = (*MockRecognizer)(nil)
var _ Recognizer = (*ProcessRecognizer)(nil)
