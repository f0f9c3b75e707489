// Package testutil provides shared helpers for tests across the project.
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestContext returns a context with a generous timeout, cancelled on test
// cleanup so goroutines never leak past the test.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// MustJSON marshals v or fails the test.
func MustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %T: %v", v, err)
	}
	return data
}
