package fiware

import (
	"errors"
	"fmt"
	"testing"
)

func TestSupportedMethod(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"GET", true},
		{"POST", true},
		{"PUT", true},
		{"PATCH", true},
		{"DELETE", true},
		{"HEAD", false},
		{"OPTIONS", false},
		{"TRACE", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := SupportedMethod(tt.method); got != tt.want {
				t.Errorf("SupportedMethod(%q) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestBodyVerb(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"POST", true},
		{"PUT", true},
		{"PATCH", true},
		{"GET", false},
		{"DELETE", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := BodyVerb(tt.method); got != tt.want {
				t.Errorf("BodyVerb(%q) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestAsError(t *testing.T) {
	inner := &Error{Status: 404, Body: []byte(`{"error":"not found"}`)}
	wrapped := fmt.Errorf("forwarding entity lookup: %w", inner)

	ue, ok := AsError(wrapped)
	if !ok {
		t.Fatal("AsError() failed to find wrapped *Error")
	}
	if ue.Status != 404 {
		t.Errorf("Status = %d, want 404", ue.Status)
	}
	if string(ue.Body) != `{"error":"not found"}` {
		t.Errorf("Body = %q, want original body preserved", ue.Body)
	}

	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("AsError() matched a non-upstream error")
	}
}
