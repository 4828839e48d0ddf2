package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bidprep/services"
	"bidprep/testhelpers"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: rfq x", services.ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("%w: bad", services.ErrInvalidInput), http.StatusBadRequest},
		{"invalid state", services.ErrInvalidState, http.StatusConflict},
		{"unparseable", services.ErrUnparseableQuote, http.StatusUnprocessableEntity},
		{"no bom items", fmt.Errorf("project p: %w", services.ErrNoBOMItems), http.StatusUnprocessableEntity},
		{"takeoff", services.ErrTakeoffUnavailable, http.StatusBadGateway},
		{"delivery", fmt.Errorf("%w: smtp", services.ErrDeliveryFailed), http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := respondError(e, "test", errors.New("sqlite: disk I/O error")); err != nil {
		t.Fatalf("respondError returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if strings.Contains(body.Message, "sqlite") {
		t.Errorf("internal detail leaked: %q", body.Message)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to hyphens", "Riverside Clinic", "Riverside-Clinic"},
		{"slashes to hyphens", "path/to/file", "path-to-file"},
		{"backslashes", "path\\to\\file", "path-to-file"},
		{"colons", "file:name", "file-name"},
		{"quotes", `Bob's "Big" Job`, "Bob's-Big-Job"},
		{"no special chars", "simple", "simple"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
