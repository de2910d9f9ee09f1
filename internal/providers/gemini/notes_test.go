package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"notedeck/internal/notegen"
)

func TestNewGeneratorDefaultsModel(t *testing.T) {
	t.Parallel()

	g := NewGenerator(Config{APIKey: "key"})
	if g.cfg.Model != defaultModel {
		t.Fatalf("unexpected model: %q", g.cfg.Model)
	}

	g = NewGenerator(Config{APIKey: "key", Model: "gemini-2.5-pro"})
	if g.cfg.Model != "gemini-2.5-pro" {
		t.Fatalf("explicit model must win, got %q", g.cfg.Model)
	}
}

func TestGenerateNotesSurfacesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"code": 500, "message": "backend down", "status": "INTERNAL"}}`))
	}))
	defer server.Close()

	g := NewGenerator(Config{APIKey: "key", BaseURL: server.URL})
	_, err := g.GenerateNotes(context.Background(), "some transcript")
	if err == nil {
		t.Fatalf("expected API error")
	}

	var genErr *notegen.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if genErr.Reason != "generation request failed" {
		t.Fatalf("unexpected reason: %q", genErr.Reason)
	}
}

func TestGenerateNotesRejectsMalformedOutput(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "this is not json"}]}}]}`))
	}))
	defer server.Close()

	g := NewGenerator(Config{APIKey: "key", BaseURL: server.URL})
	_, err := g.GenerateNotes(context.Background(), "some transcript")
	if err == nil {
		t.Fatalf("expected shape validation error")
	}

	var genErr *notegen.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if genErr.Reason != "model returned malformed JSON" {
		t.Fatalf("unexpected reason: %q", genErr.Reason)
	}
}
