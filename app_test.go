package main

import (
	"errors"
	"testing"

	"notedeck/internal/domain"
)

func TestStateReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.StateReason]string{
		domain.StateReasonReady:             "Ready",
		domain.StateReasonCaptureStarted:    "Listening",
		domain.StateReasonCaptureStopped:    "Capture stopped",
		domain.StateReasonCaptureEnded:      "Capture ended",
		domain.StateReasonGenerationStarted: "Generating notes...",
		domain.StateReasonNotesReady:        "Notes ready",
		domain.StateReasonGenerationFailed:  "Note generation failed",
		domain.StateReasonTranscriptCleared: "Transcript cleared",
		domain.StateReasonStorageFallback:   "Remote storage unavailable",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := stateReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := stateReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:       "Startup failed",
		domain.ErrorCodeEmptyInput:    "Nothing to summarize",
		domain.ErrorCodeCapture:       "Capture failed to start",
		domain.ErrorCodeCaptureStream: "Audio streaming issue",
		domain.ErrorCodeGeneration:    "Note generation failed",
		domain.ErrorCodeStoreWrite:    "Saving notes failed",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusBeforeStartup(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.Tab != domain.TabInput || status.Capturing || status.Generating {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Error != "" {
		t.Fatalf("expected no error, got %q", status.Error)
	}

	app.bootErr = errors.New("boot failed")
	status = app.GetStatus()
	if status.Error != "boot failed" {
		t.Fatalf("expected boot error in status, got %q", status.Error)
	}
}

func TestGetRuntimeInfoWithBootError(t *testing.T) {
	t.Parallel()

	app := &App{bootErr: errors.New("boot failed")}
	info := app.GetRuntimeInfo()
	if info["error"] != "boot failed" {
		t.Fatalf("unexpected runtime info: %v", info)
	}
}
