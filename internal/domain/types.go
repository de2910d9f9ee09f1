package domain

import "time"

// Tab identifies which view the single-page UI is showing.
type Tab string

const (
	TabInput Tab = "input"
	TabNotes Tab = "notes"
	TabCards Tab = "cards"
)

// StoreMode identifies which record store backend is active.
type StoreMode string

const (
	StoreModeRemote   StoreMode = "remote"
	StoreModeFallback StoreMode = "fallback"
)

// SessionState models the lecture session lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateCapturing  SessionState = "capturing"
	SessionStateGenerating SessionState = "generating"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	StateReasonReady             StateReason = "ready"
	StateReasonCaptureStarted    StateReason = "capture_started"
	StateReasonCaptureStopped    StateReason = "capture_stopped"
	StateReasonCaptureEnded      StateReason = "capture_ended"
	StateReasonGenerationStarted StateReason = "generation_started"
	StateReasonNotesReady        StateReason = "notes_ready"
	StateReasonGenerationFailed  StateReason = "generation_failed"
	StateReasonTranscriptCleared StateReason = "transcript_cleared"
	StateReasonStorageFallback   StateReason = "storage_fallback"
)

// ErrorCode identifies non-fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeEmptyInput    ErrorCode = "empty_input"
	ErrorCodeCapture       ErrorCode = "capture"
	ErrorCodeCaptureStream ErrorCode = "capture_stream"
	ErrorCodeGeneration    ErrorCode = "generation"
	ErrorCodeStoreWrite    ErrorCode = "store_write"
)

// SpeechEventKind identifies whether a capture event is a tentative
// hypothesis or a finalized segment.
type SpeechEventKind string

const (
	SpeechEventInterim SpeechEventKind = "interim"
	SpeechEventFinal   SpeechEventKind = "final"
)

// SpeechEvent represents incremental recognition output from the
// speech capture collaborator.
type SpeechEvent struct {
	Kind SpeechEventKind `json:"kind"`
	Text string          `json:"text"`
}

// Flashcard is one term/definition pair. Pairs carry no identity beyond
// their position and duplicates are permitted.
type Flashcard struct {
	Term       string `json:"term" firestore:"term"`
	Definition string `json:"definition" firestore:"definition"`
}

// NoteContent is the JSON contract returned by the generative model.
// The output schema reflected from this struct requires both fields.
type NoteContent struct {
	Summary    string      `json:"summary"`
	Flashcards []Flashcard `json:"flashcards"`
}

// LectureRecord is one persisted generation result. Records are
// immutable after creation.
type LectureRecord struct {
	ID           string      `json:"id" firestore:"-"`
	Title        string      `json:"title" firestore:"title"`
	Summary      string      `json:"summary" firestore:"summary"`
	Flashcards   []Flashcard `json:"flashcards" firestore:"flashcards"`
	Timestamp    time.Time   `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	OriginalText string      `json:"originalText" firestore:"originalText"`
}

// TimestampPending reports whether the server-assigned creation time has
// not yet been resolved by the backend.
func (r LectureRecord) TimestampPending() bool {
	return r.Timestamp.IsZero()
}

// Status summarizes the current session for the UI.
type Status struct {
	Tab              Tab       `json:"tab"`
	Capturing        bool      `json:"capturing"`
	Generating       bool      `json:"generating"`
	CaptureAvailable bool      `json:"captureAvailable"`
	StoreMode        StoreMode `json:"storeMode"`
	UserScope        string    `json:"userScope"`
	SelectedID       string    `json:"selectedId,omitempty"`
	Error            string    `json:"error,omitempty"`
}
