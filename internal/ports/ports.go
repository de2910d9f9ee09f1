package ports

import (
	"context"
	"io"

	"notedeck/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// SpeechConfig describes provider-agnostic recognition settings.
type SpeechConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// SpeechSession is an active recognition session. The Events channel
// closes when the session ends, whether stopped explicitly or ended by
// the provider on its own (silence timeout).
type SpeechSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.SpeechEvent
	Wait() error
	Close() error
}

// SpeechProvider starts live recognition sessions.
type SpeechProvider interface {
	StartSession(ctx context.Context, cfg SpeechConfig) (SpeechSession, error)
}

// NoteGenerator turns a transcript into a summary plus flashcards with
// exactly one request per call.
type NoteGenerator interface {
	GenerateNotes(ctx context.Context, transcript string) (domain.NoteContent, error)
}

// RecordSubscription is a live view over a record list. Snapshots closes
// when the subscription ends; Err reports why, if anything went wrong.
type RecordSubscription interface {
	Snapshots() <-chan []domain.LectureRecord
	Err() error
	Cancel()
}

// RecordStore is the capability set shared by the remote and fallback
// record backends.
type RecordStore interface {
	Subscribe(ctx context.Context) (RecordSubscription, error)
	Add(ctx context.Context, record domain.LectureRecord) (string, error)
	UserScope() string
	Mode() domain.StoreMode
	Close() error
}

// VocabEngine corrects recognized text using user-supplied substitutions.
type VocabEngine interface {
	Apply(text string) string
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.StateReason)
	ActiveTabChanged(tab domain.Tab)
	InterimTranscript(text string)
	TranscriptChanged(text string)
	RecordsUpdated(records []domain.LectureRecord, selectedID string)
	StorageNotice(message string)
	SessionError(code domain.ErrorCode, detail string)
}
