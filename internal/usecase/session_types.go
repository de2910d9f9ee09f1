package usecase

import (
	"notedeck/internal/ports"
)

// captureSession groups the live audio and recognition halves of one
// capture run.
type captureSession struct {
	cancel func()
	audio  ports.AudioSession
	speech ports.SpeechSession

	eventsDone chan struct{}
	audioDone  chan struct{}
}
