package usecase

import (
	"strings"
	"sync"
)

// transcriptBuffer holds the mutable transcript text plus the transient
// interim preview from live recognition.
type transcriptBuffer struct {
	mu      sync.Mutex
	text    string
	interim string
}

// AppendFinal adds a finalized segment to the buffer. Manual edits made
// mid-capture are never overwritten; segments only ever append.
func (b *transcriptBuffer) AppendFinal(segment string) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.text == "" {
		b.text = segment
	} else {
		b.text += " " + segment
	}
	b.interim = ""
}

// SetInterim replaces the tentative hypothesis for the span currently
// being spoken.
func (b *transcriptBuffer) SetInterim(segment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interim = strings.TrimSpace(segment)
}

// SetText replaces the whole buffer with manually edited text.
func (b *transcriptBuffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

func (b *transcriptBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.interim = ""
}

func (b *transcriptBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *transcriptBuffer) Interim() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interim
}
