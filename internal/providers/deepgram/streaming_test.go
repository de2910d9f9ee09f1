package deepgram

import (
	"context"
	"strings"
	"testing"
	"time"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

func TestNewProviderDefaults(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{})
	if p.cfg.APIBaseURL != "https://api.deepgram.com/v1" {
		t.Fatalf("unexpected base url: %q", p.cfg.APIBaseURL)
	}
	if p.cfg.Model != "nova-2" {
		t.Fatalf("unexpected model: %q", p.cfg.Model)
	}
}

func TestProviderAvailable(t *testing.T) {
	t.Parallel()

	if NewProvider(Config{}).Available() {
		t.Fatalf("provider without key must not be available")
	}
	if !NewProvider(Config{APIKey: "dg-test"}).Available() {
		t.Fatalf("provider with key must be available")
	}
}

func TestStartSessionRequiresAPIKey(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{})
	if _, err := p.StartSession(context.Background(), ports.SpeechConfig{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestBuildListenURLDefaults(t *testing.T) {
	t.Parallel()

	url, err := buildListenURL(Config{APIBaseURL: "https://api.deepgram.com/v1", Model: "nova-2"}, ports.SpeechConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(url, "wss://api.deepgram.com/v1/listen") {
		t.Fatalf("unexpected ws url: %s", url)
	}
	if !strings.Contains(url, "encoding=linear16") {
		t.Fatalf("expected default encoding in url: %s", url)
	}
	if !strings.Contains(url, "sample_rate=16000") {
		t.Fatalf("expected default sample_rate in url: %s", url)
	}
	if !strings.Contains(url, "channels=1") {
		t.Fatalf("expected default channels in url: %s", url)
	}
}

func TestBuildListenURLWithLanguageAndInterim(t *testing.T) {
	t.Parallel()

	url, err := buildListenURL(
		Config{APIBaseURL: "http://localhost:8080/v1", Model: "m", Language: "en-US", SmartFormat: true},
		ports.SpeechConfig{Encoding: "linear16", SampleRate: 8000, Channels: 2, InterimResults: true},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(url, "ws://localhost:8080/v1/listen") {
		t.Fatalf("unexpected ws url: %s", url)
	}
	if !strings.Contains(url, "language=en-US") {
		t.Fatalf("expected language in url: %s", url)
	}
	if !strings.Contains(url, "smart_format=true") {
		t.Fatalf("expected smart_format in url: %s", url)
	}
	if !strings.Contains(url, "interim_results=true") {
		t.Fatalf("expected interim_results in url: %s", url)
	}
}

func TestBuildListenURLInvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := buildListenURL(Config{APIBaseURL: ":// bad"}, ports.SpeechConfig{}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestExtractTranscript(t *testing.T) {
	t.Parallel()

	var response listenResponse
	response.Channel.Alternatives = append(response.Channel.Alternatives, struct {
		Transcript string "json:\"transcript\""
	}{Transcript: "  hello there  "})

	if got := extractTranscript(response); got != "hello there" {
		t.Fatalf("unexpected transcript: %q", got)
	}
	if got := extractTranscript(listenResponse{}); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestSpeechSessionSendAudioAfterCloseSend(t *testing.T) {
	t.Parallel()

	session := &speechSession{
		events:   make(chan domain.SpeechEvent, 1),
		audio:    make(chan []byte, 1),
		done:     make(chan struct{}),
		stopSend: make(chan struct{}),
	}

	if err := session.SendAudio(nil); err != nil {
		t.Fatalf("empty chunk should be a no-op, got %v", err)
	}

	if err := session.CloseSend(); err != nil {
		t.Fatalf("close send failed: %v", err)
	}
	if err := session.CloseSend(); err != nil {
		t.Fatalf("close send must be idempotent, got %v", err)
	}

	if err := session.SendAudio([]byte("x")); err == nil {
		t.Fatalf("expected closed stream error")
	}
}

func TestSpeechSessionCloseSendUnblocksStalledSender(t *testing.T) {
	t.Parallel()

	session := &speechSession{
		events:   make(chan domain.SpeechEvent, 1),
		audio:    make(chan []byte, 1),
		done:     make(chan struct{}),
		stopSend: make(chan struct{}),
	}

	// Fill the buffer so the next send parks with no write loop draining,
	// as happens when the websocket write path stalls.
	if err := session.SendAudio([]byte("a")); err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		result <- session.SendAudio([]byte("b"))
	}()

	time.Sleep(20 * time.Millisecond)
	if err := session.CloseSend(); err != nil {
		t.Fatalf("close send failed: %v", err)
	}

	select {
	case err := <-result:
		if err == nil {
			t.Fatalf("expected closed stream error from stalled sender")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sender stayed blocked after CloseSend")
	}
}

func TestSpeechSessionEmitDropsWhenFull(t *testing.T) {
	t.Parallel()

	session := &speechSession{
		events:   make(chan domain.SpeechEvent, 1),
		audio:    make(chan []byte, 1),
		done:     make(chan struct{}),
		stopSend: make(chan struct{}),
	}

	session.emit(domain.SpeechEvent{Kind: domain.SpeechEventInterim, Text: "one"})
	session.emit(domain.SpeechEvent{Kind: domain.SpeechEventInterim, Text: "two"})

	got := <-session.events
	if got.Text != "one" {
		t.Fatalf("unexpected buffered event: %+v", got)
	}
	select {
	case extra := <-session.events:
		t.Fatalf("expected overflow event to be dropped, got %+v", extra)
	default:
	}
}
