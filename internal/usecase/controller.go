package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"notedeck/internal/domain"
	"notedeck/internal/logging"
	"notedeck/internal/ports"
)

var (
	// ErrGenerationBusy is returned when a generation is already in flight.
	ErrGenerationBusy = errors.New("note generation already in progress")
	// ErrEmptyTranscript is returned when Generate is called with no text.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrCaptureUnavailable is returned when no speech provider is configured.
	ErrCaptureUnavailable = errors.New("speech capture is not available")
	// ErrNoSuchRecord is returned when selecting an unknown record ID.
	ErrNoSuchRecord = errors.New("no record with that ID")
)

const (
	titleRuneLimit    = 40
	speechWaitTimeout = 4 * time.Second
)

// Config carries the session-level tunables for a controller.
type Config struct {
	Audio          ports.AudioConfig
	Speech         ports.SpeechConfig
	ChunkSize      int
	StreamingGrace time.Duration
}

// SessionController owns the capture -> transcript -> notes pipeline and
// the record list shown in the UI. All state transitions are reported
// through the event sink so the frontend can stay a thin view.
type SessionController struct {
	audio     ports.AudioCapture
	speech    ports.SpeechProvider
	generator ports.NoteGenerator
	vocab     ports.VocabEngine
	events    ports.EventSink
	fallback  func() ports.RecordStore
	cfg       Config

	transcript transcriptBuffer

	mu            sync.Mutex
	store         ports.RecordStore
	subscription  ports.RecordSubscription
	capture       *captureSession
	records       []domain.LectureRecord
	selectedID    string
	pendingSelect string
	activeTab     domain.Tab
	generating    bool
	genSeq        uint64
	lastError     string
	fellBack      bool
	shutdown      bool
}

// NewSessionController wires the controller. A nil audio capture or
// speech provider disables live capture while leaving the rest of the
// app usable with pasted transcripts.
func NewSessionController(
	audio ports.AudioCapture,
	speech ports.SpeechProvider,
	generator ports.NoteGenerator,
	vocab ports.VocabEngine,
	events ports.EventSink,
	cfg Config,
) *SessionController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &SessionController{
		audio:     audio,
		speech:    speech,
		generator: generator,
		vocab:     vocab,
		events:    events,
		cfg:       cfg,
		activeTab: domain.TabInput,
	}
}

// AttachStore connects the record store and starts streaming snapshots.
// fallbackFactory builds the in-memory replacement used when a remote
// store fails after startup.
func (c *SessionController) AttachStore(ctx context.Context, store ports.RecordStore, fallbackFactory func() ports.RecordStore) error {
	c.fallback = fallbackFactory
	return c.useStore(ctx, store)
}

func (c *SessionController) useStore(ctx context.Context, store ports.RecordStore) error {
	sub, err := store.Subscribe(ctx)
	if err != nil {
		if store.Mode() == domain.StoreModeRemote && c.fallback != nil {
			_ = store.Close()
			return c.switchToFallback(ctx, err)
		}
		return err
	}

	c.mu.Lock()
	previousSub := c.subscription
	previousStore := c.store
	c.store = store
	c.subscription = sub
	c.mu.Unlock()

	if previousSub != nil {
		previousSub.Cancel()
	}
	if previousStore != nil && previousStore != store {
		_ = previousStore.Close()
	}

	go c.consumeSnapshots(ctx, store, sub)
	return nil
}

func (c *SessionController) consumeSnapshots(ctx context.Context, store ports.RecordStore, sub ports.RecordSubscription) {
	for snapshot := range sub.Snapshots() {
		c.applySnapshot(snapshot)
	}

	err := sub.Err()

	c.mu.Lock()
	current := c.subscription == sub
	down := c.shutdown
	c.mu.Unlock()

	if !current || down || err == nil {
		return
	}
	if store.Mode() == domain.StoreModeRemote {
		_ = c.switchToFallback(ctx, err)
	}
}

func (c *SessionController) switchToFallback(ctx context.Context, cause error) error {
	c.mu.Lock()
	if c.fellBack || c.shutdown {
		c.mu.Unlock()
		return nil
	}
	c.fellBack = true
	c.mu.Unlock()

	logging.NewLogger(ctx).Warnf("remote record store unavailable, switching to in-memory storage: %v", cause)

	if err := c.useStore(ctx, c.fallback()); err != nil {
		return err
	}
	c.events.StorageNotice("Remote storage is unavailable. Notes will not be saved and exist only for this session.")
	c.events.SessionStateChanged(c.currentState(), domain.StateReasonStorageFallback)
	return nil
}

func (c *SessionController) applySnapshot(records []domain.LectureRecord) {
	c.mu.Lock()
	c.records = records
	selected := reconcileSelection(records, c.selectedID, c.pendingSelect)
	if c.pendingSelect != "" && selected == c.pendingSelect {
		c.pendingSelect = ""
	}
	c.selectedID = selected
	c.mu.Unlock()

	c.events.RecordsUpdated(records, selected)
}

// reconcileSelection decides which record stays selected after the list
// changes. A pending selection from a fresh save wins, then the current
// selection if it survived, then the newest record.
func reconcileSelection(records []domain.LectureRecord, currentID, pendingID string) string {
	if pendingID != "" && containsRecord(records, pendingID) {
		return pendingID
	}
	if currentID != "" && containsRecord(records, currentID) {
		return currentID
	}
	if len(records) > 0 {
		return records[0].ID
	}
	return ""
}

func containsRecord(records []domain.LectureRecord, id string) bool {
	for _, record := range records {
		if record.ID == id {
			return true
		}
	}
	return false
}

// Generate turns the current transcript into structured notes and saves
// them. It blocks until the result is stored or the attempt fails.
func (c *SessionController) Generate(ctx context.Context) error {
	text := strings.TrimSpace(c.transcript.Text())
	if text == "" {
		c.events.SessionError(domain.ErrorCodeEmptyInput, "There is no transcript to summarize yet.")
		return ErrEmptyTranscript
	}

	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return ErrGenerationBusy
	}
	c.generating = true
	c.lastError = ""
	c.activeTab = domain.TabNotes
	c.genSeq++
	seq := c.genSeq
	c.mu.Unlock()

	c.events.ActiveTabChanged(domain.TabNotes)
	c.events.SessionStateChanged(domain.SessionStateGenerating, domain.StateReasonGenerationStarted)

	notes, err := c.generator.GenerateNotes(ctx, text)
	if err != nil {
		return c.failGeneration(seq, domain.ErrorCodeGeneration, err)
	}

	flashcards := notes.Flashcards
	if flashcards == nil {
		flashcards = []domain.Flashcard{}
	}
	record := domain.LectureRecord{
		Title:        deriveTitle(text),
		Summary:      notes.Summary,
		Flashcards:   flashcards,
		OriginalText: text,
	}

	c.mu.Lock()
	stale := seq != c.genSeq || !c.generating
	store := c.store
	c.mu.Unlock()
	if stale {
		// The transcript was cleared while the model was working.
		return nil
	}
	if store == nil {
		return c.failGeneration(seq, domain.ErrorCodeStoreWrite, errors.New("no record store attached"))
	}

	id, err := store.Add(ctx, record)
	if err != nil {
		return c.failGeneration(seq, domain.ErrorCodeStoreWrite, fmt.Errorf("failed to save notes: %w", err))
	}

	c.completeGeneration(seq, id)
	return nil
}

func (c *SessionController) failGeneration(seq uint64, code domain.ErrorCode, cause error) error {
	c.mu.Lock()
	if seq != c.genSeq || !c.generating {
		// The session moved on; the result belongs to a cleared transcript.
		c.mu.Unlock()
		return cause
	}
	c.generating = false
	c.lastError = cause.Error()
	c.activeTab = domain.TabInput
	state := c.stateLocked()
	c.mu.Unlock()

	c.events.SessionError(code, cause.Error())
	c.events.ActiveTabChanged(domain.TabInput)
	c.events.SessionStateChanged(state, domain.StateReasonGenerationFailed)
	return cause
}

func (c *SessionController) completeGeneration(seq uint64, id string) {
	c.mu.Lock()
	if seq != c.genSeq || !c.generating {
		c.mu.Unlock()
		return
	}
	c.generating = false
	c.pendingSelect = id

	var records []domain.LectureRecord
	selectionChanged := false
	// The store snapshot may have landed before the ID came back.
	if containsRecord(c.records, id) {
		c.pendingSelect = ""
		c.selectedID = id
		records = c.records
		selectionChanged = true
	}
	state := c.stateLocked()
	c.mu.Unlock()

	if selectionChanged {
		c.events.RecordsUpdated(records, id)
	}
	c.events.SessionStateChanged(state, domain.StateReasonNotesReady)
}

func deriveTitle(text string) string {
	condensed := strings.Join(strings.Fields(text), " ")
	runes := []rune(condensed)
	if len(runes) <= titleRuneLimit {
		return condensed
	}
	return string(runes[:titleRuneLimit]) + "…"
}

// ToggleCapture starts live capture when idle and stops it when running.
func (c *SessionController) ToggleCapture(ctx context.Context) error {
	c.mu.Lock()
	active := c.capture
	c.mu.Unlock()

	if active != nil {
		return c.stopCapture(active)
	}
	return c.startCapture(ctx)
}

func (c *SessionController) startCapture(ctx context.Context) error {
	if c.audio == nil || c.speech == nil {
		return ErrCaptureUnavailable
	}

	// Starting a session replaces whatever was in the editor.
	c.transcript.Reset()
	c.events.TranscriptChanged("")
	c.events.InterimTranscript("")

	sessionCtx, cancel := context.WithCancel(ctx)

	speech, err := c.speech.StartSession(sessionCtx, c.cfg.Speech)
	if err != nil {
		cancel()
		c.events.SessionError(domain.ErrorCodeCapture, fmt.Sprintf("failed to start recognition: %v", err))
		return err
	}

	audio, err := c.audio.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		_ = speech.Close()
		cancel()
		c.events.SessionError(domain.ErrorCodeCapture, fmt.Sprintf("failed to start audio capture: %v", err))
		return err
	}

	session := &captureSession{
		cancel:     cancel,
		audio:      audio,
		speech:     speech,
		eventsDone: make(chan struct{}),
		audioDone:  make(chan struct{}),
	}

	c.mu.Lock()
	c.capture = session
	c.mu.Unlock()

	go c.consumeSpeechEvents(session)
	go pumpAudioChunks(audio, speech, c.cfg.ChunkSize, c.events, session.audioDone)

	c.events.SessionStateChanged(domain.SessionStateCapturing, domain.StateReasonCaptureStarted)
	return nil
}

func (c *SessionController) consumeSpeechEvents(session *captureSession) {
	defer close(session.eventsDone)

	for event := range session.speech.Events() {
		text := strings.TrimSpace(event.Text)
		if text == "" {
			continue
		}
		switch event.Kind {
		case domain.SpeechEventInterim:
			c.transcript.SetInterim(text)
			c.events.InterimTranscript(text)
		case domain.SpeechEventFinal:
			if c.vocab != nil {
				text = c.vocab.Apply(text)
			}
			c.transcript.AppendFinal(text)
			c.events.InterimTranscript("")
			c.events.TranscriptChanged(c.transcript.Text())
		}
	}

	c.captureEnded(session)
}

// captureEnded cleans up after a session the provider closed on its own,
// for example the recognition stream timing out. A session stopped by
// the user is cleaned up in stopCapture instead.
func (c *SessionController) captureEnded(session *captureSession) {
	c.mu.Lock()
	if c.capture != session {
		c.mu.Unlock()
		return
	}
	c.capture = nil
	state := c.stateLocked()
	c.mu.Unlock()

	// The audio pump must drain before the speech session closes; it may
	// still be parked inside SendAudio.
	_ = session.audio.Stop()
	<-session.audioDone
	_ = session.speech.Close()
	session.cancel()
	c.transcript.SetInterim("")

	c.events.InterimTranscript("")
	c.events.SessionStateChanged(state, domain.StateReasonCaptureEnded)
}

func (c *SessionController) stopCapture(session *captureSession) error {
	c.mu.Lock()
	if c.capture != session {
		// The session already ended on its own; stopping is a no-op.
		c.mu.Unlock()
		return nil
	}
	c.capture = nil
	c.mu.Unlock()

	_ = session.audio.Stop()
	<-session.audioDone

	// Let the recognizer flush results for audio it already received.
	if c.cfg.StreamingGrace > 0 {
		time.Sleep(c.cfg.StreamingGrace)
	}

	_ = session.speech.CloseSend()
	_ = waitForSession(session.speech, speechWaitTimeout)
	<-session.eventsDone
	_ = session.speech.Close()
	session.cancel()

	c.transcript.SetInterim("")

	c.mu.Lock()
	state := c.stateLocked()
	c.mu.Unlock()

	c.events.InterimTranscript("")
	c.events.SessionStateChanged(state, domain.StateReasonCaptureStopped)
	return nil
}

// SetTranscript replaces the transcript with manually edited text.
func (c *SessionController) SetTranscript(text string) {
	c.transcript.SetText(text)
	c.events.TranscriptChanged(text)
}

// ResetTranscript clears the editor and abandons any in-flight
// generation so its late result cannot resurface cleared text.
func (c *SessionController) ResetTranscript() {
	c.transcript.Reset()

	c.mu.Lock()
	c.genSeq++
	c.generating = false
	c.lastError = ""
	state := c.stateLocked()
	c.mu.Unlock()

	c.events.TranscriptChanged("")
	c.events.InterimTranscript("")
	c.events.SessionStateChanged(state, domain.StateReasonTranscriptCleared)
}

// SelectRecord marks a stored record as the one shown in the notes and
// cards tabs.
func (c *SessionController) SelectRecord(id string) error {
	c.mu.Lock()
	if !containsRecord(c.records, id) {
		c.mu.Unlock()
		return ErrNoSuchRecord
	}
	c.selectedID = id
	c.pendingSelect = ""
	records := c.records
	c.mu.Unlock()

	c.events.RecordsUpdated(records, id)
	return nil
}

// SetActiveTab switches the main view.
func (c *SessionController) SetActiveTab(tab domain.Tab) error {
	switch tab {
	case domain.TabInput, domain.TabNotes, domain.TabCards:
	default:
		return fmt.Errorf("unknown tab %q", tab)
	}

	c.mu.Lock()
	c.activeTab = tab
	c.mu.Unlock()

	c.events.ActiveTabChanged(tab)
	return nil
}

// Transcript returns the current editor text.
func (c *SessionController) Transcript() string {
	return c.transcript.Text()
}

// Records returns the current record list and selection.
func (c *SessionController) Records() ([]domain.LectureRecord, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]domain.LectureRecord, len(c.records))
	copy(records, c.records)
	return records, c.selectedID
}

// Status reports a snapshot of the session for the frontend.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.Status{
		Tab:              c.activeTab,
		Capturing:        c.capture != nil,
		Generating:       c.generating,
		CaptureAvailable: c.audio != nil && c.speech != nil,
		SelectedID:       c.selectedID,
		Error:            c.lastError,
	}
	if c.store != nil {
		status.StoreMode = c.store.Mode()
		status.UserScope = c.store.UserScope()
	}
	return status
}

// Shutdown tears down the capture session, subscription and store.
func (c *SessionController) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.genSeq++
	c.generating = false
	session := c.capture
	c.capture = nil
	sub := c.subscription
	c.subscription = nil
	store := c.store
	c.store = nil
	c.mu.Unlock()

	if session != nil {
		_ = session.audio.Stop()
		<-session.audioDone
		_ = session.speech.Close()
		session.cancel()
	}
	if sub != nil {
		sub.Cancel()
	}
	if store != nil {
		_ = store.Close()
	}
}

func (c *SessionController) stateLocked() domain.SessionState {
	switch {
	case c.generating:
		return domain.SessionStateGenerating
	case c.capture != nil:
		return domain.SessionStateCapturing
	default:
		return domain.SessionStateIdle
	}
}

func (c *SessionController) currentState() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}
