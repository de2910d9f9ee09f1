package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"notedeck/internal/bootstrap"
	"notedeck/internal/config"
	"notedeck/internal/domain"
	"notedeck/internal/usecase"
)

const (
	eventSession    = "notedeck:session"
	eventTab        = "notedeck:tab"
	eventInterim    = "notedeck:interim"
	eventTranscript = "notedeck:transcript"
	eventRecords    = "notedeck:records"
	eventNotice     = "notedeck:notice"
	eventError      = "notedeck:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.SessionController
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(ctx, a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.SessionStateChanged(domain.SessionStateIdle, domain.StateReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Shutdown()
	}
}

// ToggleCapture starts live capture when idle and stops it when running.
func (a *App) ToggleCapture() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.ToggleCapture(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// GenerateNotes summarizes the current transcript and stores the result.
func (a *App) GenerateNotes() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Generate(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// SetTranscript replaces the transcript with manually edited text.
func (a *App) SetTranscript(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.SetTranscript(text)
	return nil
}

// ResetTranscript clears the transcript editor.
func (a *App) ResetTranscript() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.ResetTranscript()
	return nil
}

// SelectRecord chooses which stored lecture the notes and cards tabs show.
func (a *App) SelectRecord(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SelectRecord(id)
}

// SetActiveTab switches the main view.
func (a *App) SetActiveTab(tab string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SetActiveTab(domain.Tab(tab))
}

// GetTranscript returns the current transcript text.
func (a *App) GetTranscript() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return a.controller.Transcript(), nil
}

// GetRecords returns the stored lectures and the selected ID, newest first.
func (a *App) GetRecords() ([]domain.LectureRecord, string, error) {
	if err := a.requireReady(); err != nil {
		return nil, "", err
	}
	records, selected := a.controller.Records()
	return records, selected, nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		status := domain.Status{Tab: domain.TabInput}
		if a.bootErr != nil {
			status.Error = a.bootErr.Error()
		}
		return status
	}
	return a.controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"generator":        a.cfg.Generator.Provider,
		"speechModel":      a.cfg.Deepgram.Model,
		"language":         a.cfg.Deepgram.Language,
		"vocabFile":        a.cfg.Vocab.Path,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// ActiveTabChanged emits view switches driven by the backend.
func (a *App) ActiveTabChanged(tab domain.Tab) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTab, map[string]string{"tab": string(tab)})
}

// InterimTranscript emits the tentative hypothesis for live speech.
func (a *App) InterimTranscript(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventInterim, map[string]string{"text": text})
}

// TranscriptChanged emits the full transcript after a finalized segment.
func (a *App) TranscriptChanged(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": text})
}

// RecordsUpdated emits the stored lecture list and current selection.
func (a *App) RecordsUpdated(records []domain.LectureRecord, selectedID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecords, map[string]any{
		"records":    records,
		"selectedId": selectedID,
	})
}

// StorageNotice emits a persistent storage warning banner.
func (a *App) StorageNotice(message string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotice, map[string]string{"message": message})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.StateReasonReady:
		return "Ready"
	case domain.StateReasonCaptureStarted:
		return "Listening"
	case domain.StateReasonCaptureStopped:
		return "Capture stopped"
	case domain.StateReasonCaptureEnded:
		return "Capture ended"
	case domain.StateReasonGenerationStarted:
		return "Generating notes..."
	case domain.StateReasonNotesReady:
		return "Notes ready"
	case domain.StateReasonGenerationFailed:
		return "Note generation failed"
	case domain.StateReasonTranscriptCleared:
		return "Transcript cleared"
	case domain.StateReasonStorageFallback:
		return "Remote storage unavailable"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeEmptyInput:
		return "Nothing to summarize"
	case domain.ErrorCodeCapture:
		return "Capture failed to start"
	case domain.ErrorCodeCaptureStream:
		return "Audio streaming issue"
	case domain.ErrorCodeGeneration:
		return "Note generation failed"
	case domain.ErrorCodeStoreWrite:
		return "Saving notes failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
