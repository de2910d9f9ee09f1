// Package bootstrap assembles the backend services from configuration.
package bootstrap

import (
	"context"

	"notedeck/internal/audio"
	"notedeck/internal/config"
	"notedeck/internal/logging"
	"notedeck/internal/ports"
	"notedeck/internal/providers/deepgram"
	"notedeck/internal/providers/gemini"
	"notedeck/internal/providers/openai"
	"notedeck/internal/store"
	"notedeck/internal/usecase"
	"notedeck/internal/vocab"
	"notedeck/internal/wrap"
)

const fallbackUserScope = "local"

// Services holds everything the application shell binds to the frontend.
type Services struct {
	Controller *usecase.SessionController
	Config     config.Config
}

// Build loads configuration and wires the session controller with its
// providers and record store. A missing Deepgram key disables capture, a
// missing or broken Firestore setup degrades to in-memory storage; only
// unusable configuration fails the build.
func Build(ctx context.Context, events ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, wrap.IfNotNil(err)
	}

	log := logging.NewLogger(ctx)

	vocabEngine, err := vocab.Load(cfg.Vocab.Path)
	if err != nil {
		return Services{}, wrap.IfNotNil(err)
	}

	var audioCapture ports.AudioCapture
	var speechProvider ports.SpeechProvider
	recognizer := deepgram.NewProvider(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
	})
	if recognizer.Available() {
		speechProvider = recognizer
		audioCapture = audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand)
	} else {
		log.Warnf("DEEPGRAM_API_KEY is not set, live capture disabled")
	}

	controller := usecase.NewSessionController(
		audioCapture,
		speechProvider,
		buildGenerator(cfg.Generator),
		vocabEngine,
		events,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Speech: ports.SpeechConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				InterimResults: true,
			},
			ChunkSize:      cfg.Session.ChunkSize,
			StreamingGrace: cfg.Session.StreamingGrace,
		},
	)

	fallbackFactory := func() ports.RecordStore {
		return store.NewMemoryStore(fallbackUserScope)
	}

	recordStore, notice := buildStore(ctx, cfg.Firestore)
	if err := controller.AttachStore(ctx, recordStore, fallbackFactory); err != nil {
		return Services{}, wrap.IfNotNil(err)
	}
	if notice != "" {
		events.StorageNotice(notice)
	}

	return Services{Controller: controller, Config: cfg}, nil
}

func buildGenerator(cfg config.GeneratorConfig) ports.NoteGenerator {
	if cfg.Provider == "openai" {
		return openai.NewGenerator(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			Model:           cfg.OpenAIModel,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	}
	return gemini.NewGenerator(gemini.Config{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
}

func buildStore(ctx context.Context, cfg config.FirestoreConfig) (ports.RecordStore, string) {
	if cfg.ProjectID == "" {
		return store.NewMemoryStore(fallbackUserScope), ""
	}

	remote, err := store.NewFirestoreStore(ctx, store.FirestoreConfig{
		ProjectID:       cfg.ProjectID,
		CredentialsFile: cfg.CredentialsFile,
		Collection:      cfg.Collection,
		UserID:          cfg.UserID,
	})
	if err != nil {
		logging.NewLogger(ctx).Warnf("failed to open Firestore, using in-memory storage: %v", err)
		return store.NewMemoryStore(fallbackUserScope),
			"Remote storage is unavailable. Notes will not be saved and exist only for this session."
	}
	return remote, ""
}
