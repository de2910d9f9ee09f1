package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the backend.
type Config struct {
	Generator GeneratorConfig
	Firestore FirestoreConfig
	Deepgram  DeepgramConfig
	Audio     AudioConfig
	Vocab     VocabConfig
	Session   SessionConfig
}

type GeneratorConfig struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	Temperature     *float64
	MaxOutputTokens int
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
	UserID          string
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type VocabConfig struct {
	Path string
}

type SessionConfig struct {
	ChunkSize      int
	StreamingGrace time.Duration
}

// Load resolves configuration from a .env file (when present),
// environment variables, and sensible defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Generator: GeneratorConfig{
			Provider:        strings.ToLower(envOrDefault("NOTEDECK_GENERATOR", "gemini")),
			GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_KEY")),
			GeminiModel:     strings.TrimSpace(os.Getenv("NOTEDECK_GEMINI_MODEL")),
			OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			OpenAIModel:     strings.TrimSpace(os.Getenv("NOTEDECK_OPENAI_MODEL")),
			Temperature:     envOptionalFloat("NOTEDECK_TEMPERATURE"),
			MaxOutputTokens: envOrDefaultInt("NOTEDECK_MAX_OUTPUT_TOKENS", 0),
		},
		Firestore: FirestoreConfig{
			ProjectID: strings.TrimSpace(os.Getenv("NOTEDECK_FIRESTORE_PROJECT")),
			CredentialsFile: firstNonEmpty(
				os.Getenv("NOTEDECK_FIRESTORE_CREDENTIALS"),
				os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			),
			Collection: envOrDefault("NOTEDECK_FIRESTORE_COLLECTION", "lectures"),
			UserID:     strings.TrimSpace(os.Getenv("NOTEDECK_USER_ID")),
		},
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:    strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("NOTEDECK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("NOTEDECK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("NOTEDECK_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("NOTEDECK_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("NOTEDECK_CHANNELS", 1),
		},
		Vocab: VocabConfig{
			Path: strings.TrimSpace(os.Getenv("NOTEDECK_VOCAB_FILE")),
		},
		Session: SessionConfig{
			ChunkSize:      envOrDefaultInt("NOTEDECK_AUDIO_CHUNK_SIZE", 4096),
			StreamingGrace: time.Duration(envOrDefaultInt("NOTEDECK_STREAMING_GRACE_MS", 1000)) * time.Millisecond,
		},
	}

	if cfg.Generator.Provider != "openai" {
		cfg.Generator.Provider = "gemini"
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Session.StreamingGrace < 0 {
		cfg.Session.StreamingGrace = time.Second
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envOptionalFloat(key string) *float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
