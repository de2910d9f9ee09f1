// Package gemini implements the note generator against the Gemini API
// using structured JSON output constrained by the contract schema.
package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"notedeck/internal/domain"
	"notedeck/internal/logging"
	"notedeck/internal/notegen"
	"notedeck/internal/wrap"
)

const defaultModel = "gemini-2.5-flash"

// Config controls the Gemini generator.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     *float64
	MaxOutputTokens int
}

// Generator implements ports.NoteGenerator.
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	return &Generator{cfg: cfg}
}

// GenerateNotes performs exactly one request: no retries, no streaming,
// no partial results.
func (g *Generator) GenerateNotes(ctx context.Context, transcript string) (domain.NoteContent, error) {
	log := logging.NewLogger(ctx)

	schema, err := notegen.Schema()
	if err != nil {
		log.Errorf("error: %v", err)
		return domain.NoteContent{}, wrap.IfNotNil(err)
	}

	client, err := g.newAPIClient(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return domain.NoteContent{}, notegen.Failed(err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(notegen.SystemInstruction, genai.RoleUser),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
	}
	if g.cfg.Temperature != nil {
		temp := float32(*g.cfg.Temperature)
		config.Temperature = &temp
	}
	if g.cfg.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(g.cfg.MaxOutputTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(transcript, genai.RoleUser)}

	log.Infof("model=%q transcript_chars=%d temperature=%v", g.cfg.Model, len(transcript), g.cfg.Temperature)

	response, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		log.Errorf("error: %v", err)
		return domain.NoteContent{}, notegen.Failed(err)
	}

	notes, err := notegen.Decode(response.Text())
	if err != nil {
		log.Errorf("error: %v", err)
		return domain.NoteContent{}, err
	}
	return notes, nil
}

func (g *Generator) newAPIClient(ctx context.Context) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	if token := strings.TrimSpace(g.cfg.APIKey); token != "" {
		clientCfg.APIKey = token
	}
	if baseURL := strings.TrimSpace(g.cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, wrap.IfNotNil(err)
	}
	return client, nil
}
