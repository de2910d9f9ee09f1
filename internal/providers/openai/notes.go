// Package openai implements the note generator against the OpenAI
// Responses API with a strict JSON schema output format.
package openai

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"notedeck/internal/domain"
	"notedeck/internal/logging"
	"notedeck/internal/notegen"
	"notedeck/internal/wrap"
)

const defaultModel = "gpt-5-mini"

// Config controls the OpenAI generator.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     *float64
	MaxOutputTokens int
}

// Generator implements ports.NoteGenerator.
type Generator struct {
	cfg       Config
	apiClient openai.Client
}

func NewGenerator(cfg Config) *Generator {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}

	requestOpts := make([]option.RequestOption, 0, 2)
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(cfg.APIKey))
	}

	return &Generator{cfg: cfg, apiClient: openai.NewClient(requestOpts...)}
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

	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(g.cfg.Model),
		Instructions: openai.String(notegen.SystemInstruction),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(transcript),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   "lecture_notes",
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}
	if g.cfg.Temperature != nil {
		params.Temperature = openai.Float(*g.cfg.Temperature)
	}
	if g.cfg.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(g.cfg.MaxOutputTokens))
	}

	log.Infof("model=%q transcript_chars=%d temperature=%v", g.cfg.Model, len(transcript), g.cfg.Temperature)

	response, err := g.apiClient.Responses.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return domain.NoteContent{}, notegen.Failed(err)
	}

	notes, err := notegen.Decode(response.OutputText())
	if err != nil {
		log.Errorf("error: %v", err)
		return domain.NoteContent{}, err
	}
	return notes, nil
}
