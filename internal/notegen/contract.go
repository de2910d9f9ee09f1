// Package notegen holds the provider-independent half of the generation
// contract: the fixed task instruction, the strict output schema, and the
// decoding/shape validation applied to raw model output.
package notegen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"notedeck/internal/domain"
)

// SystemInstruction is the fixed transformation task sent with every
// generation request. The transcript is the sole content payload.
const SystemInstruction = "You are a study assistant. You will receive the raw transcript " +
	"of a lecture. Produce a concise summary of the lecture in plain prose, and a set of " +
	"flashcards covering its key terms. Respond with a single JSON object containing " +
	"exactly two fields: \"summary\" (a string) and \"flashcards\" (an array of objects, " +
	"each with a \"term\" string and a \"definition\" string). Do not include any other fields."

// GenerationError carries a human-readable cause for a failed generation.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Failed wraps a transport or API error as a GenerationError.
func Failed(err error) error {
	return &GenerationError{Reason: "generation request failed", Err: err}
}

// Schema reflects the strict output schema from the note contract struct.
// additionalProperties is disabled so no extra top-level fields pass.
func Schema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(domain.NoteContent{})

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, err
	}

	return schemaMap, nil
}

type cardPayload struct {
	Term       *string `json:"term"`
	Definition *string `json:"definition"`
}

type notePayload struct {
	Summary    *string        `json:"summary"`
	Flashcards *[]cardPayload `json:"flashcards"`
}

// Decode parses raw model output and validates it against the contract.
// Pointer fields distinguish absent/null from present, so a missing
// summary, missing flashcards array, or a card lacking either side is a
// shape violation rather than an accepted partial result.
func Decode(raw string) (domain.NoteContent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.NoteContent{}, &GenerationError{Reason: "model returned an empty response"}
	}

	var payload notePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.NoteContent{}, &GenerationError{Reason: "model returned malformed JSON", Err: err}
	}

	if payload.Summary == nil {
		return domain.NoteContent{}, &GenerationError{Reason: "response is missing the summary field"}
	}
	if payload.Flashcards == nil {
		return domain.NoteContent{}, &GenerationError{Reason: "response is missing the flashcards field"}
	}

	cards := make([]domain.Flashcard, 0, len(*payload.Flashcards))
	for i, card := range *payload.Flashcards {
		if card.Term == nil || card.Definition == nil {
			return domain.NoteContent{}, &GenerationError{
				Reason: "flashcard is missing a term or definition",
				Err:    fmt.Errorf("index %d", i),
			}
		}
		if strings.TrimSpace(*card.Term) == "" {
			return domain.NoteContent{}, &GenerationError{
				Reason: "flashcard has an empty term",
				Err:    fmt.Errorf("index %d", i),
			}
		}
		cards = append(cards, domain.Flashcard{Term: *card.Term, Definition: *card.Definition})
	}

	return domain.NoteContent{Summary: *payload.Summary, Flashcards: cards}, nil
}
