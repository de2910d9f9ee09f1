package notegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidResponse(t *testing.T) {
	t.Parallel()

	raw := `
	{
		"summary": "Plants turn light into sugar.",
		"flashcards": [
			{"term": "chlorophyll", "definition": "green pigment"},
			{"term": "chlorophyll", "definition": "green pigment"},
			{"term": "glucose", "definition": "product sugar"}
		]
	}`

	notes, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "Plants turn light into sugar.", notes.Summary)

	// Card order and duplicates come through untouched.
	require.Len(t, notes.Flashcards, 3)
	assert.Equal(t, notes.Flashcards[0], notes.Flashcards[1])
	assert.Equal(t, "glucose", notes.Flashcards[2].Term)
}

func TestDecodeEmptyFlashcards(t *testing.T) {
	t.Parallel()

	notes, err := Decode(`{"summary": "s", "flashcards": []}`)
	require.NoError(t, err)
	require.NotNil(t, notes.Flashcards)
	assert.Empty(t, notes.Flashcards)
}

func TestDecodeShapeViolations(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		raw    string
		reason string
	}{
		"empty response":     {"   ", "model returned an empty response"},
		"malformed json":     {"{not json", "model returned malformed JSON"},
		"missing summary":    {`{"flashcards": []}`, "response is missing the summary field"},
		"null summary":       {`{"summary": null, "flashcards": []}`, "response is missing the summary field"},
		"missing flashcards": {`{"summary": "s"}`, "response is missing the flashcards field"},
		"null flashcards":    {`{"summary": "s", "flashcards": null}`, "response is missing the flashcards field"},
		"card without definition": {
			`{"summary": "s", "flashcards": [{"term": "t"}]}`,
			"flashcard is missing a term or definition",
		},
		"card with empty term": {
			`{"summary": "s", "flashcards": [{"term": "  ", "definition": "d"}]}`,
			"flashcard has an empty term",
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tc.raw)
			require.Error(t, err)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tc.reason, genErr.Reason)
		})
	}
}

func TestSchemaIsStrict(t *testing.T) {
	t.Parallel()

	schema, err := Schema()
	require.NoError(t, err)

	assert.Equal(t, false, schema["additionalProperties"])

	required, ok := schema["required"].([]any)
	require.True(t, ok, "schema has no required list")
	assert.ElementsMatch(t, []any{"summary", "flashcards"}, required)
}

func TestFailedWrapsCause(t *testing.T) {
	t.Parallel()

	cause := assert.AnError
	err := Failed(cause)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "generation request failed", genErr.Reason)
	assert.ErrorIs(t, err, cause)
}
