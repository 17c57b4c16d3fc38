package fallback

import (
	"encoding/json"
	"testing"

	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIsDeterministic(t *testing.T) {
	c := NewCatalog()

	for _, kind := range []providers.TaskKind{
		providers.TaskFlashcards,
		providers.TaskTutorExplanation,
		providers.TaskStudyPlan,
		providers.TaskCompletion,
	} {
		req := &providers.Request{Kind: kind, Prompt: "binary search"}
		first := c.Render(req)
		second := c.Render(req)
		require.NotEmpty(t, first)
		assert.Equal(t, first, second, "fallback text must not vary for kind %s", kind)
	}
}

func TestRenderJSONKindsAreValidJSON(t *testing.T) {
	c := NewCatalog()

	var plan map[string]interface{}
	err := json.Unmarshal([]byte(c.Render(&providers.Request{Kind: providers.TaskStudyPlan})), &plan)
	require.NoError(t, err)
	assert.Contains(t, plan, "week_1")
	assert.Contains(t, plan, "tips")

	var deck map[string]interface{}
	err = json.Unmarshal([]byte(c.Render(&providers.Request{Kind: providers.TaskFlashcards})), &deck)
	require.NoError(t, err)
	assert.Contains(t, deck, "flashcards")

	var advice map[string]interface{}
	err = json.Unmarshal([]byte(c.Render(&providers.Request{
		Kind:   providers.TaskCompletion,
		Format: providers.FormatJSON,
	})), &advice)
	require.NoError(t, err)
	assert.Contains(t, advice, "advice")
}

func TestRenderExplanationTopics(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		prompt string
		want   string
	}{
		{"explain how a linked list works", "linked list"},
		{"what is a hash table?", "hash table"},
		{"student asked about a HASH MAP", "hash table"},
		{"tell me about binary search", "binary search"},
		{"how does recursion work", "Recursion"},
		{"what is polymorphism", "programming concept"},
	}

	for _, tt := range tests {
		got := c.Render(&providers.Request{Kind: providers.TaskTutorExplanation, Prompt: tt.prompt})
		assert.Contains(t, got, tt.want, "prompt %q", tt.prompt)
	}
}

func TestRenderCompletionText(t *testing.T) {
	c := NewCatalog()

	got := c.Render(&providers.Request{Kind: providers.TaskCompletion, Format: providers.FormatText})
	assert.Contains(t, got, "consistent daily practice")
}
