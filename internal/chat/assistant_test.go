package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssistant_RejectsUnknownProvider(t *testing.T) {
	_, err := NewAssistant(Config{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}

func TestNewAssistant_AcceptsKnownProviders(t *testing.T) {
	for _, provider := range []string{"", "openai", "openrouter"} {
		_, err := NewAssistant(Config{Provider: provider, APIKey: "k"})
		assert.NoError(t, err, provider)
	}
}

func TestAppendTurn_CapsHistory(t *testing.T) {
	a, err := NewAssistant(Config{APIKey: "k", MaxHistory: 4})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		a.appendTurn("conv", fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	history := a.snapshotHistory("conv")
	require.Len(t, history, 4)
	assert.Equal(t, "question 8", history[0].Content)
	assert.Equal(t, "answer 9", history[3].Content)
}

func TestReset_DropsConversation(t *testing.T) {
	a, err := NewAssistant(Config{APIKey: "k"})
	require.NoError(t, err)

	a.appendTurn("conv", "q", "a")
	a.Reset("conv")
	assert.Empty(t, a.snapshotHistory("conv"))
}

func TestHistoriesAreIsolatedPerConversation(t *testing.T) {
	a, err := NewAssistant(Config{APIKey: "k"})
	require.NoError(t, err)

	a.appendTurn("one", "q1", "a1")
	a.appendTurn("two", "q2", "a2")

	assert.Len(t, a.snapshotHistory("one"), 2)
	assert.Len(t, a.snapshotHistory("two"), 2)
	assert.Equal(t, "q1", a.snapshotHistory("one")[0].Content)
}

func TestSystemContent_IncludesReference(t *testing.T) {
	a, err := NewAssistant(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.NotContains(t, a.systemContent(), "Reference material")

	a, err = NewAssistant(Config{APIKey: "k"}, WithReferenceContext("WHO guideline text"))
	require.NoError(t, err)
	assert.Contains(t, a.systemContent(), "WHO guideline text")
}
