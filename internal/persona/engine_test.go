package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBank(t *testing.T) *Bank {
	t.Helper()
	b, err := DefaultBank()
	require.NoError(t, err)
	return b
}

func answerAll(t *testing.T, e *Engine, picks ...int) Outcome {
	t.Helper()
	var out Outcome
	for i, p := range picks {
		var err error
		out, err = e.AnswerIndex(p)
		require.NoError(t, err, "answer %d", i)
	}
	return out
}

func TestEngineResolvesPersona(t *testing.T) {
	e := NewEngine(mustBank(t))

	out := answerAll(t, e, 0, 0, 0, 0)
	assert.Equal(t, Type("A"), out.Resolved)
	assert.Equal(t, StageTwo, e.Stage())
	assert.Equal(t, 0, e.Index())

	out = answerAll(t, e, 1, 1, 1)
	assert.True(t, out.Complete)
	assert.Equal(t, Label("gorpcore"), out.Persona)
	assert.Equal(t, Label("gorpcore"), e.Result())
	assert.Equal(t, 7, e.Depth())
}

func TestEngineTieBreakKeepsFirstMaximum(t *testing.T) {
	e := NewEngine(mustBank(t))
	// A is answered before B; both end at two votes.
	out := answerAll(t, e, 0, 1, 0, 1)
	assert.Equal(t, 2, e.TypeTally().Count("A"))
	assert.Equal(t, 2, e.TypeTally().Count("B"))
	assert.Equal(t, Type("A"), out.Resolved)

	// Stage 2 ties resolve by first-answered, not alphabetically.
	out = answerAll(t, e, 3, 0, 1)
	assert.Equal(t, Label("workwear"), out.Persona)
}

func TestEngineIsDeterministic(t *testing.T) {
	bank := mustBank(t)
	picks := []int{2, 2, 3, 1, 0, 3, 2}
	var first Label
	for run := 0; run < 20; run++ {
		e := NewEngine(bank)
		out := answerAll(t, e, picks...)
		require.True(t, out.Complete)
		if run == 0 {
			first = out.Persona
			continue
		}
		assert.Equal(t, first, out.Persona)
	}
}

func TestEngineBackRestoresInitialState(t *testing.T) {
	e := NewEngine(mustBank(t))
	initialTypes := e.TypeTally().Entries()

	answerAll(t, e, 3, 3, 3, 3, 2, 1, 0)
	require.True(t, e.Complete())

	for i := 0; i < 7; i++ {
		require.True(t, e.Back(), "back %d", i)
	}
	assert.False(t, e.Back())
	assert.Equal(t, StageOne, e.Stage())
	assert.Equal(t, 0, e.Index())
	assert.Equal(t, Type(""), e.Resolved())
	assert.Equal(t, initialTypes, e.TypeTally().Entries())
	assert.Equal(t, 0, e.PersonaTally().Len())
	assert.False(t, e.Complete())
}

func TestEngineBackCrossesStageBoundary(t *testing.T) {
	e := NewEngine(mustBank(t))
	answerAll(t, e, 1, 1, 1, 1)
	require.Equal(t, StageTwo, e.Stage())
	require.Equal(t, Type("B"), e.Resolved())

	require.True(t, e.Back())
	assert.Equal(t, StageOne, e.Stage())
	assert.Equal(t, 3, e.Index())
	assert.Equal(t, Type(""), e.Resolved())
	assert.Equal(t, 3, e.TypeTally().Count("B"))
	assert.Equal(t, 3, e.Depth())
}

func TestEngineBackFromCompleteClearsResult(t *testing.T) {
	e := NewEngine(mustBank(t))
	answerAll(t, e, 2, 2, 2, 2, 0, 0, 0)
	require.Equal(t, Label("streetwear"), e.Result())

	require.True(t, e.Back())
	assert.False(t, e.Complete())
	assert.Equal(t, StageTwo, e.Stage())
	assert.Equal(t, 2, e.Index())
	assert.Equal(t, 2, e.PersonaTally().Count("streetwear"))
}

func TestEngineIgnoresUnknownStageOneTags(t *testing.T) {
	e := NewEngine(mustBank(t))
	_, err := e.Answer(Option{Tags: []string{"Z", "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.TypeTally().Count("A"))
	assert.False(t, e.TypeTally().Has("Z"))
	assert.Equal(t, 1, e.Depth())
}

func TestEngineRejectsForeignStageTwoTags(t *testing.T) {
	e := NewEngine(mustBank(t))
	answerAll(t, e, 0, 0, 0, 0)
	depth := e.Depth()

	_, err := e.Answer(Option{Tags: []string{"dandy"}})
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.Equal(t, depth, e.Depth())
	assert.Equal(t, 0, e.PersonaTally().Len())
	assert.Equal(t, 0, e.Index())
}

func TestEngineMultiTagOption(t *testing.T) {
	e := NewEngine(mustBank(t))
	answerAll(t, e, 1, 1, 1, 1)
	// "Slim steel watch" votes for two personas at once.
	answerAll(t, e, 1, 3)
	_, err := e.AnswerIndex(1)
	require.NoError(t, err)
	assert.Equal(t, 2, e.PersonaTally().Count("city-minimal"))
	assert.Equal(t, 1, e.PersonaTally().Count("modern-formal"))
	assert.Equal(t, Label("city-minimal"), e.Result())
}

func TestEngineAfterComplete(t *testing.T) {
	e := NewEngine(mustBank(t))
	answerAll(t, e, 0, 0, 0, 0, 0, 0, 0)
	_, err := e.AnswerIndex(0)
	assert.ErrorIs(t, err, ErrComplete)
	_, ok := e.Current()
	assert.False(t, ok)
}

func TestEngineRejectsOutOfRangeOption(t *testing.T) {
	e := NewEngine(mustBank(t))
	_, err := e.AnswerIndex(9)
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Equal(t, 0, e.Depth())
}

func TestEngineProgressAndReset(t *testing.T) {
	e := NewEngine(mustBank(t))
	cur, total := e.Progress()
	assert.Equal(t, 1, cur)
	assert.Equal(t, 4, total)

	answerAll(t, e, 0, 0)
	e.Reset()
	assert.Equal(t, 0, e.Depth())
	assert.Equal(t, 0, e.TypeTally().Count("A"))
	assert.Equal(t, 4, e.TypeTally().Len())
}
