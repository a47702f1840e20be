package transition

import (
	"testing"

	. "github.com/lzswangjian/transition-notes/alg/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaggerOracle(t *testing.T) {
	tags := termMap("NN", "VB", "ADJ", "yyDOT")
	sys, err := NewSystem("tagger", tags)
	require.NoError(t, err)
	assert.Equal(t, 4, sys.NumActions(0))

	s := NewState(makeSentence(rawTestSent), sys.NewTransitionState(true), nil)
	var actions []Action
	for !sys.IsFinalState(s) {
		a := sys.NextGoldAction(s)
		require.True(t, sys.IsAllowedAction(a, s))
		PerformAction(sys, a, s)
		actions = append(actions, a)
	}
	assert.Len(t, actions, len(rawTestSent))
	assert.Equal(t, "SHIFT(NN)", sys.ActionAsString(actions[0], s))
	for i := range rawTestSent {
		assert.True(t, s.IsTokenCorrect(i))
	}
	assert.False(t, sys.IsAllowedAction(0, s))
	assert.Equal(t, Action(0), sys.NextGoldAction(s))

	out := s.Sentence().Copy()
	for _, tok := range out.Tokens {
		tok.Tag = ""
	}
	s.AddParseToSentence(out, false)
	assert.Equal(t, "VB", out.Tokens[2].Tag)
}

func TestTaggerUnknownGoldTagIsIllegal(t *testing.T) {
	sys, err := NewSystem("tagger", termMap("NN"))
	require.NoError(t, err)
	s := NewState(makeSentence(rawTestSent[2:3]), sys.NewTransitionState(true), nil)
	gold := sys.NextGoldAction(s)
	assert.Equal(t, NO_ACTION, gold)
	assert.False(t, sys.IsAllowedAction(gold, s))
}

func TestTaggerCloneKeepsTags(t *testing.T) {
	sys, _ := NewSystem("tagger", termMap("NN", "VB"))
	s := NewState(makeSentence(rawTestSent[:2]), sys.NewTransitionState(true), nil)
	PerformAction(sys, 1, s)
	c := s.Clone()
	PerformAction(sys, 0, c)
	assert.Equal(t, 1, taggerState(c).Tag(0))
	assert.Equal(t, -1, taggerState(s).Tag(1))
	assert.Equal(t, 0, taggerState(c).Tag(1))
}

func TestUnknownSystem(t *testing.T) {
	_, err := NewSystem("arc-eager-typo", nil)
	assert.Error(t, err)
	assert.Contains(t, Registered(), "arc-standard")
	assert.Contains(t, Registered(), "tagger")
}
