package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateNavigation(t *testing.T) {
	sent := treeSentence(2, 2, -1, 2, 2)
	s := NewState(sent, nil, termMap("dep", "ROOT"))
	assert.Equal(t, 1, s.RootLabel())
	s.AddArc(0, 2, 0)
	s.AddArc(1, 2, 0)
	s.AddArc(3, 2, 0)
	s.AddArc(4, 2, 0)

	assert.Equal(t, Index(0), s.LeftmostChild(2, 1))
	assert.Equal(t, None, s.LeftmostChild(2, 2))
	assert.Equal(t, Index(4), s.RightmostChild(2, 1))
	assert.Equal(t, None, s.RightmostChild(4, 1))
	assert.Equal(t, Index(0), s.LeftSibling(1, 1))
	assert.Equal(t, None, s.LeftSibling(0, 1))
	assert.Equal(t, Index(4), s.RightSibling(3, 1))
	assert.Equal(t, Index(3), s.RightSibling(1, 1))
	assert.Equal(t, None, s.RightSibling(4, 1))
	assert.Equal(t, Index(2), s.Parent(0, 1))
	assert.Equal(t, Root, s.Parent(0, 2))
	assert.Equal(t, Root, s.Parent(0, 3))

	// the root tolerates every walk
	assert.Equal(t, None, s.LeftmostChild(Root, 1))
	assert.Equal(t, Index(2), s.RightmostChild(Root, 1))
	assert.Equal(t, None, s.LeftSibling(Root, 1))
	assert.Equal(t, None, s.RightSibling(Root, 1))
	assert.Equal(t, Root, s.Head(Root))
	assert.Equal(t, s.RootLabel(), s.Label(Root))

	// None propagates
	assert.Equal(t, None, s.Parent(None, 1))
	assert.Equal(t, None, s.LeftmostChild(None, 1))
}

func TestStateInputAndStack(t *testing.T) {
	s := NewState(treeSentence(-1, 0), nil, termMap("dep", "ROOT"))
	assert.Equal(t, Root, s.Input(-1))
	assert.Equal(t, Index(1), s.Input(1))
	assert.Equal(t, None, s.Input(2))
	assert.Equal(t, None, s.Input(-2))
	assert.Equal(t, None, s.Stack(0))
	assert.Equal(t, None, s.Stack(-1))
	assert.True(t, s.StackEmpty())
	assert.Panics(t, func() { s.Pop() })

	s.Push(Root)
	s.Push(s.Next())
	s.Advance()
	s.Advance()
	assert.True(t, s.EndOfInput())
	assert.Panics(t, func() { s.Advance() })
	assert.Equal(t, Index(0), s.Top())
	assert.Equal(t, Root, s.Stack(1))
	assert.Equal(t, None, s.Stack(2))
}

func TestStateCloneIsDeep(t *testing.T) {
	sys, s := newArcStandardState(treeSentence(-1, 0), termMap("dep", "ROOT"))
	s.SetGold(true)
	c := s.Clone()
	sys.PerformActionWithoutHistory(ShiftAction(), c)
	sys.PerformActionWithoutHistory(ShiftAction(), c)
	sys.PerformActionWithoutHistory(RightArcAction(0), c)

	assert.True(t, c.IsGold())
	assert.Equal(t, 1, s.StackSize())
	assert.Equal(t, Index(0), s.Next())
	assert.Equal(t, Root, s.Head(1))
	assert.Equal(t, Index(0), c.Head(1))
}

func TestGoldLabelUnknownFallsBackToRoot(t *testing.T) {
	sent := treeSentence(-1, 0)
	sent.Tokens[1].Label = "unseen"
	s := NewState(sent, nil, termMap("dep", "ROOT"))
	assert.Equal(t, s.RootLabel(), s.GoldLabel(1))
	assert.Equal(t, "ROOT", s.LabelAsString(s.GoldLabel(1)))
	assert.Equal(t, "dep", s.LabelAsString(0))
	assert.Equal(t, "", s.LabelAsString(7))
}
