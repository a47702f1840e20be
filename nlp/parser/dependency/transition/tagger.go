package transition

import (
	"fmt"
	"strings"

	. "github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
)

// TaggerState records the tag assigned to every shifted token next to the
// gold tag ids.
type TaggerState struct {
	tagMap  LabelMap
	tag     []int
	goldTag []int
}

var _ TransitionState = &TaggerState{}
var _ ParseWriter = &TaggerState{}

func (t *TaggerState) Clone() TransitionState {
	newState := &TaggerState{
		tagMap:  t.tagMap,
		tag:     make([]int, len(t.tag)),
		goldTag: t.goldTag,
	}
	copy(newState.tag, t.tag)
	return newState
}

func (t *TaggerState) Init(c Configuration) {
	s := AsState(c)
	n := s.NumTokens()
	t.tag = make([]int, n)
	t.goldTag = make([]int, n)
	for i, token := range s.Sentence().Tokens {
		t.tag[i] = -1
		t.goldTag[i] = t.tagMap.LookupIndex(token.Tag, -1)
	}
}

func (t *TaggerState) Tag(index int) int {
	if index < 0 {
		return -1
	}
	return t.tag[index]
}

func (t *TaggerState) SetTag(index, tag int) {
	t.tag[index] = tag
}

func (t *TaggerState) GoldTag(index int) int {
	if index < 0 {
		return -1
	}
	return t.goldTag[index]
}

func (t *TaggerState) TagAsString(tag int) string {
	if tag >= 0 && tag < t.tagMap.Size() {
		return t.tagMap.GetTerm(tag)
	}
	return ""
}

func (t *TaggerState) IsTokenCorrect(c Configuration, index int) bool {
	return t.GoldTag(index) == t.Tag(index)
}

func (t *TaggerState) AddParseToSentence(s *State, rewriteRootLabels bool, sent *nlp.Sentence) {
	for i, token := range sent.Tokens {
		if tag := t.Tag(i); tag >= 0 {
			token.Tag = t.TagAsString(tag)
		}
	}
}

func (t *TaggerState) String(c Configuration) string {
	s := AsState(c)
	parts := make([]string, 0, s.NumTokens())
	for i := s.StackSize() - 1; i >= 0; i-- {
		index := int(s.Stack(i))
		parts = append(parts, fmt.Sprintf("%s[%s]", s.Sentence().Tokens[index].Word, t.TagAsString(t.Tag(index))))
	}
	for i := int(s.Next()); i < s.NumTokens(); i++ {
		parts = append(parts, s.Sentence().Tokens[i].Word)
	}
	return strings.Join(parts, " ")
}

// Tagger assigns one tag per token, left to right. Action ids are tag ids
// of Tags.
type Tagger struct {
	Tags LabelMap
}

var _ System = &Tagger{}

func (t *Tagger) Name() string {
	return "tagger"
}

func (t *Tagger) tags() LabelMap {
	if t.Tags == nil {
		panic("Tagger used without a tag map")
	}
	return t.Tags
}

func (t *Tagger) NumActionTypes() int {
	return 1
}

func (t *Tagger) NumActions(numLabels int) int {
	return t.tags().Size()
}

func (t *Tagger) DefaultAction(c Configuration) Action {
	return 0
}

func (t *Tagger) NextGoldAction(c Configuration) Action {
	s := AsState(c)
	if s.EndOfInput() {
		return 0
	}
	return Action(taggerState(s).GoldTag(int(s.Next())))
}

func (t *Tagger) IsAllowedAction(action Action, c Configuration) bool {
	if action < 0 || int(action) >= t.tags().Size() {
		return false
	}
	return !AsState(c).EndOfInput()
}

func (t *Tagger) PerformActionWithoutHistory(action Action, c Configuration) {
	s := AsState(c)
	if s.EndOfInput() {
		return
	}
	taggerState(s).SetTag(int(s.Next()), int(action))
	s.Push(s.Next())
	s.Advance()
}

func (t *Tagger) IsFinalState(c Configuration) bool {
	return AsState(c).EndOfInput()
}

func (t *Tagger) ActionAsString(action Action, c Configuration) string {
	return "SHIFT(" + t.tags().GetTerm(int(action)) + ")"
}

func (t *Tagger) NewTransitionState(training bool) TransitionState {
	return &TaggerState{tagMap: t.tags()}
}

func taggerState(s *State) *TaggerState {
	ts, ok := s.TransitionState().(*TaggerState)
	if !ok {
		panic(fmt.Sprintf("Got wrong transition state type %T", s.TransitionState()))
	}
	return ts
}

func init() {
	Register("tagger", func() System { return &Tagger{} })
}
