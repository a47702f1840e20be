package transition

import (
	"fmt"
	"strings"

	. "github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
)

// Arc-standard action types. Actions are encoded as
//
//	SHIFT              0
//	LEFT_ARC(label)    1 + 2*label  (odd)
//	RIGHT_ARC(label)   2 + 2*label  (even, >= 2)
type ActionType int

const (
	SHIFT ActionType = iota
	LEFT_ARC
	RIGHT_ARC
)

func (t ActionType) String() string {
	switch t {
	case SHIFT:
		return "SHIFT"
	case LEFT_ARC:
		return "LEFT_ARC"
	case RIGHT_ARC:
		return "RIGHT_ARC"
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

func ShiftAction() Action {
	return Action(SHIFT)
}

// LeftArcAction returns NO_ACTION for negative labels.
func LeftArcAction(label int) Action {
	if label < 0 {
		return NO_ACTION
	}
	return Action(1 + (label << 1))
}

// RightArcAction returns NO_ACTION for negative labels.
func RightArcAction(label int) Action {
	if label < 0 {
		return NO_ACTION
	}
	return Action(1 + ((label << 1) | 1))
}

func ArcStandardActionType(a Action) ActionType {
	switch {
	case a < 1:
		return SHIFT
	case a&1 == 1:
		return LEFT_ARC
	default:
		return RIGHT_ARC
	}
}

// ActionLabel returns the label of an arc action, -1 for SHIFT.
func ActionLabel(a Action) int {
	if a < 1 {
		return -1
	}
	return int(a-1) >> 1
}

// ArcStandardState is the arc-standard transition state: the artificial
// root is pushed at initialization, nothing else is tracked.
type ArcStandardState struct{}

var _ TransitionState = &ArcStandardState{}
var _ ParseWriter = &ArcStandardState{}

func (t *ArcStandardState) Clone() TransitionState {
	return &ArcStandardState{}
}

func (t *ArcStandardState) Init(c Configuration) {
	AsState(c).Push(Root)
}

func (t *ArcStandardState) IsTokenCorrect(c Configuration, index int) bool {
	s := AsState(c)
	return s.GoldHead(Index(index)) == s.Head(Index(index))
}

func (t *ArcStandardState) AddParseToSentence(s *State, rewriteRootLabels bool, sent *nlp.Sentence) {
	for i := 0; i < s.NumTokens(); i++ {
		token := sent.Tokens[i]
		token.Label = nlp.DepRel(s.LabelAsString(s.Label(Index(i))))
		if head := s.Head(Index(i)); head != Root {
			token.Head = int(head)
		} else {
			token.Head = nlp.NO_HEAD
			if rewriteRootLabels {
				token.Label = nlp.DepRel(s.LabelAsString(s.RootLabel()))
			}
		}
	}
}

func (t *ArcStandardState) String(c Configuration) string {
	s := AsState(c)
	var parts []string
	for i := s.StackSize() - 1; i >= 0; i-- {
		index := s.Stack(i)
		if index == Root {
			parts = append(parts, nlp.ROOT_TOKEN)
		} else {
			parts = append(parts, s.Token(index).Word)
		}
	}
	parts = append(parts, "||")
	for i := s.next; i < s.NumTokens(); i++ {
		parts = append(parts, s.sentence.Tokens[i].Word)
	}
	return strings.Join(parts, " ")
}

// ArcStandard is the bottom-up shift-reduce system building arcs between
// the two topmost stack elements.
type ArcStandard struct{}

var _ System = &ArcStandard{}

func (a *ArcStandard) Name() string {
	return "arc-standard"
}

func (a *ArcStandard) NumActionTypes() int {
	return 3
}

func (a *ArcStandard) NumActions(numLabels int) int {
	return 1 + 2*numLabels
}

func (a *ArcStandard) DefaultAction(c Configuration) Action {
	s := AsState(c)
	if !s.EndOfInput() {
		return ShiftAction()
	}
	if action := RightArcAction(2); a.IsAllowedAction(action, s) {
		return action
	}
	return RightArcAction(0)
}

// NextGoldAction returns the oracle action: reduce a right dependent only
// once all of its own gold dependents have been attached.
func (a *ArcStandard) NextGoldAction(c Configuration) Action {
	s := AsState(c)
	if s.StackSize() < 2 {
		if s.EndOfInput() {
			panic("Oracle requested for a final configuration")
		}
		return ShiftAction()
	}
	s0, s1 := s.Stack(0), s.Stack(1)
	if s.GoldHead(s0) == s1 && DoneChildrenRightOf(s, s0) {
		return RightArcAction(s.GoldLabel(s0))
	}
	if s.GoldHead(s1) == s0 {
		return LeftArcAction(s.GoldLabel(s1))
	}
	return ShiftAction()
}

// DoneChildrenRightOf reports whether no unconsumed input token, the one
// under the cursor included, has head as its gold head.
func DoneChildrenRightOf(s *State, head Index) bool {
	for i := s.next; i < s.NumTokens(); i++ {
		if s.GoldHead(Index(i)) == head {
			return false
		}
	}
	return true
}

func (a *ArcStandard) IsAllowedAction(action Action, c Configuration) bool {
	s := AsState(c)
	if action < 0 || int(action) >= a.NumActions(s.NumLabels()) {
		return false
	}
	switch ArcStandardActionType(action) {
	case SHIFT:
		return !s.EndOfInput()
	case LEFT_ARC:
		return s.StackSize() >= 2 && s.Stack(1).IsToken()
	default:
		return s.StackSize() >= 2
	}
}

func (a *ArcStandard) PerformActionWithoutHistory(action Action, c Configuration) {
	s := AsState(c)
	label := ActionLabel(action)
	switch ArcStandardActionType(action) {
	case SHIFT:
		s.Push(s.Next())
		s.Advance()
	case LEFT_ARC:
		s0 := s.Pop()
		s1 := s.Pop()
		s.AddArc(s1, s0, label)
		s.Push(s0)
	case RIGHT_ARC:
		s0 := s.Pop()
		s.AddArc(s0, s.Top(), label)
	}
}

func (a *ArcStandard) IsFinalState(c Configuration) bool {
	s := AsState(c)
	return s.EndOfInput() && s.StackSize() < 2
}

func (a *ArcStandard) ActionAsString(action Action, c Configuration) string {
	s := AsState(c)
	switch t := ArcStandardActionType(action); t {
	case SHIFT:
		return t.String()
	default:
		return fmt.Sprintf("%v(%s)", t, s.LabelAsString(ActionLabel(action)))
	}
}

func (a *ArcStandard) NewTransitionState(training bool) TransitionState {
	return &ArcStandardState{}
}

func init() {
	Register("arc-standard", func() System { return &ArcStandard{} })
}
