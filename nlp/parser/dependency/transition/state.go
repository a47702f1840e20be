package transition

import (
	"fmt"

	"github.com/lzswangjian/transition-notes/alg"
	. "github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
)

// Index addresses a token of the sentence. Besides token indices (>= 0) it
// has two distinguished values: Root, the artificial root preceding the
// sentence, and None, meaning the addressed position does not exist.
type Index int

const (
	Root Index = -1
	None Index = -2
)

func (i Index) IsRoot() bool  { return i == Root }
func (i Index) IsNone() bool  { return i == None }
func (i Index) IsToken() bool { return i >= 0 }

func (i Index) String() string {
	switch {
	case i == Root:
		return "ROOT"
	case i == None:
		return "NONE"
	default:
		return fmt.Sprintf("%d", int(i))
	}
}

// LabelMap is a read-only term <-> id mapping.
type LabelMap interface {
	LookupIndex(term string, unknown int) int
	GetTerm(index int) string
	Size() int
}

// ParseWriter is implemented by transition states that can copy the
// predicted analysis into a sentence.
type ParseWriter interface {
	AddParseToSentence(s *State, rewriteRootLabels bool, sent *nlp.Sentence)
}

// State is a parser configuration over one sentence: a stack of token
// indices, an input cursor and the partial tree built so far.
type State struct {
	sentence  *nlp.Sentence
	numTokens int
	labels    LabelMap
	rootLabel int

	stack *alg.StackArray
	next  int
	head  []int
	label []int

	transState TransitionState
	gold       bool
}

var _ Configuration = &State{}

// NewState returns the initial configuration of sent. transState may be nil.
func NewState(sent *nlp.Sentence, transState TransitionState, labels LabelMap) *State {
	n := len(sent.Tokens)
	s := &State{
		sentence:   sent,
		numTokens:  n,
		labels:     labels,
		rootLabel:  -1,
		stack:      alg.NewStackArray(n + 1),
		head:       make([]int, n),
		label:      make([]int, n),
		transState: transState,
	}
	if labels != nil {
		s.rootLabel = labels.LookupIndex(nlp.ROOT_LABEL, -1)
	}
	for i := range s.head {
		s.head[i] = int(Root)
		s.label[i] = s.rootLabel
	}
	if transState != nil {
		transState.Init(s)
	}
	return s
}

func (s *State) Copy() Configuration {
	return s.Clone()
}

// Clone returns a deep copy; the sentence and label map are shared.
func (s *State) Clone() *State {
	newState := &State{
		sentence:  s.sentence,
		numTokens: s.numTokens,
		labels:    s.labels,
		rootLabel: s.rootLabel,
		stack:     s.stack.CopyArray(),
		next:      s.next,
		head:      make([]int, len(s.head)),
		label:     make([]int, len(s.label)),
		gold:      s.gold,
	}
	copy(newState.head, s.head)
	copy(newState.label, s.label)
	if s.transState != nil {
		newState.transState = s.transState.Clone()
	}
	return newState
}

func (s *State) IsGold() bool     { return s.gold }
func (s *State) SetGold(gold bool) { s.gold = gold }

func (s *State) Sentence() *nlp.Sentence { return s.sentence }
func (s *State) NumTokens() int          { return s.numTokens }
func (s *State) Labels() LabelMap        { return s.labels }
func (s *State) RootLabel() int          { return s.rootLabel }

func (s *State) TransitionState() TransitionState { return s.transState }

func (s *State) NumLabels() int {
	if s.labels == nil {
		return 0
	}
	return s.labels.Size()
}

func (s *State) Token(i Index) *nlp.Token {
	s.checkIndex(i)
	if !i.IsToken() {
		return nil
	}
	return s.sentence.Tokens[i]
}

func (s *State) Next() Index {
	return Index(s.next)
}

// Input returns the index of the token offset positions from the cursor,
// or None if that falls outside [-1, NumTokens).
func (s *State) Input(offset int) Index {
	index := s.next + offset
	if index >= -1 && index < s.numTokens {
		return Index(index)
	}
	return None
}

func (s *State) Advance() {
	if s.next >= s.numTokens {
		panic(fmt.Sprintf("Can't advance past end of input (%d tokens)", s.numTokens))
	}
	s.next++
}

func (s *State) EndOfInput() bool {
	return s.next == s.numTokens
}

func (s *State) Push(index Index) {
	if s.stack.Size() > s.numTokens {
		panic(fmt.Sprintf("Stack overflow pushing %v: %v", index, s.stack.Array))
	}
	s.stack.Push(int(index))
}

func (s *State) Pop() Index {
	val, exists := s.stack.Pop()
	if !exists {
		panic("Can't pop, stack is empty")
	}
	return Index(val)
}

func (s *State) Top() Index {
	val, exists := s.stack.Peek()
	if !exists {
		panic("Can't peek, stack is empty")
	}
	return Index(val)
}

// Stack returns the element at depth position (0 is the top), or None.
func (s *State) Stack(position int) Index {
	val, exists := s.stack.Index(position)
	if !exists {
		return None
	}
	return Index(val)
}

func (s *State) StackSize() int   { return s.stack.Size() }
func (s *State) StackEmpty() bool { return s.stack.Size() == 0 }

func (s *State) checkIndex(index Index) {
	if index < Root || int(index) >= s.numTokens {
		panic(fmt.Sprintf("Index %v out of range [-1, %d)", index, s.numTokens))
	}
}

// Head returns the current head of index; Root for the root itself and for
// tokens not attached yet.
func (s *State) Head(index Index) Index {
	s.checkIndex(index)
	if index == Root {
		return Root
	}
	return Index(s.head[index])
}

func (s *State) Label(index Index) int {
	s.checkIndex(index)
	if index == Root {
		return s.rootLabel
	}
	return s.label[index]
}

// AddArc attaches index to head with label. It is the only mutator of the
// partial tree.
func (s *State) AddArc(index, head Index, label int) {
	if !index.IsToken() || int(index) >= s.numTokens {
		panic(fmt.Sprintf("Can't add arc to %v", index))
	}
	s.head[index] = int(head)
	s.label[index] = label
}

// Parent returns the n-th ancestor of index in the partial tree.
func (s *State) Parent(index Index, n int) Index {
	if index.IsNone() {
		return None
	}
	s.checkIndex(index)
	for ; n > 0; n-- {
		index = s.Head(index)
	}
	return index
}

// LeftmostChild follows the leftmost child n times.
func (s *State) LeftmostChild(index Index, n int) Index {
	if index.IsNone() {
		return None
	}
	s.checkIndex(index)
	for ; n > 0; n-- {
		i := Root
		for ; i < index; i++ {
			if s.Head(i) == index {
				break
			}
		}
		if i == index {
			return None
		}
		index = i
	}
	return index
}

// RightmostChild follows the rightmost child n times.
func (s *State) RightmostChild(index Index, n int) Index {
	if index.IsNone() {
		return None
	}
	s.checkIndex(index)
	for ; n > 0; n-- {
		i := Index(s.numTokens - 1)
		for ; i > index; i-- {
			if s.Head(i) == index {
				break
			}
		}
		if i == index {
			return None
		}
		index = i
	}
	return index
}

// LeftSibling returns the n-th token to the left of index sharing its head.
func (s *State) LeftSibling(index Index, n int) Index {
	if index.IsNone() {
		return None
	}
	s.checkIndex(index)
	if index == Root && n > 0 {
		return None
	}
	i := index
	for n > 0 {
		i--
		if i == Root {
			return None
		}
		if s.Head(i) == s.Head(index) {
			n--
		}
	}
	return i
}

// RightSibling returns the n-th token to the right of index sharing its head.
func (s *State) RightSibling(index Index, n int) Index {
	if index.IsNone() {
		return None
	}
	s.checkIndex(index)
	if index == Root && n > 0 {
		return None
	}
	i := index
	for n > 0 {
		i++
		if int(i) == s.numTokens {
			return None
		}
		if s.Head(i) == s.Head(index) {
			n--
		}
	}
	return i
}

// GoldHead returns the annotated head of index.
func (s *State) GoldHead(index Index) Index {
	s.checkIndex(index)
	if index == Root {
		return Root
	}
	head := s.sentence.Tokens[index].Head
	if head < 0 {
		return Root
	}
	return Index(head)
}

// GoldLabel returns the label id of the annotated arc of index; labels
// missing from the label map fall back to the root label.
func (s *State) GoldLabel(index Index) int {
	s.checkIndex(index)
	if index == Root || s.labels == nil {
		return s.rootLabel
	}
	return s.labels.LookupIndex(string(s.sentence.Tokens[index].Label), s.rootLabel)
}

func (s *State) LabelAsString(label int) string {
	if label == s.rootLabel {
		return nlp.ROOT_LABEL
	}
	if s.labels != nil && label >= 0 && label < s.labels.Size() {
		return s.labels.GetTerm(label)
	}
	return ""
}

func (s *State) IsTokenCorrect(index int) bool {
	if s.transState == nil {
		return s.GoldHead(Index(index)) == s.Head(Index(index))
	}
	return s.transState.IsTokenCorrect(s, index)
}

// AddParseToSentence writes the predicted analysis into sent, which must
// be a copy of the state's sentence.
func (s *State) AddParseToSentence(sent *nlp.Sentence, rewriteRootLabels bool) {
	if writer, ok := s.transState.(ParseWriter); ok {
		writer.AddParseToSentence(s, rewriteRootLabels, sent)
	}
}

func (s *State) String() string {
	if s.transState == nil {
		return fmt.Sprintf("stack=%v next=%d", s.stack.Array, s.next)
	}
	return s.transState.String(s)
}

// AsState asserts that c is a *State.
func AsState(c Configuration) *State {
	s, ok := c.(*State)
	if !ok {
		panic(fmt.Sprintf("Got wrong configuration type %T", c))
	}
	return s
}
