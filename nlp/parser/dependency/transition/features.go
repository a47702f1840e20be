package transition

import (
	"fmt"
	"strconv"
	"strings"

	. "github.com/lzswangjian/transition-notes/alg/featurevector"
	. "github.com/lzswangjian/transition-notes/alg/transition"
	"github.com/lzswangjian/transition-notes/nlp/lexicon"
	"github.com/lzswangjian/transition-notes/util"
	"github.com/pkg/errors"
)

// ChannelSpec configures one embedding channel: a group of feature
// templates sharing a value domain and an embedding width.
type ChannelSpec struct {
	Name     string `yaml:"name"`
	Features string `yaml:"features"`
	Dim      int    `yaml:"dim"`
}

// ParseChannelSpecs reads "name=feat feat...:dim;name=..." as used on
// the command line. The ":dim" suffix is optional.
func ParseChannelSpecs(s string) ([]ChannelSpec, error) {
	var specs []ChannelSpec
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nameFeats := strings.SplitN(part, "=", 2)
		if len(nameFeats) != 2 {
			return nil, errors.Errorf("channel %q: expected name=features", part)
		}
		spec := ChannelSpec{Name: strings.TrimSpace(nameFeats[0]), Features: nameFeats[1], Dim: 1}
		if i := strings.LastIndex(spec.Features, ":"); i >= 0 {
			dim, err := strconv.Atoi(strings.TrimSpace(spec.Features[i+1:]))
			if err != nil {
				return nil, errors.Wrapf(err, "channel %s: bad dim", spec.Name)
			}
			spec.Dim = dim
			spec.Features = spec.Features[:i]
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

type focusOp int

const (
	opInput focusOp = iota
	opStack
	opHead
	opChild
	opSibling
)

type valueKind int

const (
	valWord valueKind = iota
	valLCWord
	valTag
	valCategory
	valLabel
	valDigit
	valHyphen
)

var valueNames = map[string]valueKind{
	"word":     valWord,
	"lcword":   valLCWord,
	"tag":      valTag,
	"category": valCategory,
	"label":    valLabel,
	"digit":    valDigit,
	"hyphen":   valHyphen,
}

// Digit categories.
const (
	NO_DIGIT = iota
	SOME_DIGIT
	ALL_DIGIT
	DIGIT_CARDINALITY
)

// Hyphen categories.
const (
	NO_HYPHEN = iota
	HAS_HYPHEN
	HYPHEN_CARDINALITY
)

type focusStep struct {
	op  focusOp
	arg int
}

// FeatureFunction locates a token of a configuration and maps it to a
// value id. For a value vocabulary of size V ids are: 0..V-1 known values,
// V unknown, V+1 outside the sentence, V+2 the root.
type FeatureFunction struct {
	Spec  string
	steps []focusStep
	value valueKind
	terms LabelMap
	base  int
	wsIdx int
}

func parseCall(part string) (string, int, bool, error) {
	open := strings.IndexByte(part, '(')
	if open < 0 {
		return part, 0, false, nil
	}
	if !strings.HasSuffix(part, ")") {
		return "", 0, false, errors.Errorf("unbalanced parenthesis in %q", part)
	}
	arg, err := strconv.Atoi(part[open+1 : len(part)-1])
	if err != nil {
		return "", 0, false, errors.Wrapf(err, "argument of %q", part)
	}
	return part[:open], arg, true, nil
}

// ParseFeature parses a template such as "stack(1).child(-1).label".
// A "token" component is accepted and ignored.
func ParseFeature(spec string) (*FeatureFunction, error) {
	f := &FeatureFunction{Spec: spec, wsIdx: -1}
	parts := strings.Split(spec, ".")
	if len(parts) < 2 {
		return nil, errors.Errorf("feature %q: expected locator.value", spec)
	}
	for i, part := range parts[:len(parts)-1] {
		name, arg, hasArg, err := parseCall(part)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %q", spec)
		}
		var step focusStep
		switch name {
		case "input":
			step = focusStep{opInput, arg}
		case "stack":
			step = focusStep{opStack, arg}
		case "head", "child", "sibling":
			if !hasArg {
				arg = 1
			}
			switch name {
			case "head":
				step = focusStep{opHead, arg}
			case "child":
				step = focusStep{opChild, arg}
			default:
				step = focusStep{opSibling, arg}
			}
		case "token":
			continue
		default:
			return nil, errors.Errorf("feature %q: unknown function %q", spec, name)
		}
		if (step.op == opInput || step.op == opStack) != (i == 0) {
			return nil, errors.Errorf("feature %q: %q must come first and only first", spec, name)
		}
		f.steps = append(f.steps, step)
	}
	if len(f.steps) == 0 {
		return nil, errors.Errorf("feature %q: missing input or stack locator", spec)
	}
	value, exists := valueNames[parts[len(parts)-1]]
	if !exists {
		return nil, errors.Errorf("feature %q: unknown value %q", spec, parts[len(parts)-1])
	}
	f.value = value
	return f, nil
}

// Focus returns the token addressed by the locator chain.
func (f *FeatureFunction) Focus(s *State) Index {
	focus := None
	for _, step := range f.steps {
		if step.op != opInput && step.op != opStack && (focus < Root || int(focus) >= s.NumTokens()) {
			return None
		}
		switch step.op {
		case opInput:
			focus = s.Input(step.arg)
		case opStack:
			focus = s.Stack(step.arg)
		case opHead:
			focus = s.Parent(focus, step.arg)
		case opChild:
			if step.arg < 0 {
				focus = s.LeftmostChild(focus, -step.arg)
			} else {
				focus = s.RightmostChild(focus, step.arg)
			}
		case opSibling:
			if step.arg < 0 {
				focus = s.LeftSibling(focus, -step.arg)
			} else {
				focus = s.RightSibling(focus, step.arg)
			}
		}
	}
	return focus
}

func (f *FeatureFunction) Unknown() int { return f.base }
func (f *FeatureFunction) Outside() int { return f.base + 1 }
func (f *FeatureFunction) RootID() int  { return f.base + 2 }

// DomainSize is the number of distinct ids the function produces.
func (f *FeatureFunction) DomainSize() int { return f.base + 3 }

func (f *FeatureFunction) workspaceName() string {
	for name, kind := range valueNames {
		if kind == f.value {
			return name
		}
	}
	return ""
}

func digitCategory(word string) int {
	if !util.HasDigit(word) {
		return NO_DIGIT
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return SOME_DIGIT
		}
	}
	return ALL_DIGIT
}

func hyphenCategory(word string) int {
	if strings.ContainsRune(word, '-') {
		return HAS_HYPHEN
	}
	return NO_HYPHEN
}

func (f *FeatureFunction) tokenValue(s *State, i int) int {
	token := s.Sentence().Tokens[i]
	switch f.value {
	case valWord:
		return f.terms.LookupIndex(util.NormalizeDigits(token.Word), f.Unknown())
	case valLCWord:
		return f.terms.LookupIndex(strings.ToLower(util.NormalizeDigits(token.Word)), f.Unknown())
	case valTag:
		return f.terms.LookupIndex(token.Tag, f.Unknown())
	case valCategory:
		return f.terms.LookupIndex(token.Category, f.Unknown())
	case valDigit:
		return digitCategory(token.Word)
	case valHyphen:
		return hyphenCategory(token.Word)
	}
	panic(fmt.Sprintf("No token value for %s", f.Spec))
}

// Compute returns the value id of the feature for s.
func (f *FeatureFunction) Compute(ws *WorkspaceSet, s *State) int {
	focus := f.Focus(s)
	switch {
	case focus == Root:
		return f.RootID()
	case !focus.IsToken() || int(focus) >= s.NumTokens():
		return f.Outside()
	}
	if f.value == valLabel {
		label := s.Label(focus)
		if label < 0 {
			return f.RootID()
		}
		return label
	}
	if ws != nil && f.wsIdx >= 0 && ws.Has(f.wsIdx) {
		return ws.Get(f.wsIdx)[focus]
	}
	return f.tokenValue(s, int(focus))
}

// Channel is a group of features sharing an embedding matrix.
type Channel struct {
	Name     string
	Dim      int
	Features []*FeatureFunction
}

func (c *Channel) DomainSize() int {
	size := 0
	for _, f := range c.Features {
		size = util.Max(size, f.DomainSize())
	}
	return size
}

// EmbeddingFeatureExtractor extracts one sparse id per feature per channel.
type EmbeddingFeatureExtractor struct {
	Channels []*Channel
	lex      *lexicon.Lexicon
}

func NewEmbeddingFeatureExtractor(specs []ChannelSpec, lex *lexicon.Lexicon) (*EmbeddingFeatureExtractor, error) {
	e := &EmbeddingFeatureExtractor{lex: lex}
	for _, spec := range specs {
		ch := &Channel{Name: spec.Name, Dim: spec.Dim}
		for _, featSpec := range strings.Fields(spec.Features) {
			f, err := ParseFeature(featSpec)
			if err != nil {
				return nil, errors.Wrapf(err, "channel %s", spec.Name)
			}
			if err := e.bind(f); err != nil {
				return nil, errors.Wrapf(err, "channel %s", spec.Name)
			}
			ch.Features = append(ch.Features, f)
		}
		if len(ch.Features) == 0 {
			return nil, errors.Errorf("channel %s has no features", spec.Name)
		}
		e.Channels = append(e.Channels, ch)
	}
	return e, nil
}

func (e *EmbeddingFeatureExtractor) bind(f *FeatureFunction) error {
	switch f.value {
	case valDigit:
		f.base = DIGIT_CARDINALITY
		return nil
	case valHyphen:
		f.base = HYPHEN_CARDINALITY
		return nil
	}
	if e.lex == nil {
		return errors.Errorf("feature %s: no lexicon", f.Spec)
	}
	var m *lexicon.TermFrequencyMap
	switch f.value {
	case valWord:
		m = e.lex.Words
	case valLCWord:
		m = e.lex.LCWords
	case valTag:
		m = e.lex.Tags
	case valCategory:
		m = e.lex.Categories
	case valLabel:
		m = e.lex.Labels
	}
	if m == nil {
		return errors.Errorf("feature %s: term map not loaded", f.Spec)
	}
	f.terms = m
	f.base = m.Size()
	return nil
}

// RequestWorkspaces registers the per-sentence value caches.
func (e *EmbeddingFeatureExtractor) RequestWorkspaces(registry *WorkspaceRegistry) {
	for _, ch := range e.Channels {
		for _, f := range ch.Features {
			if f.value != valLabel {
				f.wsIdx = registry.Request(f.workspaceName())
			}
		}
	}
}

// Preprocess fills the per-sentence value caches of c's sentence.
func (e *EmbeddingFeatureExtractor) Preprocess(ws *WorkspaceSet, c Configuration) {
	s := AsState(c)
	for _, ch := range e.Channels {
		for _, f := range ch.Features {
			if f.wsIdx < 0 || ws.Has(f.wsIdx) {
				continue
			}
			values := NewVectorIntWorkspace(s.NumTokens(), f.Unknown())
			for i := range values {
				values[i] = f.tokenValue(s, i)
			}
			ws.Set(f.wsIdx, values)
		}
	}
}

func (e *EmbeddingFeatureExtractor) ExtractSparseFeatures(ws *WorkspaceSet, c Configuration) [][]SparseFeatures {
	s := AsState(c)
	retval := make([][]SparseFeatures, len(e.Channels))
	for i, ch := range e.Channels {
		retval[i] = make([]SparseFeatures, len(ch.Features))
		for j, f := range ch.Features {
			retval[i][j] = Single(uint64(f.Compute(ws, s)))
		}
	}
	return retval
}

func (e *EmbeddingFeatureExtractor) NumEmbeddings() int {
	return len(e.Channels)
}

func (e *EmbeddingFeatureExtractor) FeatureSize(channel int) int {
	return len(e.Channels[channel].Features)
}

func (e *EmbeddingFeatureExtractor) EmbeddingSize(channel int) int {
	return e.Channels[channel].DomainSize()
}

func (e *EmbeddingFeatureExtractor) EmbeddingDims(channel int) int {
	return e.Channels[channel].Dim
}

func (e *EmbeddingFeatureExtractor) ChannelName(channel int) string {
	return e.Channels[channel].Name
}
