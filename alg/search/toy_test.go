package search

import (
	"fmt"
	"testing"

	"github.com/lzswangjian/transition-notes/alg/featurevector"
	"github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// toyConf walks one step per token; the gold action of step i is the Head
// field of token i.
type toyConf struct {
	sent  *nlp.Sentence
	pos   int
	gold  bool
	taken []transition.Action
}

func (c *toyConf) Copy() transition.Configuration {
	copied := *c
	copied.taken = append([]transition.Action(nil), c.taken...)
	return &copied
}

func (c *toyConf) IsGold() bool { return c.gold }
func (c *toyConf) SetGold(gold bool) { c.gold = gold }
func (c *toyConf) String() string { return fmt.Sprintf("%v@%d", c.taken, c.pos) }

type toySystem struct {
	actions   int
	forbidden map[transition.Action]bool
}

var _ transition.System = &toySystem{}

func (s *toySystem) Name() string { return "toy" }
func (s *toySystem) NumActionTypes() int { return 1 }
func (s *toySystem) NumActions(int) int { return s.actions }
func (s *toySystem) DefaultAction(transition.Configuration) transition.Action {
	return 0
}

func (s *toySystem) NextGoldAction(c transition.Configuration) transition.Action {
	conf := c.(*toyConf)
	return transition.Action(conf.sent.Tokens[conf.pos].Head)
}

func (s *toySystem) IsAllowedAction(a transition.Action, c transition.Configuration) bool {
	conf := c.(*toyConf)
	return a >= 0 && int(a) < s.actions && conf.pos < len(conf.sent.Tokens) && !s.forbidden[a]
}

func (s *toySystem) PerformActionWithoutHistory(a transition.Action, c transition.Configuration) {
	conf := c.(*toyConf)
	conf.taken = append(conf.taken, a)
	conf.pos++
}

func (s *toySystem) IsFinalState(c transition.Configuration) bool {
	conf := c.(*toyConf)
	return conf.pos == len(conf.sent.Tokens)
}

func (s *toySystem) ActionAsString(a transition.Action, c transition.Configuration) string {
	return fmt.Sprintf("A%d", a)
}

func (s *toySystem) NewTransitionState(bool) transition.TransitionState {
	return nil
}

func toyState(sent *nlp.Sentence) transition.Configuration {
	return &toyConf{sent: sent}
}

// toySentence builds a sentence whose gold actions are actions.
func toySentence(actions ...int) *nlp.Sentence {
	tokens := make([]*nlp.Token, len(actions))
	for i, a := range actions {
		tokens[i] = &nlp.Token{Word: fmt.Sprintf("w%d", i), Head: a}
	}
	return nlp.NewSentence(tokens...)
}

// countingExtractor emits one feature per configuration on one channel.
type countingExtractor struct {
	extracted    int
	preprocessed int
}

func (e *countingExtractor) RequestWorkspaces(r *featurevector.WorkspaceRegistry) {
	r.Request("count")
}

func (e *countingExtractor) Preprocess(ws *featurevector.WorkspaceSet, c transition.Configuration) {
	e.preprocessed++
}

func (e *countingExtractor) ExtractSparseFeatures(ws *featurevector.WorkspaceSet, c transition.Configuration) [][]featurevector.SparseFeatures {
	e.extracted++
	return [][]featurevector.SparseFeatures{{featurevector.Single(uint64(e.extracted))}}
}

func (e *countingExtractor) NumEmbeddings() int { return 1 }
func (e *countingExtractor) FeatureSize(int) int { return 1 }
func (e *countingExtractor) EmbeddingSize(int) int { return 1 << 20 }
func (e *countingExtractor) EmbeddingDims(int) int { return 1 }

// slotSource gives every slot its own list of sentences.
type slotSource struct {
	corpora [][]*nlp.Sentence
	next    []int
	current []*nlp.Sentence
}

func newSlotSource(corpora ...[]*nlp.Sentence) *slotSource {
	return &slotSource{
		corpora: corpora,
		next:    make([]int, len(corpora)),
		current: make([]*nlp.Sentence, len(corpora)),
	}
}

func (s *slotSource) AdvanceSentence(slot int) bool {
	if slot >= len(s.corpora) || s.next[slot] >= len(s.corpora[slot]) {
		if slot < len(s.current) {
			s.current[slot] = nil
		}
		return false
	}
	s.current[slot] = s.corpora[slot][s.next[slot]]
	s.next[slot]++
	return true
}

func (s *slotSource) Sentence(slot int) *nlp.Sentence { return s.current[slot] }

func (s *slotSource) Size() int {
	size := 0
	for _, sent := range s.current {
		if sent != nil {
			size++
		}
	}
	return size
}

func (s *slotSource) Rewind() {
	for i := range s.next {
		s.next[i] = 0
	}
}

// zeroScorer scores every action 0 and records gradients.
type zeroScorer struct {
	extractor FeatureExtractor
	actions   int
	backward  []*mat.Dense
}

func (z *zeroScorer) Score(f Features) *mat.Dense {
	rows := f.Rows(z.extractor)
	if rows == 0 {
		rows = 1
	}
	return mat.NewDense(rows, z.actions, nil)
}

func (z *zeroScorer) Backward(f Features, grad *mat.Dense) {
	z.backward = append(z.backward, grad)
}

func newToyBatch(t *testing.T, options BatchStateOptions, sys transition.System, ext FeatureExtractor, source SentenceSource) *BatchState {
	batch := NewBatchState(options)
	require.NoError(t, batch.Init(&Environment{
		Sentences: source,
		System:    sys,
		Features:  ext,
		NewState:  func(LabelMap) StateFactory { return toyState },
	}))
	return batch
}

// scoreRows builds a score matrix from rows.
func scoreRows(rows ...[]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

func residents(b *BeamState) []string {
	var retval []string
	for _, item := range b.Slots() {
		conf := item.Hyp.State.(*toyConf)
		retval = append(retval, fmt.Sprintf("%v:%g:%v", conf.taken, item.Key.Score, conf.gold))
	}
	return retval
}
