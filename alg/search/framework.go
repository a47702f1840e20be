package search

import (
	"github.com/lzswangjian/transition-notes/alg/featurevector"
	"github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"gonum.org/v1/gonum/mat"
)

var (
	// AllOut traces every beam insertion and eviction.
	AllOut bool = false
	// ShowOracle logs the oracle action of every gold advance.
	ShowOracle bool = false
)

// SentenceSource hands out sentences to the slots of a batch.
type SentenceSource interface {
	// AdvanceSentence loads the next sentence into slot, false at EOF.
	AdvanceSentence(slot int) bool
	Sentence(slot int) *nlp.Sentence
	// Size is the number of slots holding a sentence.
	Size() int
	Rewind()
}

// FeatureExtractor maps configurations to per-channel sparse feature ids.
type FeatureExtractor interface {
	RequestWorkspaces(registry *featurevector.WorkspaceRegistry)
	Preprocess(ws *featurevector.WorkspaceSet, c transition.Configuration)
	ExtractSparseFeatures(ws *featurevector.WorkspaceSet, c transition.Configuration) [][]featurevector.SparseFeatures

	NumEmbeddings() int
	FeatureSize(channel int) int
	EmbeddingSize(channel int) int
	EmbeddingDims(channel int) int
}

// Features holds the feature values of a step: for every channel, the
// features of each beam row concatenated in row order.
type Features [][]featurevector.SparseFeatures

// Rows returns the number of beam rows in f given the per-channel feature
// counts of the extractor.
func (f Features) Rows(extractor FeatureExtractor) int {
	if len(f) == 0 || extractor.FeatureSize(0) == 0 {
		return 0
	}
	return len(f[0]) / extractor.FeatureSize(0)
}

// Scorer turns the features of a step into an action score matrix with one
// row per beam row, and accepts the loss gradient of the same shape.
type Scorer interface {
	Score(features Features) *mat.Dense
	Backward(features Features, grad *mat.Dense)
}

// LabelMap is the read-only label vocabulary shared by every beam.
type LabelMap interface {
	LookupIndex(term string, unknown int) int
	GetTerm(index int) string
	Size() int
}

// StateFactory builds the initial configuration of a sentence.
type StateFactory func(sent *nlp.Sentence) transition.Configuration
