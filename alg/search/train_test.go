package search

import (
	"math"
	"testing"

	"github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainBatch(t *testing.T) {
	ext := &countingExtractor{}
	source := newSlotSource(
		[]*nlp.Sentence{toySentence(0, 1)},
		[]*nlp.Sentence{toySentence(1, 1, 0)},
	)
	batch := newToyBatch(t, BatchStateOptions{MaxBeamSize: 2, BatchSize: 2, AlwaysStartNewSentences: true},
		&toySystem{actions: 2}, ext, source)
	scorer := &zeroScorer{extractor: ext, actions: 2}
	trainer := &Trainer{Batch: batch, Scorer: scorer}

	loss := trainer.TrainBatch()
	assert.Equal(t, 2, loss.Beams)
	assert.InDelta(t, math.Ln2, loss.Value, 1e-9)
	require.Len(t, scorer.backward, 3)
	for _, grad := range scorer.backward {
		rows, cols := grad.Dims()
		assert.Equal(t, 4, rows)
		assert.Equal(t, 2, cols)
	}
	assert.InDelta(t, 0, scorer.backward[0].At(0, 0), 1e-9)
	assert.InDelta(t, -0.5, scorer.backward[1].At(0, 1), 1e-9)
	assert.InDelta(t, 0.5, scorer.backward[1].At(0, 0), 1e-9)
	assert.InDelta(t, 0, scorer.backward[1].At(2, 1), 1e-9)
	// beam 0 is dead at step 2, so beam 1 starts at row 0
	assert.InDelta(t, -0.5, scorer.backward[2].At(0, 0), 1e-9)
	assert.InDelta(t, 0.5, scorer.backward[2].At(0, 1), 1e-9)
}

func TestTrainEpoch(t *testing.T) {
	ext := &countingExtractor{}
	batch := newToyBatch(t, BatchStateOptions{MaxBeamSize: 2, BatchSize: 2, AlwaysStartNewSentences: true},
		&toySystem{actions: 2}, ext, newSlotSource(
			[]*nlp.Sentence{toySentence(0, 1)},
			[]*nlp.Sentence{toySentence(1, 1, 0)},
		))
	trainer := &Trainer{Batch: batch, Scorer: &zeroScorer{extractor: ext, actions: 2}}
	assert.InDelta(t, math.Ln2, trainer.TrainEpoch(), 1e-9)
	assert.Equal(t, 1, batch.Epoch())
}

func TestRunStepBudget(t *testing.T) {
	ext := &countingExtractor{}
	batch := newToyBatch(t, BatchStateOptions{MaxBeamSize: 2, BatchSize: 1}, &toySystem{actions: 2}, ext,
		newSlotSource([]*nlp.Sentence{toySentence(0, 0, 0, 0)}))
	result := Run(batch, &zeroScorer{extractor: ext, actions: 2}, 2)
	assert.True(t, result.Truncated)
	assert.Equal(t, 2, result.Steps)
	assert.True(t, batch.Beam(0).IsAlive())
	assert.Equal(t, []int{0}, result.Output.GoldSlot, "gold resident at the bottom")
	assert.Equal(t, []int{2}, result.Output.BeamStepSizes)

	loss := AssembleLoss(result.Output, result.Steps, 2)
	assert.Equal(t, 1, loss.Beams, "truncated paths still train")
}

func TestDecoder(t *testing.T) {
	sents := []*nlp.Sentence{
		leftBranching(),
		nlp.NewSentence(&nlp.Token{Word: "x", Head: -1, Label: nlp.ROOT_LABEL}),
		nlp.NewSentence(
			&nlp.Token{Word: "p", Head: -1, Label: nlp.ROOT_LABEL},
			&nlp.Token{Word: "q", Head: 0, Label: "dep"},
		),
	}
	batch, _ := newArcStandardBatch(t, "decoder-labels", BatchStateOptions{MaxBeamSize: 2, BatchSize: 2}, sents...)
	defer batch.Release()
	decoder := &Decoder{Batch: batch, Scorer: &zeroScorer{extractor: &countingExtractor{}, actions: batch.NumActions()}}

	var outputs []*BeamEvalOutput
	decoder.DecodeAll(func(out *BeamEvalOutput) { outputs = append(outputs, out) })
	require.Len(t, outputs, 3)
	lengths := []int{}
	for _, out := range outputs {
		lengths = append(lengths, out.Tokens)
		assert.LessOrEqual(t, out.Correct, out.Tokens)
		for _, token := range out.Sentence.Tokens {
			assert.True(t, token.Head >= -1 && token.Head < out.Tokens)
		}
	}
	assert.ElementsMatch(t, []int{3, 1, 2}, lengths)
	assert.Equal(t, 1, sents[0].Tokens[0].Head, "input sentences are not modified")
	assert.Equal(t, 1, batch.Epoch())
}

func TestDecoderCompletesTruncatedBeams(t *testing.T) {
	batch, _ := newArcStandardBatch(t, "decoder-budget-labels", BatchStateOptions{MaxBeamSize: 2, BatchSize: 1}, leftBranching())
	defer batch.Release()
	decoder := &Decoder{Batch: batch, Scorer: &zeroScorer{extractor: &countingExtractor{}, actions: batch.NumActions()}, MaxSteps: 3}

	var outputs []*BeamEvalOutput
	decoder.DecodeAll(func(out *BeamEvalOutput) { outputs = append(outputs, out) })
	require.Len(t, outputs, 1, "a sentence cut short still gets a parse")
	out := outputs[0]
	assert.Equal(t, 3, out.Tokens)
	require.Len(t, out.Sentence.Tokens, 3)
	roots := 0
	for _, token := range out.Sentence.Tokens {
		assert.True(t, token.Head >= -1 && token.Head < 3)
		if token.Head == -1 {
			roots++
		}
	}
	assert.GreaterOrEqual(t, roots, 1)
	assert.Equal(t, 1, batch.Epoch())
}

func TestCompleteStateCopies(t *testing.T) {
	c := toyState(toySentence(1, 1, 0))
	done := completeState(&toySystem{actions: 2}, c)
	assert.Equal(t, 3, done.(*toyConf).pos)
	assert.Equal(t, []transition.Action{0, 0, 0}, done.(*toyConf).taken)
	assert.Equal(t, 0, c.(*toyConf).pos)
}
