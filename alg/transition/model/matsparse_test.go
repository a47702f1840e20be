package model

import (
	"bytes"
	"testing"

	"github.com/lzswangjian/transition-notes/alg/featurevector"
	"github.com/lzswangjian/transition-notes/alg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func singleChannel(ids ...uint64) search.Features {
	features := search.Features{make([]featurevector.SparseFeatures, len(ids))}
	for i, id := range ids {
		features[0][i] = featurevector.Single(id)
	}
	return features
}

func TestScoreZeroModel(t *testing.T) {
	m := NewMatrixSparseChannels([]Channel{{Name: "words", Features: 1, Domain: 10}}, 3, 0.1)
	scores := m.Score(singleChannel(1, 2))
	r, c := scores.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, mat.Sum(scores))

	empty := m.Score(search.Features{nil})
	r, _ = empty.Dims()
	assert.Equal(t, 1, r)
}

func TestBackwardMovesAgainstGradient(t *testing.T) {
	m := NewMatrixSparseChannels([]Channel{{Name: "words", Features: 1, Domain: 10}}, 2, 0.5)
	features := singleChannel(3, 4)
	grad := mat.NewDense(4, 2, nil)
	grad.SetRow(0, []float64{1, -1})
	m.Backward(features, grad)

	assert.Equal(t, 1, m.Generation)
	assert.Equal(t, 1, m.Len(), "zero gradient rows allocate nothing")
	assert.Equal(t, []float64{-0.5, 0.5}, m.Bias)
	assert.Equal(t, []float64{-0.5, 0.5}, m.Mat[0].Row(3))

	scores := m.Score(features)
	assert.Equal(t, []float64{-1, 1}, scores.RawRowView(0))
	assert.Equal(t, []float64{-0.5, 0.5}, scores.RawRowView(1))

	weighted := search.Features{{featurevector.SparseFeatures{ID: []uint64{3}, Weight: []float32{2}}}}
	assert.Equal(t, []float64{-1.5, 1.5}, m.Score(weighted).RawRowView(0))
}

func TestFeaturePositionsDoNotShareWeights(t *testing.T) {
	m := NewMatrixSparseChannels([]Channel{{Name: "words", Features: 2, Domain: 10}}, 1, 1)
	grad := mat.NewDense(1, 1, []float64{1})
	m.Backward(singleChannel(3, 3), grad)
	assert.Equal(t, []float64{-1}, m.Mat[0].Row(3))
	assert.Equal(t, []float64{-1}, m.Mat[0].Row(13))
	assert.Equal(t, 2, m.Len())
}

func TestChannelMismatchPanics(t *testing.T) {
	m := NewMatrixSparseChannels([]Channel{{Features: 1, Domain: 4}, {Features: 1, Domain: 4}}, 2, 1)
	assert.Panics(t, func() { m.Score(singleChannel(1)) })
	assert.Panics(t, func() {
		m.Backward(search.Features{nil, nil}, mat.NewDense(1, 3, nil))
	})
	assert.Panics(t, func() { NewMatrixSparseChannels(nil, 0, 1) })
}

func TestWriteRead(t *testing.T) {
	m := NewMatrixSparseChannels([]Channel{{Name: "words", Features: 1, Domain: 10}}, 2, 0.5)
	grad := mat.NewDense(1, 2, []float64{1, 0})
	m.Backward(singleChannel(7), grad)

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	loaded := &MatrixSparse{}
	require.NoError(t, loaded.Read(&buf))
	assert.Equal(t, m.Channels, loaded.Channels)
	assert.Equal(t, m.Generation, loaded.Generation)
	assert.Equal(t, m.Score(singleChannel(7)), loaded.Score(singleChannel(7)))

	assert.Error(t, loaded.Read(bytes.NewBufferString("garbage")))
}
