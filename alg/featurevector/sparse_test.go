package featurevector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparseFeaturesWeights(t *testing.T) {
	f := Single(3)
	assert.Nil(t, f.Weight)
	assert.Equal(t, 1.0, f.WeightOf(0))
	f.Add(4, 1)
	assert.Nil(t, f.Weight)
	f.Add(5, 0.5)
	assert.Equal(t, []float32{1, 1, 0.5}, f.Weight)
	assert.Equal(t, "{3:1,4:1,5:0.5}", f.String())
}

func TestRowsUpdate(t *testing.T) {
	r := make(Rows)
	assert.Nil(t, r.Row(1))
	r.UpdateAddScaled(1, -0.5, []float64{2, 4})
	r.UpdateAddScaled(1, 1, []float64{1, 1})
	assert.Equal(t, []float64{0, -1}, r.Row(1))
	c := r.Copy()
	c.UpdateAddScaled(1, 1, []float64{1, 1})
	assert.Equal(t, []float64{0, -1}, r.Row(1))
}

func TestWorkspaces(t *testing.T) {
	reg := NewWorkspaceRegistry()
	words := reg.Request("words")
	tags := reg.Request("tags")
	assert.Equal(t, words, reg.Request("words"))
	assert.Equal(t, 2, reg.Size())

	var set WorkspaceSet
	set.Reset(reg)
	assert.False(t, set.Has(tags))
	set.Set(tags, NewVectorIntWorkspace(2, -1))
	assert.Equal(t, VectorIntWorkspace{-1, -1}, set.Get(tags))
	assert.Panics(t, func() { set.Get(words) })
}
