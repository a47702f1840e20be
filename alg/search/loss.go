package search

import (
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Loss is the path-level cross entropy of a batch and its gradient with
// respect to the score matrix of every step.
type Loss struct {
	// Value is the mean cross entropy over beams with a gold resident.
	Value float64
	// Beams is the number of beams that contributed.
	Beams int
	// Gradients[step] has shape (BatchSize*MaxBeamSize, NumActions).
	Gradients []*mat.Dense
	// PathGradients holds softmax - onehot(gold) for every path.
	PathGradients []float64
}

// Softmax returns the normalized exponentials of energies.
func Softmax(energies []float64) []float64 {
	probs := make([]float64, len(energies))
	if len(energies) == 0 {
		return probs
	}
	logZ := floats.LogSumExp(energies)
	for i, e := range energies {
		probs[i] = math.Exp(e - logZ)
	}
	return probs
}

// AssembleLoss computes, for every beam with a gold resident, the softmax
// over its path scores and the gradient softmax - onehot(gold), and adds
// each path's gradient to every (step, row, action) its history touched.
func AssembleLoss(out *BeamParserOutput, steps, rows int) *Loss {
	loss := &Loss{
		Gradients:     make([]*mat.Dense, steps),
		PathGradients: make([]float64, out.NumPaths),
	}
	for step := range loss.Gradients {
		loss.Gradients[step] = mat.NewDense(rows, out.NumActions, nil)
	}

	var total float64
	for beamID, goldSlot := range out.GoldSlot {
		paths := out.BeamPaths(beamID)
		if len(paths) == 0 {
			continue
		}
		if goldSlot < 0 {
			log.Printf("Beam %d has no gold path among %d residents, skipped", beamID, len(paths))
			goldlessBeams.Inc()
			continue
		}
		energies := make([]float64, len(paths))
		for i, path := range paths {
			energies[i] = out.PathScores[path]
		}
		probs := Softmax(energies)
		for i, path := range paths {
			loss.PathGradients[path] = probs[i]
			if out.SlotIDs[path] == goldSlot {
				loss.PathGradients[path] -= 1
				total -= math.Log(probs[i])
			}
		}
		loss.Beams++
	}

	for i, path := range out.PathIDs {
		grad := loss.PathGradients[path]
		if grad == 0 {
			continue
		}
		m := loss.Gradients[out.Steps[i]]
		m.Set(out.Rows[i], out.Actions[i], m.At(out.Rows[i], out.Actions[i])+grad)
	}
	if loss.Beams > 0 {
		loss.Value = total / float64(loss.Beams)
	}
	return loss
}
