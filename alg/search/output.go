package search

import (
	"fmt"
	"log"

	"github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
)

// BeamParserOutput indexes every resident path of every beam into the
// score matrices that produced it.
//
// Per history step (parallel slices): Indices into the concatenated
// flattened score matrices, PathIDs, and the Steps, Rows (within the
// step's own matrix) and Actions of the step. Per path: BeamIDs, SlotIDs
// and PathScores. Per beam: GoldSlot (-1 without a gold resident) and
// BeamStepSizes, the longest history among its residents.
type BeamParserOutput struct {
	Indices []int
	PathIDs []int
	Steps   []int
	Rows    []int
	Actions []int

	BeamIDs    []int
	SlotIDs    []int
	PathScores []float64

	GoldSlot      []int
	BeamStepSizes []int

	NumPaths   int
	NumActions int
}

// ExtractPaths walks the residents of every beam with a sentence in
// ascending order. It panics if a beam holds more than one gold resident.
func ExtractPaths(batch *BatchState) *BeamParserOutput {
	numActions := batch.NumActions()
	out := &BeamParserOutput{
		GoldSlot:      make([]int, batch.BatchSize()),
		BeamStepSizes: make([]int, batch.BatchSize()),
		NumActions:    numActions,
	}
	pathID := 0
	for beamID := 0; beamID < batch.BatchSize(); beamID++ {
		out.GoldSlot[beamID] = -1
		beam := batch.Beam(beamID)
		// end of corpus, the batch is not full
		if beam.Gold() == nil {
			continue
		}
		for slot, item := range beam.Slots() {
			out.BeamIDs = append(out.BeamIDs, beamID)
			out.SlotIDs = append(out.SlotIDs, slot)
			out.PathScores = append(out.PathScores, item.Key.Score)
			if item.Hyp.State.IsGold() {
				if out.GoldSlot[beamID] != -1 {
					panic(fmt.Sprintf("Beam %d has gold residents at slots %d and %d", beamID, out.GoldSlot[beamID], slot))
				}
				out.GoldSlot[beamID] = slot
			}
			hyp := item.Hyp
			for step := range hyp.SlotHistory {
				row := batch.StepRow(step, beamID) + hyp.SlotHistory[step]
				action := int(hyp.ActionHistory[step])
				out.Indices = append(out.Indices, numActions*(batch.GetOffset(step, beamID)+hyp.SlotHistory[step])+action)
				out.PathIDs = append(out.PathIDs, pathID)
				out.Steps = append(out.Steps, step)
				out.Rows = append(out.Rows, row)
				out.Actions = append(out.Actions, action)
			}
			if hyp.Steps() > out.BeamStepSizes[beamID] {
				out.BeamStepSizes[beamID] = hyp.Steps()
			}
			pathID++
		}
	}
	out.NumPaths = pathID
	return out
}

// BeamPaths returns the path ids of beamID's residents in slot order.
func (o *BeamParserOutput) BeamPaths(beamID int) []int {
	var paths []int
	for path, beam := range o.BeamIDs {
		if beam == beamID {
			paths = append(paths, path)
		}
	}
	return paths
}

// BeamEvalOutput is the best final hypothesis of a beam written onto a
// copy of its sentence.
type BeamEvalOutput struct {
	BeamID   int
	Sentence *nlp.Sentence
	Score    float64
	Correct  int
	Tokens   int
}

// sentenceState is implemented by configurations that can report their
// sentence and write their analysis.
type sentenceState interface {
	transition.Configuration
	Sentence() *nlp.Sentence
	NumTokens() int
	IsTokenCorrect(index int) bool
	AddParseToSentence(sent *nlp.Sentence, rewriteRootLabels bool)
}

// completeState finishes a copy of c with the default action of sys.
func completeState(sys transition.System, c transition.Configuration) transition.Configuration {
	c = c.Copy()
	for !sys.IsFinalState(c) {
		action := sys.DefaultAction(c)
		if !sys.IsAllowedAction(action, c) {
			panic(fmt.Sprintf("Default action %s not allowed in %v", sys.ActionAsString(action, c), c))
		}
		transition.PerformAction(sys, action, c)
	}
	return c
}

// EvalOutputs annotates the top resident of every beam that has a
// sentence. A top resident cut short by the step budget is finished with
// default actions first.
func EvalOutputs(batch *BatchState) []*BeamEvalOutput {
	var outputs []*BeamEvalOutput
	for beamID := 0; beamID < batch.BatchSize(); beamID++ {
		beam := batch.Beam(beamID)
		if beam.Gold() == nil {
			continue
		}
		best := beam.Best()
		if best == nil {
			continue
		}
		state := best.Hyp.State
		if !beam.System.IsFinalState(state) {
			log.Printf("Beam %d: completing unfinished hypothesis after %d steps", beamID, best.Hyp.Steps())
			state = completeState(beam.System, state)
		}
		s, ok := state.(sentenceState)
		if !ok {
			panic(fmt.Sprintf("Configuration %T can't be written to a sentence", best.Hyp.State))
		}
		out := &BeamEvalOutput{
			BeamID:   beamID,
			Sentence: s.Sentence().Copy(),
			Score:    best.Key.Score,
			Tokens:   s.NumTokens(),
		}
		s.AddParseToSentence(out.Sentence, true)
		for i := 0; i < s.NumTokens(); i++ {
			if s.IsTokenCorrect(i) {
				out.Correct++
			}
		}
		outputs = append(outputs, out)
	}
	return outputs
}
