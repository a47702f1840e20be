package search

import (
	"log"

	"gonum.org/v1/gonum/mat"
)

// StepResult records what one decoding loop produced.
type StepResult struct {
	Steps     int
	Features  []Features
	Scores    []*mat.Dense
	Output    *BeamParserOutput
	Truncated bool
}

// Run drives batch through one decoding loop: reset, then score and
// advance every beam in lockstep while some beam is alive and fewer than
// maxSteps steps were taken. maxSteps <= 0 means no limit.
func Run(batch *BatchState, scorer Scorer, maxSteps int) *StepResult {
	result := &StepResult{}
	batch.ResetBeams()
	batch.ResetOffsets()
	features := batch.PopulateFeatureOutputs()
	for batch.AnyAlive() {
		if maxSteps > 0 && result.Steps >= maxSteps {
			result.Truncated = true
			break
		}
		scores := scorer.Score(features)
		result.Features = append(result.Features, features)
		result.Scores = append(result.Scores, scores)
		for i := 0; i < batch.BatchSize(); i++ {
			batch.AdvanceBeam(i, scores)
		}
		batch.UpdateOffsets()
		features = batch.PopulateFeatureOutputs()
		result.Steps++
	}
	result.Output = ExtractPaths(batch)
	return result
}

// Trainer runs training batches with the globally normalized path loss.
type Trainer struct {
	Batch    *BatchState
	Scorer   Scorer
	MaxSteps int
	Log      bool
}

// TrainBatch decodes one batch, assembles the loss and back-propagates the
// gradient of every step into the scorer.
func (t *Trainer) TrainBatch() *Loss {
	result := Run(t.Batch, t.Scorer, t.MaxSteps)
	rows := t.Batch.BatchSize() * t.Batch.Options.MaxBeamSize
	loss := AssembleLoss(result.Output, result.Steps, rows)
	for step, grad := range loss.Gradients {
		t.Scorer.Backward(result.Features[step], grad)
	}
	batchLoss.Set(loss.Value)
	if t.Log {
		log.Printf("Epoch %d: %d steps, %d paths, loss %.4f over %d beams", t.Batch.Epoch(), result.Steps, result.Output.NumPaths, loss.Value, loss.Beams)
	}
	return loss
}

// TrainEpoch trains batches until the sentence source wraps around and
// returns the mean batch loss.
func (t *Trainer) TrainEpoch() float64 {
	epoch := t.Batch.Epoch()
	var total float64
	var batches int
	for t.Batch.Epoch() == epoch {
		loss := t.TrainBatch()
		if loss.Beams > 0 {
			total += loss.Value
			batches++
		}
	}
	if batches == 0 {
		return 0
	}
	return total / float64(batches)
}

// Decoder parses with the beam until every resident is final and reports
// the best hypothesis of each beam. It always starts new sentences and
// keeps beams alive until all residents are final.
type Decoder struct {
	Batch    *BatchState
	Scorer   Scorer
	MaxSteps int
}

// DecodeBatch parses the next batch of sentences. It returns false once
// the source has wrapped around.
func (d *Decoder) DecodeBatch() ([]*BeamEvalOutput, bool) {
	d.Batch.Options.AlwaysStartNewSentences = true
	d.Batch.Options.ContinueUntilAllFinal = true
	epoch := d.Batch.Epoch()
	Run(d.Batch, d.Scorer, d.MaxSteps)
	if d.Batch.Epoch() != epoch {
		return nil, false
	}
	return EvalOutputs(d.Batch), true
}

// DecodeAll parses every sentence of the source once.
func (d *Decoder) DecodeAll(emit func(*BeamEvalOutput)) {
	for {
		outputs, more := d.DecodeBatch()
		if !more {
			return
		}
		for _, out := range outputs {
			emit(out)
		}
	}
}
