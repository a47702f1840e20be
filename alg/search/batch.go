package search

import (
	"fmt"
	"log"

	"github.com/lzswangjian/transition-notes/alg/featurevector"
	"github.com/lzswangjian/transition-notes/alg/transition"
	"github.com/lzswangjian/transition-notes/util"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type BatchStateOptions struct {
	// Maximum number of hypotheses in a beam.
	MaxBeamSize int `yaml:"max_beam_size"`
	// Number of sentences decoded in parallel.
	BatchSize int `yaml:"batch_size"`

	CorpusName string `yaml:"corpus_name"`

	// Keep weights of sparse features; otherwise every id weighs 1.
	AllowFeatureWeights bool `yaml:"allow_feature_weights"`
	// Keep beams alive until every resident is final instead of stopping
	// when the gold path falls off.
	ContinueUntilAllFinal bool `yaml:"continue_until_all_final"`
	// Move to a new sentence on every ResetBeams.
	AlwaysStartNewSentences bool `yaml:"always_start_new_sentences"`
}

func (o *BatchStateOptions) Validate() error {
	if o.MaxBeamSize <= 0 {
		return errors.Errorf("max beam size must be positive, got %d", o.MaxBeamSize)
	}
	if o.BatchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", o.BatchSize)
	}
	return nil
}

// Environment holds the collaborators a batch is built from.
type Environment struct {
	Sentences SentenceSource
	System    transition.System
	Features  FeatureExtractor

	// LabelMapName keys the label map in util.Shared; LoadLabels builds it
	// on first use.
	LabelMapName string
	LoadLabels   func() (LabelMap, error)

	// NewState returns the state factory for the acquired label map.
	NewState func(labels LabelMap) StateFactory
}

// BatchState drives one beam per batch slot in lockstep and keeps the row
// offsets of every step, mapping (step, slot) to rows of the concatenated
// score matrices.
type BatchState struct {
	Options BatchStateOptions

	epoch      int
	sentences  SentenceSource
	system     transition.System
	labels     LabelMap
	features   FeatureExtractor
	workspaces []featurevector.WorkspaceSet
	registry   *featurevector.WorkspaceRegistry

	beams       []*BeamState
	beamOffsets [][]int
	stepOffsets []int
}

// NewBatchState panics on a non-positive beam or batch size.
func NewBatchState(options BatchStateOptions) *BatchState {
	if err := options.Validate(); err != nil {
		panic(err.Error())
	}
	return &BatchState{Options: options}
}

// Init acquires the shared label map and wires one beam per slot to the
// collaborators of env.
func (b *BatchState) Init(env *Environment) error {
	if env.Sentences == nil || env.System == nil || env.Features == nil || env.NewState == nil {
		return errors.New("batch environment is missing sentences, system, features or state factory")
	}
	b.sentences = env.Sentences
	b.system = env.System
	b.features = env.Features
	if env.LoadLabels != nil {
		obj, err := util.Shared.Get(env.LabelMapName, func() (interface{}, error) {
			return env.LoadLabels()
		})
		if err != nil {
			return errors.Wrapf(err, "loading label map %s", env.LabelMapName)
		}
		b.labels = obj.(LabelMap)
	}
	newState := env.NewState(b.labels)

	b.registry = featurevector.NewWorkspaceRegistry()
	b.features.RequestWorkspaces(b.registry)
	b.workspaces = make([]featurevector.WorkspaceSet, b.Options.BatchSize)
	b.beams = make([]*BeamState, b.Options.BatchSize)
	for i := range b.beams {
		b.beams[i] = &BeamState{
			Options:   &b.Options,
			BeamID:    i,
			Sentences: b.sentences,
			System:    b.system,
			NewState:  newState,
			Features:  b.features,
			Workspace: &b.workspaces[i],
			Registry:  b.registry,
			status:    DEAD,
		}
	}
	return nil
}

// Release returns the shared label map.
func (b *BatchState) Release() {
	if b.labels != nil {
		util.Shared.Release(b.labels)
		b.labels = nil
	}
}

// ResetBeams resets every beam. When no slot got a sentence the corpus is
// exhausted: the epoch advances and the source is rewound.
func (b *BatchState) ResetBeams() {
	for _, beam := range b.beams {
		beam.Reset()
	}
	if b.sentences.Size() == 0 {
		b.epoch++
		epochs.Inc()
		log.Println("Epoch", b.epoch, "done, rewinding", b.Options.CorpusName)
		b.sentences.Rewind()
	}
}

func (b *BatchState) ResetOffsets() {
	b.beamOffsets = b.beamOffsets[:0]
	b.stepOffsets = []int{0}
	b.UpdateOffsets()
}

// UpdateOffsets appends the row offsets of the current step. DEAD beams
// contribute no rows; DYING beams still emit their residents.
func (b *BatchState) UpdateOffsets() {
	offsets := make([]int, b.BatchSize()+1)
	for i, beam := range b.beams {
		size := 0
		if !beam.IsDead() {
			size = beam.BeamSize()
		}
		offsets[i+1] = offsets[i] + size
	}
	b.beamOffsets = append(b.beamOffsets, offsets)
	b.stepOffsets = append(b.stepOffsets, b.stepOffsets[len(b.stepOffsets)-1]+offsets[len(offsets)-1])
}

// AdvanceBeam advances beam i with its rows of the current step's scores.
func (b *BatchState) AdvanceBeam(i int, scores *mat.Dense) {
	offsets := b.beamOffsets[len(b.beamOffsets)-1]
	from, to := offsets[i], offsets[i+1]
	if from == to {
		b.beams[i].Advance(nil)
		return
	}
	_, cols := scores.Dims()
	if cols != b.NumActions() {
		panic(fmt.Sprintf("Score matrix has %d columns, expected %d actions", cols, b.NumActions()))
	}
	b.beams[i].Advance(scores.Slice(from, to, 0, cols).(*mat.Dense))
}

// GetOffset is the row of beam i's first resident at step in the
// concatenation of all steps' score matrices.
func (b *BatchState) GetOffset(step, i int) int {
	return b.stepOffsets[step] + b.beamOffsets[step][i]
}

// StepRow is the row of beam i's first resident within step's own matrix.
func (b *BatchState) StepRow(step, i int) int {
	return b.beamOffsets[step][i]
}

// Steps is the number of offset tables recorded since ResetOffsets.
func (b *BatchState) Steps() int {
	return len(b.beamOffsets)
}

// PopulateFeatureOutputs collects the features of every resident of every
// beam that is not DEAD, in offset order.
func (b *BatchState) PopulateFeatureOutputs() Features {
	features := make(Features, b.FeatureSize())
	for _, beam := range b.beams {
		if !beam.IsDead() {
			features = beam.PopulateFeatureOutputs(features)
		}
	}
	if !b.Options.AllowFeatureWeights {
		for _, channel := range features {
			for i := range channel {
				channel[i].Weight = nil
			}
		}
	}
	return features
}

func (b *BatchState) FeatureSize() int {
	if b.features == nil {
		return 0
	}
	return b.features.NumEmbeddings()
}

func (b *BatchState) NumActions() int {
	numLabels := 0
	if b.labels != nil {
		numLabels = b.labels.Size()
	}
	return b.system.NumActions(numLabels)
}

func (b *BatchState) BatchSize() int {
	return b.Options.BatchSize
}

func (b *BatchState) Epoch() int {
	return b.epoch
}

func (b *BatchState) Beam(i int) *BeamState {
	return b.beams[i]
}

func (b *BatchState) System() transition.System {
	return b.system
}

func (b *BatchState) Labels() LabelMap {
	return b.labels
}

// AnyAlive reports whether some beam still expands.
func (b *BatchState) AnyAlive() bool {
	for _, beam := range b.beams {
		if beam.IsAlive() {
			return true
		}
	}
	return false
}
