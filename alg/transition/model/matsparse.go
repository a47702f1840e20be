package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"log"

	"github.com/lzswangjian/transition-notes/alg/featurevector"
	"github.com/lzswangjian/transition-notes/alg/search"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&MatrixSparseSerialized{})
}

var AllOut bool = false

// Channel is the shape of one embedding channel: the number of features
// every beam row carries on it and the size of their id domain.
type Channel struct {
	Name     string
	Features int
	Domain   int
}

// MatrixSparse is a linear action scorer. Every (channel, feature position,
// feature id) owns a dense row of action weights, allocated on first
// update; the score of a beam row is the bias plus the weighted sum of the
// rows of its features.
type MatrixSparse struct {
	Channels     []Channel
	NumActions   int
	LearningRate float64
	Generation   int
	Log          bool

	Mat  []featurevector.Rows
	Bias []float64
}

var _ search.Scorer = &MatrixSparse{}

// NewMatrixSparse builds a zero model over the channels of extractor.
func NewMatrixSparse(extractor search.FeatureExtractor, numActions int, learningRate float64) *MatrixSparse {
	channels := make([]Channel, extractor.NumEmbeddings())
	for i := range channels {
		channels[i] = Channel{
			Name:     fmt.Sprintf("channel%d", i),
			Features: extractor.FeatureSize(i),
			Domain:   extractor.EmbeddingSize(i),
		}
	}
	return NewMatrixSparseChannels(channels, numActions, learningRate)
}

func NewMatrixSparseChannels(channels []Channel, numActions int, learningRate float64) *MatrixSparse {
	if numActions <= 0 {
		panic(fmt.Sprintf("Model needs at least one action, got %d", numActions))
	}
	t := &MatrixSparse{
		Channels:     channels,
		NumActions:   numActions,
		LearningRate: learningRate,
		Mat:          make([]featurevector.Rows, len(channels)),
		Bias:         make([]float64, numActions),
	}
	for i := range t.Mat {
		t.Mat[i] = make(featurevector.Rows)
	}
	return t
}

// key places a feature id of one feature position into the channel matrix.
func (t *MatrixSparse) key(channel, position int, id uint64) uint64 {
	return uint64(position)*uint64(t.Channels[channel].Domain) + id
}

// Rows is the number of beam rows in features.
func (t *MatrixSparse) Rows(features search.Features) int {
	if len(t.Channels) == 0 || len(features) == 0 || t.Channels[0].Features == 0 {
		return 0
	}
	return len(features[0]) / t.Channels[0].Features
}

func (t *MatrixSparse) checkChannels(features search.Features) {
	if len(features) != len(t.Channels) {
		panic(fmt.Sprintf("Model has %d channels, features have %d", len(t.Channels), len(features)))
	}
}

// Score returns a (rows, NumActions) matrix; it has a single zero row when
// features carry no rows.
func (t *MatrixSparse) Score(features search.Features) *mat.Dense {
	t.checkChannels(features)
	rows := t.Rows(features)
	if rows == 0 {
		return mat.NewDense(1, t.NumActions, nil)
	}
	scores := mat.NewDense(rows, t.NumActions, nil)
	for r := 0; r < rows; r++ {
		out := scores.RawRowView(r)
		copy(out, t.Bias)
		for c, channel := range t.Channels {
			for p := 0; p < channel.Features; p++ {
				feature := features[c][r*channel.Features+p]
				for k, id := range feature.ID {
					if weights := t.Mat[c].Row(t.key(c, p, id)); weights != nil {
						floats.AddScaled(out, feature.WeightOf(k), weights)
					}
				}
			}
		}
	}
	if t.Log {
		log.Printf("Scored %d rows", rows)
	}
	return scores
}

// Backward takes one SGD step against grad, whose first rows line up with
// the beam rows of features. Rows with an all zero gradient are skipped.
func (t *MatrixSparse) Backward(features search.Features, grad *mat.Dense) {
	t.checkChannels(features)
	rows := t.Rows(features)
	gradRows, cols := grad.Dims()
	if cols != t.NumActions {
		panic(fmt.Sprintf("Gradient has %d columns, model has %d actions", cols, t.NumActions))
	}
	if rows > gradRows {
		rows = gradRows
	}
	alpha := -t.LearningRate
	for r := 0; r < rows; r++ {
		delta := grad.RawRowView(r)
		if floats.Norm(delta, 1) == 0 {
			continue
		}
		floats.AddScaled(t.Bias, alpha, delta)
		for c, channel := range t.Channels {
			for p := 0; p < channel.Features; p++ {
				feature := features[c][r*channel.Features+p]
				for k, id := range feature.ID {
					t.Mat[c].UpdateAddScaled(t.key(c, p, id), alpha*feature.WeightOf(k), delta)
				}
			}
		}
	}
	t.Generation++
	if AllOut {
		log.Println("Model generation", t.Generation)
	}
}

// Len is the number of allocated weight rows.
func (t *MatrixSparse) Len() int {
	var retval int
	for _, m := range t.Mat {
		retval += len(m)
	}
	return retval
}

func (t *MatrixSparse) String() string {
	return fmt.Sprintf("MatrixSparse{channels: %d, actions: %d, rows: %d, generation: %d}", len(t.Channels), t.NumActions, t.Len(), t.Generation)
}

type MatrixSparseSerialized struct {
	Generation   int
	Channels     []Channel
	NumActions   int
	LearningRate float64
	Mat          []map[uint64][]float64
	Bias         []float64
}

func (t *MatrixSparse) Serialize() *MatrixSparseSerialized {
	serialized := &MatrixSparseSerialized{
		Generation:   t.Generation,
		Channels:     t.Channels,
		NumActions:   t.NumActions,
		LearningRate: t.LearningRate,
		Mat:          make([]map[uint64][]float64, len(t.Mat)),
		Bias:         append([]float64(nil), t.Bias...),
	}
	for i, m := range t.Mat {
		serialized.Mat[i] = m.Copy()
	}
	return serialized
}

func (t *MatrixSparse) Deserialize(serialized *MatrixSparseSerialized) {
	t.Generation = serialized.Generation
	t.Channels = serialized.Channels
	t.NumActions = serialized.NumActions
	t.LearningRate = serialized.LearningRate
	t.Bias = append([]float64(nil), serialized.Bias...)
	t.Mat = make([]featurevector.Rows, len(serialized.Mat))
	for i, m := range serialized.Mat {
		t.Mat[i] = featurevector.Rows(m)
		if t.Mat[i] == nil {
			t.Mat[i] = make(featurevector.Rows)
		}
	}
}

func (t *MatrixSparse) Write(writer io.Writer) error {
	return errors.Wrap(gob.NewEncoder(writer).Encode(t.Serialize()), "encoding model")
}

func (t *MatrixSparse) Read(reader io.Reader) error {
	serialized := &MatrixSparseSerialized{}
	if err := gob.NewDecoder(reader).Decode(serialized); err != nil {
		return errors.Wrap(err, "decoding model")
	}
	t.Deserialize(serialized)
	return nil
}
