package app

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lzswangjian/transition-notes/alg/search"
	"github.com/lzswangjian/transition-notes/alg/transition/model"
	"github.com/lzswangjian/transition-notes/eval"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
	"github.com/lzswangjian/transition-notes/nlp/lexicon"
	dep "github.com/lzswangjian/transition-notes/nlp/parser/dependency/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/lzswangjian/transition-notes/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainText = `1	John	_	NNP	NNP	_	2	nsubj	_	_
2	saw	_	VBD	VBD	_	0	ROOT	_	_
3	Mary	_	NNP	NNP	_	2	dobj	_	_

1	Hi	_	UH	UH	_	0	ROOT	_	_

1	Mary	_	NNP	NNP	_	2	nsubj	_	_
2	left	_	VBD	VBD	_	0	ROOT	_	_
`

const testConfig = `
transition_system: arc-standard
batch:
  max_beam_size: 4
  batch_size: 2
learning_rate: 0.5
epochs: 2
features: "words=input.word input(1).word stack.word stack(1).word;tags=input.tag stack.tag stack(1).tag:8"
channels:
  - name: labels
    features: stack.child(-1).label stack(1).child(1).label
    dim: 4
`

func trainingSetup(t *testing.T) ([]*nlp.Sentence, *Pipeline) {
	sents, err := conll.Read(strings.NewReader(trainText), "train")
	require.NoError(t, err)
	dir := t.TempDir()
	lex := lexicon.NewLexicon()
	for _, sent := range sents {
		lex.Add(sent)
	}
	require.NoError(t, lex.Save(dir))

	conf, err := ReadConfig([]byte(testConfig))
	require.NoError(t, err)
	p, err := NewPipeline(conf, dir)
	require.NoError(t, err)
	return sents, p
}

func TestReadConfig(t *testing.T) {
	conf, err := ReadConfig([]byte(testConfig))
	require.NoError(t, err)
	assert.Equal(t, "arc-standard", conf.System)
	assert.Equal(t, 4, conf.Batch.MaxBeamSize)
	assert.Equal(t, 2, conf.Batch.BatchSize)
	assert.Equal(t, "training-corpus", conf.Batch.CorpusName)
	require.Len(t, conf.Channels, 3)
	assert.Equal(t, dep.ChannelSpec{Name: "labels", Features: "stack.child(-1).label stack(1).child(1).label", Dim: 4}, conf.Channels[0])
	assert.Equal(t, "words", conf.Channels[1].Name)
	assert.Equal(t, 8, conf.Channels[2].Dim)

	data, err := conf.Marshal()
	require.NoError(t, err)
	again, err := ReadConfig(data)
	require.NoError(t, err)
	assert.Equal(t, conf, again)
}

func TestReadConfigErrors(t *testing.T) {
	_, err := ReadConfig([]byte("transition_system: arc-standard\n"))
	assert.Error(t, err, "no channels")
	_, err = ReadConfig([]byte("features: \"w=input.word\"\nbatch:\n  max_beam_size: 0\n"))
	assert.Error(t, err, "beam size")
	_, err = ReadConfig([]byte("features: [1, 2"))
	assert.Error(t, err)
}

func TestOracleSequence(t *testing.T) {
	sents, p := trainingSetup(t)
	actions, err := OracleSequence(p.System, p.Lexicon.Labels, sents[0])
	require.NoError(t, err)
	assert.Equal(t, "SHIFT SHIFT LEFT_ARC(nsubj) SHIFT RIGHT_ARC(dobj) RIGHT_ARC(ROOT)", strings.Join(actions, " "))

	unknown := sents[1].Copy()
	unknown.Tokens[0].Label = "vocative"
	actions, err = OracleSequence(p.System, p.Lexicon.Labels, unknown)
	require.NoError(t, err)
	assert.Equal(t, []string{"SHIFT", "RIGHT_ARC(ROOT)"}, actions)
}

func TestTrainDecodeEval(t *testing.T) {
	sents, p := trainingSetup(t)
	corpus := &conll.MemoryCorpus{Label: "train", Sentences: sents}

	var epochs []int
	m, err := TrainModel(p, corpus, corpus, 2, func(epoch int, _ *model.MatrixSparse) {
		epochs = append(epochs, epoch)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, epochs)
	assert.Greater(t, m.Generation, 0)
	assert.Greater(t, m.Len(), 0)
	assert.Equal(t, 0, util.Shared.Refs(p.LabelMapFile()), "batches release the label map")

	parsed, err := Decode(p, m, corpus)
	require.NoError(t, err)
	require.Len(t, parsed, len(sents))
	for i, sent := range parsed {
		assert.Equal(t, sents[i].Words(), sent.Words())
		assert.NotSame(t, sents[i], sent)
	}
	scores := eval.NewParse(false)
	require.NoError(t, scores.AddCorpus(parsed, sents))
	assert.Equal(t, 6, scores.UAS.All())

	file := filepath.Join(t.TempDir(), "model")
	require.NoError(t, SavePipeline(file, p, m))
	loaded, loadedModel, err := LoadPipeline(file, "")
	require.NoError(t, err)
	assert.Equal(t, p.Config, loaded.Config)
	assert.Equal(t, m.Bias, loadedModel.Bias)

	reparsed, err := Decode(loaded, loadedModel, corpus)
	require.NoError(t, err)
	assert.Equal(t, parsed, reparsed)

	out := filepath.Join(t.TempDir(), "parsed.conll")
	require.NoError(t, conll.WriteFile(out, parsed))
	gold := filepath.Join(t.TempDir(), "gold.conll")
	require.NoError(t, conll.WriteFile(gold, sents))
	fromFiles, err := EvalFiles(out, gold, false)
	require.NoError(t, err)
	assert.Equal(t, scores.LAS.Correct(), fromFiles.LAS.Correct())
}

func TestPipelineBatchOptions(t *testing.T) {
	sents, p := trainingSetup(t)
	batch, sentences, err := p.Batch(&conll.MemoryCorpus{Label: "dev", Sentences: sents}, false)
	require.NoError(t, err)
	defer batch.Release()
	defer sentences.Close()
	assert.Equal(t, "dev", batch.Options.CorpusName)
	assert.Equal(t, 7, batch.NumActions(), "arc-standard over three labels")
	assert.Equal(t, 3, batch.FeatureSize())

	var _ search.SentenceSource = sentences
}
