package conll

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lzswangjian/transition-notes/alg/search"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ search.SentenceSource = &SentenceBatch{}

const corpusText = `# sent_id = 1
1	John	_	NNP	NNP	_	2	nsubj	_	_
2	saw	see	VBD	VBD	_	0	ROOT	_	_
3	Mary	_	NNP	NNP	_	2	dobj	_	_


1	Hi	_	UH	UH	_	0	ROOT
`

func TestParseRow(t *testing.T) {
	row := strings.Split("1	EFRWT	_	CDT	CDT	gen=F|num=P	2	num	_	_",
		string(FIELD_SEPARATOR))

	parsed, err := ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.ID)
	assert.Equal(t, "EFRWT", parsed.Form)
	assert.Equal(t, "CDT", parsed.CPosTag)
	assert.Equal(t, "CDT", parsed.PosTag)
	assert.Equal(t, Features{"gen": "F", "num": "P"}, parsed.Feats)
	assert.Equal(t, "gen=F|num=P", parsed.Feats.String())
	assert.Equal(t, 2, parsed.Head)
	assert.Equal(t, "num", parsed.DepRel)

	token := parsed.Token()
	assert.Equal(t, 1, token.Head)
	assert.Equal(t, nlp.DepRel("num"), token.Label)
	assert.Equal(t, "gen=F|num=P", token.Feats)
}

func TestParseSuccessWithoutParams(t *testing.T) {
	row := strings.Split("8	KF	_	TEMP	TEMP	_	3	ccomp	_	_",
		string(FIELD_SEPARATOR))

	parsed, err := ParseRow(row)
	require.NoError(t, err)
	assert.Nil(t, parsed.Feats)
	assert.Equal(t, "", parsed.Lemma)
}

func TestParseRowWithRepeatingParams(t *testing.T) {
	row := strings.Split("19	PRCWPNW	_	NN	NN_S_PP	gen=M|num=S|suf_gen=F|suf_gen=M|suf_num=P|suf_per=1	18	pobj",
		string(FIELD_SEPARATOR))

	parsed, err := ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, "F,M", parsed.Feats["suf_gen"])
}

func TestParseRowErrors(t *testing.T) {
	for _, line := range []string{
		"1	a	_	N	N	_	0",
		"x	a	_	N	N	_	0	ROOT",
		"1	a	_	N	N	_	h	ROOT",
		"1	a	_	N	N	_	-2	ROOT",
		"1	a	_	N	N	gen	0	ROOT",
		"1		_	N	N	_	0	ROOT",
	} {
		_, err := ParseRow(strings.Split(line, string(FIELD_SEPARATOR)))
		assert.Error(t, err, line)
	}
}

func TestRead(t *testing.T) {
	sents, err := Read(strings.NewReader(corpusText), "corpus")
	require.NoError(t, err)
	require.Len(t, sents, 2)

	first := sents[0]
	assert.Equal(t, "corpus:0", first.DocID)
	assert.Equal(t, "John saw Mary", first.Text)
	assert.Equal(t, []int{1, -1, 1}, []int{first.Tokens[0].Head, first.Tokens[1].Head, first.Tokens[2].Head})
	assert.Equal(t, "see", first.Tokens[1].Lemma)
	assert.Equal(t, "NNP", first.Tokens[0].Category)
	assert.Equal(t, "corpus:1", sents[1].DocID)
	assert.Equal(t, nlp.DepRel("ROOT"), sents[1].Tokens[0].Label)
}

func TestReadRejectsBrokenIDs(t *testing.T) {
	_, err := Read(strings.NewReader("1	a	_	N	N	_	0	ROOT\n3	b	_	N	N	_	1	dep\n"), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: record 1")
}

func TestWrite(t *testing.T) {
	sents, err := Read(strings.NewReader(corpusText), "corpus")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sents))
	assert.Equal(t, "1\tJohn\t_\tNNP\tNNP\t_\t2\tnsubj\t_\t_\n"+
		"2\tsaw\tsee\tVBD\tVBD\t_\t0\tROOT\t_\t_\n"+
		"3\tMary\t_\tNNP\tNNP\t_\t2\tdobj\t_\t_\n\n"+
		"1\tHi\t_\tUH\tUH\t_\t0\tROOT\t_\t_\n\n", buf.String())

	again, err := Read(&buf, "corpus")
	require.NoError(t, err)
	assert.Equal(t, sents, again)
}

func TestSentenceBatch(t *testing.T) {
	sents, err := Read(strings.NewReader(corpusText), "corpus")
	require.NoError(t, err)
	batch := NewSentenceBatch(&MemoryCorpus{Label: "mem", Sentences: sents}, 2)
	require.NoError(t, batch.Init())

	assert.True(t, batch.AdvanceSentence(1))
	assert.Equal(t, sents[0], batch.Sentence(1))
	assert.Equal(t, 1, batch.Size())
	assert.True(t, batch.AdvanceSentence(0))
	assert.Equal(t, 2, batch.Size())

	assert.False(t, batch.AdvanceSentence(1))
	assert.Nil(t, batch.Sentence(1))
	assert.Equal(t, 1, batch.Size())

	batch.Rewind()
	assert.True(t, batch.AdvanceSentence(1))
	assert.Equal(t, sents[0], batch.Sentence(1))
	assert.NoError(t, batch.Err())
	assert.NoError(t, batch.Close())
}

func TestFileCorpusSentenceBatch(t *testing.T) {
	dir := t.TempDir()
	name := dir + "/broken.conll"
	require.NoError(t, WriteFile(name, []*nlp.Sentence{nlp.NewSentence(&nlp.Token{Word: "a", Head: -1, Label: "ROOT"})}))

	batch := NewSentenceBatch(&FileCorpus{Filename: name}, 1)
	require.NoError(t, batch.Init())
	assert.True(t, batch.AdvanceSentence(0))
	assert.False(t, batch.AdvanceSentence(0))
	assert.NoError(t, batch.Err())
	require.NoError(t, batch.Close())

	missing := NewSentenceBatch(&FileCorpus{Filename: dir + "/missing.conll"}, 1)
	assert.Error(t, missing.Init())
	missing.Rewind()
	assert.Error(t, missing.Err())
	assert.False(t, missing.AdvanceSentence(0))
}
