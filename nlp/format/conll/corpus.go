package conll

import (
	"io"
	"log"
	"os"

	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/pkg/errors"
)

// SentenceReader streams sentences until io.EOF.
type SentenceReader interface {
	Read() (*nlp.Sentence, error)
	Close() error
}

// Corpus opens a fresh reader positioned at its first sentence.
type Corpus interface {
	Name() string
	Open() (SentenceReader, error)
}

type FileCorpus struct {
	Filename string
}

var _ Corpus = &FileCorpus{}

func (c *FileCorpus) Name() string {
	return c.Filename
}

type fileReader struct {
	*Reader
	file *os.File
}

func (r *fileReader) Close() error {
	return r.file.Close()
}

func (c *FileCorpus) Open() (SentenceReader, error) {
	file, err := os.Open(c.Filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening corpus")
	}
	return &fileReader{Reader: NewReader(file, c.Filename), file: file}, nil
}

// MemoryCorpus serves sentences already in memory.
type MemoryCorpus struct {
	Label     string
	Sentences []*nlp.Sentence
}

var _ Corpus = &MemoryCorpus{}

func (c *MemoryCorpus) Name() string {
	return c.Label
}

type sliceReader struct {
	sentences []*nlp.Sentence
	next      int
}

func (r *sliceReader) Read() (*nlp.Sentence, error) {
	if r.next >= len(r.sentences) {
		return nil, io.EOF
	}
	r.next++
	return r.sentences[r.next-1], nil
}

func (r *sliceReader) Close() error {
	return nil
}

func (c *MemoryCorpus) Open() (SentenceReader, error) {
	return &sliceReader{sentences: c.Sentences}, nil
}

// SentenceBatch holds the current sentence of every batch slot, all slots
// reading from one shared stream over a corpus.
type SentenceBatch struct {
	Corpus    Corpus
	reader    SentenceReader
	sentences []*nlp.Sentence
	err       error
}

func NewSentenceBatch(corpus Corpus, batchSize int) *SentenceBatch {
	return &SentenceBatch{
		Corpus:    corpus,
		sentences: make([]*nlp.Sentence, batchSize),
	}
}

// Init opens the corpus.
func (b *SentenceBatch) Init() error {
	reader, err := b.Corpus.Open()
	if err != nil {
		return err
	}
	b.reader = reader
	return nil
}

// AdvanceSentence reads the next sentence into slot. At end of input, or on
// a read error, the slot is emptied and false is returned; the first error
// is kept for Err.
func (b *SentenceBatch) AdvanceSentence(slot int) bool {
	b.sentences[slot] = nil
	if b.reader == nil {
		return false
	}
	sent, err := b.reader.Read()
	if err != nil {
		if err != io.EOF {
			log.Println("Failed reading", b.Corpus.Name(), err)
			if b.err == nil {
				b.err = err
			}
		}
		return false
	}
	b.sentences[slot] = sent
	return true
}

func (b *SentenceBatch) Sentence(slot int) *nlp.Sentence {
	return b.sentences[slot]
}

// Size is the number of slots holding a sentence.
func (b *SentenceBatch) Size() int {
	var size int
	for _, sent := range b.sentences {
		if sent != nil {
			size++
		}
	}
	return size
}

// Rewind reopens the corpus at its first sentence.
func (b *SentenceBatch) Rewind() {
	if b.reader != nil {
		b.reader.Close()
		b.reader = nil
	}
	if err := b.Init(); err != nil {
		log.Println("Failed rewinding", b.Corpus.Name(), err)
		if b.err == nil {
			b.err = err
		}
	}
}

// Err returns the first read error.
func (b *SentenceBatch) Err() error {
	return b.err
}

func (b *SentenceBatch) Close() error {
	if b.reader == nil {
		return nil
	}
	err := b.reader.Close()
	b.reader = nil
	return err
}
