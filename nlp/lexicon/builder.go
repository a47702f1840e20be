package lexicon

import (
	"log"
	"path/filepath"
	"strings"

	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/lzswangjian/transition-notes/util"
)

// Standard file names of the term maps inside a lexicon directory.
const (
	WORD_MAP     = "word-map"
	LCWORD_MAP   = "lcword-map"
	TAG_MAP      = "tag-map"
	CATEGORY_MAP = "category-map"
	LABEL_MAP    = "label-map"
)

// Lexicon is the set of term maps collected over a training corpus.
type Lexicon struct {
	Words, LCWords, Tags, Categories, Labels *TermFrequencyMap

	NumTokens, NumSentences int
}

func NewLexicon() *Lexicon {
	return &Lexicon{
		Words:      NewTermFrequencyMap(),
		LCWords:    NewTermFrequencyMap(),
		Tags:       NewTermFrequencyMap(),
		Categories: NewTermFrequencyMap(),
		Labels:     NewTermFrequencyMap(),
	}
}

// Add counts the terms of one sentence. Words are digit-normalized; words
// containing spaces are skipped.
func (l *Lexicon) Add(sent *nlp.Sentence) {
	for _, token := range sent.Tokens {
		word := util.NormalizeDigits(token.Word)
		lcword := strings.ToLower(word)
		if word != "" && !strings.Contains(word, " ") {
			l.Words.Increment(word)
		}
		if lcword != "" && !strings.Contains(lcword, " ") {
			l.LCWords.Increment(lcword)
		}
		if token.Tag != "" {
			l.Tags.Increment(token.Tag)
		}
		if token.Category != "" {
			l.Categories.Increment(token.Category)
		}
		if token.Label != "" {
			l.Labels.Increment(string(token.Label))
		}
		l.NumTokens++
	}
	l.NumSentences++
}

// AddLabels makes sure every label of labels has an id, counting the ones
// the corpus did not contain once.
func (l *Lexicon) AddLabels(labels []string) int {
	var added int
	for _, label := range labels {
		if l.Labels.LookupIndex(label, -1) < 0 {
			l.Labels.Increment(label)
			added++
		}
	}
	return added
}

func (l *Lexicon) maps() map[string]*TermFrequencyMap {
	return map[string]*TermFrequencyMap{
		WORD_MAP:     l.Words,
		LCWORD_MAP:   l.LCWords,
		TAG_MAP:      l.Tags,
		CATEGORY_MAP: l.Categories,
		LABEL_MAP:    l.Labels,
	}
}

func (l *Lexicon) Save(dir string) error {
	log.Println("Term maps collected over", l.NumTokens, "tokens from", l.NumSentences, "sentences")
	for name, m := range l.maps() {
		if err := m.Save(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// LoadLexicon reads all term maps from dir and freezes them.
func LoadLexicon(dir string) (*Lexicon, error) {
	l := &Lexicon{}
	targets := map[string]**TermFrequencyMap{
		WORD_MAP:     &l.Words,
		LCWORD_MAP:   &l.LCWords,
		TAG_MAP:      &l.Tags,
		CATEGORY_MAP: &l.Categories,
		LABEL_MAP:    &l.Labels,
	}
	for name, target := range targets {
		m, err := Load(filepath.Join(dir, name), 0, 0)
		if err != nil {
			return nil, err
		}
		m.Freeze()
		*target = m
	}
	return l, nil
}
