package types

import (
	"fmt"
	"strings"
)

const (
	ROOT_TOKEN = "ROOT"
	ROOT_LABEL = "ROOT"

	// NO_HEAD marks a token attached to the artificial root.
	NO_HEAD = -1
)

type DepRel string

func (d DepRel) String() string {
	return string(d)
}

// Token is one word of a sentence along with its (gold or predicted)
// annotation. Head is a 0-based token index, or NO_HEAD for the root.
type Token struct {
	Word     string
	Lemma    string
	Category string
	Tag      string
	Feats    string
	Head     int
	Label    DepRel
}

func (t *Token) String() string {
	return fmt.Sprintf("%s/%s<-%d:%s", t.Word, t.Tag, t.Head, t.Label)
}

// Sentence is an ordered sequence of tokens. Sentences handed to the parser
// are never mutated; predictions are written to a copy.
type Sentence struct {
	DocID  string
	Text   string
	Tokens []*Token
}

func NewSentence(tokens ...*Token) *Sentence {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Word
	}
	return &Sentence{Text: strings.Join(words, " "), Tokens: tokens}
}

func (s *Sentence) Len() int {
	return len(s.Tokens)
}

func (s *Sentence) Copy() *Sentence {
	retval := &Sentence{DocID: s.DocID, Text: s.Text, Tokens: make([]*Token, len(s.Tokens))}
	for i, t := range s.Tokens {
		tokCopy := *t
		retval.Tokens[i] = &tokCopy
	}
	return retval
}

func (s *Sentence) Words() []string {
	retval := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		retval[i] = t.Word
	}
	return retval
}

func (s *Sentence) String() string {
	parts := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
