package transition

import (
	"github.com/lzswangjian/transition-notes/nlp/lexicon"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
)

// Nivre's running example, 0-based heads.
var rawTestSent = []nlp.Token{
	{Word: "Economic", Tag: "NN", Head: 1, Label: "ATT"},
	{Word: "news", Tag: "NN", Head: 2, Label: "SBJ"},
	{Word: "had", Tag: "VB", Head: -1, Label: nlp.ROOT_LABEL},
	{Word: "little", Tag: "ADJ", Head: 4, Label: "ATT"},
	{Word: "effect", Tag: "NN", Head: 2, Label: "OBJ"},
	{Word: "on", Tag: "NN", Head: 4, Label: "ATT"},
	{Word: "financial", Tag: "NN", Head: 7, Label: "ATT"},
	{Word: "markets", Tag: "NN", Head: 5, Label: "PC"},
	{Word: ".", Tag: "yyDOT", Head: 2, Label: "PU"},
}

var TEST_RELATIONS = []string{"ATT", "SBJ", "PC", "OBJ", "PU", "PRED", nlp.ROOT_LABEL}

func makeSentence(tokens []nlp.Token) *nlp.Sentence {
	ptrs := make([]*nlp.Token, len(tokens))
	for i := range tokens {
		tok := tokens[i]
		ptrs[i] = &tok
	}
	return nlp.NewSentence(ptrs...)
}

// treeSentence builds a sentence from gold heads, labeling root
// attachments ROOT and everything else "dep".
func treeSentence(heads ...int) *nlp.Sentence {
	tokens := make([]nlp.Token, len(heads))
	for i, h := range heads {
		tokens[i] = nlp.Token{Word: string(rune('a' + i)), Tag: "T", Head: h, Label: "dep"}
		if h < 0 {
			tokens[i].Label = nlp.ROOT_LABEL
		}
	}
	return makeSentence(tokens)
}

func termMap(terms ...string) *lexicon.TermFrequencyMap {
	m := lexicon.NewTermFrequencyMap()
	for _, term := range terms {
		m.Increment(term)
	}
	m.Freeze()
	return m
}

func newArcStandardState(sent *nlp.Sentence, labels LabelMap) (*ArcStandard, *State) {
	sys := &ArcStandard{}
	return sys, NewState(sent, sys.NewTransitionState(true), labels)
}
