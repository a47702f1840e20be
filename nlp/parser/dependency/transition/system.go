package transition

import (
	. "github.com/lzswangjian/transition-notes/alg/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
)

// NewSystem instantiates the named transition system and binds the tag map
// to systems that act on tags.
func NewSystem(name string, tags LabelMap) (System, error) {
	sys, err := New(name)
	if err != nil {
		return nil, err
	}
	if tagger, ok := sys.(*Tagger); ok {
		tagger.Tags = tags
	}
	return sys, nil
}

// StateFactory returns a constructor of initial configurations for sys.
func StateFactory(sys System, labels LabelMap, training bool) func(*nlp.Sentence) Configuration {
	return func(sent *nlp.Sentence) Configuration {
		return NewState(sent, sys.NewTransitionState(training), labels)
	}
}
