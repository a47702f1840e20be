package eval

import (
	"fmt"

	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/pkg/errors"
)

const (
	HEAD_ERROR  = "head"
	LABEL_ERROR = "label"
)

// AttachmentError is a token whose predicted head or label differs from
// the gold one.
type AttachmentError struct {
	Index     int
	Word      string
	Kind      string
	Got, Gold string
}

func (e *AttachmentError) String() string {
	return fmt.Sprintf("%d:%s %s %s (gold %s)", e.Index, e.Word, e.Kind, e.Got, e.Gold)
}

func (e *AttachmentError) Class() string {
	return e.Kind
}

// Attachment scores test against gold token by token. The unlabeled result
// counts correct heads, the labeled one correct heads with correct labels.
func Attachment(test, gold *nlp.Sentence) (unlabeled, labeled *Result, err error) {
	if test.Len() != gold.Len() {
		return nil, nil, errors.Errorf("sentence %s has %d tokens, gold %s has %d", test.DocID, test.Len(), gold.DocID, gold.Len())
	}
	unlabeled, labeled = &Result{}, &Result{}
	for i, token := range test.Tokens {
		goldToken := gold.Tokens[i]
		if token.Head != goldToken.Head {
			unlabeled.FP++
			labeled.FP++
			e := &AttachmentError{i, token.Word, HEAD_ERROR, fmt.Sprint(token.Head), fmt.Sprint(goldToken.Head)}
			unlabeled.Errors = append(unlabeled.Errors, e)
			labeled.Errors = append(labeled.Errors, e)
			continue
		}
		unlabeled.TP++
		if token.Label != goldToken.Label {
			labeled.FP++
			labeled.Errors = append(labeled.Errors, &AttachmentError{i, token.Word, LABEL_ERROR, string(token.Label), string(goldToken.Label)})
			continue
		}
		labeled.TP++
	}
	return unlabeled, labeled, nil
}

// Parse accumulates unlabeled and labeled attachment scores over a corpus.
type Parse struct {
	UAS, LAS *Total
}

func NewParse(keep bool) *Parse {
	return &Parse{UAS: NewTotal(keep), LAS: NewTotal(keep)}
}

func (p *Parse) Add(test, gold *nlp.Sentence) error {
	unlabeled, labeled, err := Attachment(test, gold)
	if err != nil {
		return err
	}
	p.UAS.Add(unlabeled)
	p.LAS.Add(labeled)
	return nil
}

// AddCorpus scores parallel corpora.
func (p *Parse) AddCorpus(test, gold []*nlp.Sentence) error {
	if len(test) != len(gold) {
		return errors.Errorf("%d test sentences, %d gold sentences", len(test), len(gold))
	}
	for i := range test {
		if err := p.Add(test[i], gold[i]); err != nil {
			return errors.Wrapf(err, "sentence %d", i)
		}
	}
	return nil
}

func (p *Parse) String() string {
	return fmt.Sprintf("UAS %v\nLAS %v", p.UAS, p.LAS)
}
