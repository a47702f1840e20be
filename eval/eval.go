package eval

import "fmt"

func Precision(truePositives, testPositives int) float64 {
	if testPositives == 0 {
		return 0
	}
	return float64(truePositives) / float64(testPositives)
}

func Recall(truePositives, conditionPositives int) float64 {
	if conditionPositives == 0 {
		return 0
	}
	return float64(truePositives) / float64(conditionPositives)
}

func F1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2.0 * (precision * recall) / (precision + recall)
}

type Error interface {
	String() string
	Class() string
}

type Errors []Error

func (ers Errors) ByType() map[string]int {
	retval := make(map[string]int)
	for _, e := range ers {
		retval[e.Class()]++
	}
	return retval
}

// Result counts the decisions made on one sentence. For attachment scores
// every token is a positive: TP when correct, FP otherwise.
type Result struct {
	TP, FP, TN, FN int
	Errors         Errors
}

func (r *Result) All() int {
	return r.TP + r.FP + r.TN + r.FN
}

func (r *Result) Correct() int {
	return r.TP + r.TN
}

func (r *Result) Incorrect() int {
	return r.FP + r.FN
}

func (r *Result) TestPositives() int {
	return r.TP + r.FP
}

func (r *Result) ConditionPositives() int {
	return r.TP + r.FN
}

func (r *Result) Precision() float64 {
	return Precision(r.TP, r.TestPositives())
}

func (r *Result) Recall() float64 {
	return Recall(r.TP, r.ConditionPositives())
}

func (r *Result) Accuracy() float64 {
	if r.All() == 0 {
		return 0
	}
	return float64(r.Correct()) / float64(r.All())
}

func (r *Result) F1() float64 {
	return F1(r.Precision(), r.Recall())
}

type Total struct {
	Result
	Results           []*Result
	Exact, Population int
}

// NewTotal keeps the per sentence results when keep is set.
func NewTotal(keep bool) *Total {
	t := &Total{}
	if keep {
		t.Results = make([]*Result, 0)
	}
	return t
}

func (t *Total) Add(r *Result) {
	t.TP += r.TP
	t.FP += r.FP
	t.TN += r.TN
	t.FN += r.FN
	if r.Incorrect() == 0 {
		t.Exact += 1
	}
	t.Population += 1
	if t.Results != nil {
		t.Results = append(t.Results, r)
	}
}

func (t *Total) ExactMatch() float64 {
	if t.Population == 0 {
		return 0
	}
	return float64(t.Exact) / float64(t.Population)
}

func (t *Total) Errors() Errors {
	retval := make(Errors, 0, t.Incorrect())
	for _, v := range t.Results {
		retval = append(retval, v.Errors...)
	}
	return retval
}

func (t *Total) String() string {
	return fmt.Sprintf("%.2f%% (%d/%d tokens, %.2f%% exact over %d sentences)", 100*t.Accuracy(), t.Correct(), t.All(), 100*t.ExactMatch(), t.Population)
}
