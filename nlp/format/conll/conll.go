package conll

// Package Conll reads ConLL format files
// For a description see http://ilk.uvt.nl/conll/#dataformat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/pkg/errors"
)

const (
	FIELD_SEPARATOR      = '\t'
	NUM_FIELDS           = 10
	MIN_FIELDS           = 8
	FEATURES_SEPARATOR   = "|"
	FEATURE_SEPARATOR    = "="
	FEATURE_CONCAT_DELIM = ","
	COMMENT_PREFIX       = "#"
)

type Features map[string]string

func (f Features) String() string {
	return FormatFeatures(f)
}

func FormatFeatures(feat map[string]string) string {
	if len(feat) == 0 {
		return "_"
	}
	strs := make([]string, 0, len(feat))
	for k, v := range feat {
		strs = append(strs, fmt.Sprintf("%v%v%v", k, FEATURE_SEPARATOR, v))
	}
	sort.Strings(strs)
	return strings.Join(strs, FEATURES_SEPARATOR)
}

// A Row is a single parsed row of a conll data set. Head is the 1-based id
// of the head token, 0 for the root.
type Row struct {
	ID      int
	Form    string
	Lemma   string
	CPosTag string
	PosTag  string
	Feats   Features
	FeatStr string
	Head    int
	DepRel  string
}

func orBlank(value string) string {
	if value == "" {
		return "_"
	}
	return value
}

func (r Row) String() string {
	fields := []string{
		fmt.Sprintf("%d", r.ID),
		r.Form,
		orBlank(r.Lemma),
		orBlank(r.CPosTag),
		orBlank(r.PosTag),
		orBlank(r.FeatStr),
		fmt.Sprintf("%d", r.Head),
		orBlank(r.DepRel),
		"_",
		"_"}
	return strings.Join(fields, string(FIELD_SEPARATOR))
}

// Token converts r to a parser token with a 0-based head.
func (r Row) Token() *nlp.Token {
	head := nlp.NO_HEAD
	if r.Head > 0 {
		head = r.Head - 1
	}
	return &nlp.Token{
		Word:     r.Form,
		Lemma:    r.Lemma,
		Category: r.CPosTag,
		Tag:      r.PosTag,
		Feats:    r.FeatStr,
		Head:     head,
		Label:    nlp.DepRel(r.DepRel),
	}
}

// TokenRow is the inverse of Row.Token.
func TokenRow(id int, t *nlp.Token) Row {
	return Row{
		ID:      id,
		Form:    t.Word,
		Lemma:   t.Lemma,
		CPosTag: t.Category,
		PosTag:  t.Tag,
		FeatStr: t.Feats,
		Head:    t.Head + 1,
		DepRel:  string(t.Label),
	}
}

func ParseInt(value string) (int, error) {
	if value == "_" {
		return 0, nil
	}
	i, err := strconv.ParseInt(value, 10, 0)
	return int(i), err
}

func ParseString(value string) string {
	if value == "_" {
		return ""
	} else {
		return value
	}
}

func ParseFeatures(featuresStr string) (Features, error) {
	var featureMap Features
	if featuresStr == "_" || featuresStr == "" {
		return featureMap, nil
	}

	featureList := strings.Split(featuresStr, FEATURES_SEPARATOR)
	featureMap = make(Features, len(featureList))
	for _, featureStr := range featureList {
		featureKV := strings.Split(featureStr, FEATURE_SEPARATOR)
		if len(featureKV) != 2 {
			return nil, errors.Errorf("wrong number of fields for split of feature %q", featureStr)
		}
		featName := featureKV[0]
		featValue := featureKV[1]
		existingFeatValue, featExist := featureMap[featName]
		if featExist {
			featureMap[featName] = existingFeatValue + FEATURE_CONCAT_DELIM + featValue
		} else {
			featureMap[featName] = featValue
		}
	}
	return featureMap, nil
}

// ParseRow parses the tab separated fields of one token line. Only the
// first eight fields are read.
func ParseRow(record []string) (Row, error) {
	var row Row
	if len(record) < MIN_FIELDS {
		return row, errors.Errorf("expected at least %d tab separated fields, got %d", MIN_FIELDS, len(record))
	}
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return row, errors.Wrapf(err, "parsing ID field (%s)", record[0])
	}
	row.ID = id

	if record[1] == "" {
		return row, errors.New("empty FORM field")
	}
	row.Form = record[1]
	row.Lemma = ParseString(record[2])
	row.CPosTag = ParseString(record[3])
	row.PosTag = ParseString(record[4])

	head, err := ParseInt(record[6])
	if err != nil {
		return row, errors.Wrapf(err, "parsing HEAD field (%s)", record[6])
	}
	if head < 0 {
		return row, errors.Errorf("negative HEAD field (%d)", head)
	}
	row.Head = head
	row.DepRel = ParseString(record[7])

	features, err := ParseFeatures(record[5])
	if err != nil {
		return row, errors.Wrapf(err, "parsing FEATS field (%s)", record[5])
	}
	row.Feats = features
	row.FeatStr = ParseString(record[5])
	return row, nil
}

// Reader streams sentences from a CoNLL file: token lines grouped into
// records by empty lines, comment lines skipped.
type Reader struct {
	Name    string
	scanner *bufio.Scanner
	records int
	line    int
	count   int
}

func NewReader(reader io.Reader, name string) *Reader {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{Name: name, scanner: scanner}
}

// readRecord collects the lines up to the next empty line. It returns nil
// at end of input.
func (r *Reader) readRecord() ([]string, error) {
	var lines []string
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s: reading line %d", r.Name, r.line)
	}
	return lines, nil
}

// Read returns the next non-empty sentence, or io.EOF.
func (r *Reader) Read() (*nlp.Sentence, error) {
	for {
		lines, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if lines == nil {
			return nil, io.EOF
		}
		r.records++
		tokens := make([]*nlp.Token, 0, len(lines))
		for _, line := range lines {
			if strings.HasPrefix(line, COMMENT_PREFIX) {
				continue
			}
			row, err := ParseRow(strings.Split(line, string(FIELD_SEPARATOR)))
			if err != nil {
				return nil, errors.Wrapf(err, "%s: record %d", r.Name, r.records)
			}
			if row.ID != len(tokens)+1 {
				return nil, errors.Errorf("%s: record %d: token ids start at 1 and increase by 1, expected %d got %d", r.Name, r.records, len(tokens)+1, row.ID)
			}
			tokens = append(tokens, row.Token())
		}
		if len(tokens) == 0 {
			continue
		}
		sent := nlp.NewSentence(tokens...)
		sent.DocID = fmt.Sprintf("%s:%d", r.Name, r.count)
		r.count++
		return sent, nil
	}
}

func Read(reader io.Reader, name string) ([]*nlp.Sentence, error) {
	var sentences []*nlp.Sentence
	r := NewReader(reader, name)
	for {
		sent, err := r.Read()
		if err == io.EOF {
			return sentences, nil
		}
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, sent)
	}
}

func ReadFile(filename string) ([]*nlp.Sentence, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening corpus")
	}
	defer file.Close()
	return Read(file, filename)
}

func Write(writer io.Writer, sents []*nlp.Sentence) error {
	w := bufio.NewWriter(writer)
	for _, sent := range sents {
		for i, token := range sent.Tokens {
			if _, err := w.WriteString(TokenRow(i+1, token).String() + "\n"); err != nil {
				return errors.Wrap(err, "writing conll")
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "writing conll")
		}
	}
	return errors.Wrap(w.Flush(), "writing conll")
}

func WriteFile(filename string, sents []*nlp.Sentence) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	defer file.Close()
	return Write(file, sents)
}
