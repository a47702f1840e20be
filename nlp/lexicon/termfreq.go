package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lzswangjian/transition-notes/util"
	"github.com/pkg/errors"
)

// TermFrequencyMap maps terms to dense ids and counts their occurrences.
// Ids are assigned in insertion order; a loaded map assigns them in file
// order, which is descending frequency.
type TermFrequencyMap struct {
	terms *util.EnumSet
	freqs []int64
}

func NewTermFrequencyMap() *TermFrequencyMap {
	return &TermFrequencyMap{terms: util.NewEnumSet(64)}
}

func (m *TermFrequencyMap) Size() int {
	return len(m.freqs)
}

// Increment counts one occurrence of term and returns its id.
func (m *TermFrequencyMap) Increment(term string) int {
	index, added := m.terms.Add(term)
	if added {
		m.freqs = append(m.freqs, 1)
	} else {
		m.freqs[index]++
	}
	return index
}

// LookupIndex returns the id of term, or unknown if term is not in the map.
func (m *TermFrequencyMap) LookupIndex(term string, unknown int) int {
	if index, exists := m.terms.IndexOf(term); exists {
		return index
	}
	return unknown
}

func (m *TermFrequencyMap) GetTerm(index int) string {
	return m.terms.ValueOf(index)
}

func (m *TermFrequencyMap) Frequency(index int) int64 {
	return m.freqs[index]
}

func (m *TermFrequencyMap) Clear() {
	m.terms = util.NewEnumSet(64)
	m.freqs = m.freqs[:0]
}

// Freeze prevents further additions, making the map safe to share between
// beams without locking.
func (m *TermFrequencyMap) Freeze() {
	m.terms.Frozen = true
}

// Read loads a map in "<count>\n<term> <freq>\n..." format. Terms below
// minFrequency are skipped; maxTerms <= 0 means no limit.
func Read(r io.Reader, minFrequency int64, maxTerms int) (*TermFrequencyMap, error) {
	if maxTerms <= 0 {
		maxTerms = int(^uint(0) >> 1)
	}
	m := NewTermFrequencyMap()
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, errors.New("term map: missing header")
	}
	total, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || total < 0 {
		return nil, errors.Errorf("term map: bad header %q", scanner.Text())
	}
	var last int64 = -1
	for i := 0; i < total && i < maxTerms; i++ {
		if !scanner.Scan() {
			return nil, errors.Errorf("term map: expected %d terms, got %d", total, i)
		}
		elements := strings.Split(scanner.Text(), " ")
		if len(elements) != 2 || elements[0] == "" || elements[1] == "" {
			return nil, errors.Errorf("term map: line %d: malformed entry %q", i+2, scanner.Text())
		}
		freq, err := strconv.ParseInt(elements[1], 10, 64)
		if err != nil || freq <= 0 {
			return nil, errors.Errorf("term map: line %d: bad frequency %q", i+2, elements[1])
		}
		if i > 0 && last < freq {
			return nil, errors.Errorf("term map: line %d: frequencies not in descending order", i+2)
		}
		last = freq
		if freq < minFrequency {
			continue
		}
		term := elements[0]
		if _, exists := m.terms.IndexOf(term); exists {
			return nil, errors.Errorf("term map: duplicate term %q", term)
		}
		m.terms.Add(term)
		m.freqs = append(m.freqs, freq)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "term map")
	}
	return m, nil
}

func Load(filename string, minFrequency int64, maxTerms int) (*TermFrequencyMap, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening term map %s", filename)
	}
	defer file.Close()
	m, err := Read(file, minFrequency, maxTerms)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	log.Println("Loaded", m.Size(), "terms from", filename)
	return m, nil
}

type termFreq struct {
	term string
	freq int64
}

// Write saves the map sorted by descending frequency, then by term.
func (m *TermFrequencyMap) Write(w io.Writer) error {
	sorted := make([]termFreq, m.Size())
	for i := range sorted {
		sorted[i] = termFreq{m.GetTerm(i), m.freqs[i]}
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].freq != sorted[b].freq {
			return sorted[a].freq > sorted[b].freq
		}
		return sorted[a].term < sorted[b].term
	})
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(sorted))
	for _, tf := range sorted {
		fmt.Fprintf(bw, "%s %d\n", tf.term, tf.freq)
	}
	return bw.Flush()
}

func (m *TermFrequencyMap) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating term map %s", filename)
	}
	defer file.Close()
	if err := m.Write(file); err != nil {
		return errors.Wrap(err, filename)
	}
	log.Println("Saved", m.Size(), "terms to", filename)
	return nil
}
