package search

import (
	"fmt"
	"sort"
)

// AgendaKey orders beam residents by cumulative score; Gold is -1 for the
// gold path and 0 otherwise so that on equal scores gold sorts lowest.
type AgendaKey struct {
	Score float64
	Gold  int
}

func GoldKey(score float64, gold bool) AgendaKey {
	if gold {
		return AgendaKey{score, -1}
	}
	return AgendaKey{score, 0}
}

func (k AgendaKey) Less(other AgendaKey) bool {
	if k.Score != other.Score {
		return k.Score < other.Score
	}
	return k.Gold < other.Gold
}

type AgendaItem struct {
	Key AgendaKey
	Hyp *ParserStateWithHistory
}

func (i *AgendaItem) String() string {
	return fmt.Sprintf("(%v,%d) %v", i.Key.Score, i.Key.Gold, i.Hyp)
}

// Agenda is an ordered multi-map from AgendaKey to hypotheses. Iteration is
// in ascending key order; equal keys keep their insertion order.
type Agenda struct {
	items []*AgendaItem
}

func NewAgenda(capacity int) *Agenda {
	return &Agenda{items: make([]*AgendaItem, 0, capacity)}
}

// Insert places item after every resident whose key is not greater.
func (a *Agenda) Insert(item *AgendaItem) {
	pos := sort.Search(len(a.items), func(i int) bool {
		return item.Key.Less(a.items[i].Key)
	})
	a.items = append(a.items, nil)
	copy(a.items[pos+1:], a.items[pos:])
	a.items[pos] = item
}

// Emplace is Insert for a key and hypothesis pair.
func (a *Agenda) Emplace(key AgendaKey, hyp *ParserStateWithHistory) *AgendaItem {
	item := &AgendaItem{key, hyp}
	a.Insert(item)
	return item
}

func (a *Agenda) Len() int {
	return len(a.items)
}

// Bottom returns the lowest keyed item, nil when empty.
func (a *Agenda) Bottom() *AgendaItem {
	if len(a.items) == 0 {
		return nil
	}
	return a.items[0]
}

func (a *Agenda) Top() *AgendaItem {
	if len(a.items) == 0 {
		return nil
	}
	return a.items[len(a.items)-1]
}

func (a *Agenda) Get(i int) *AgendaItem {
	return a.items[i]
}

func (a *Agenda) RemoveAt(i int) *AgendaItem {
	removed := a.items[i]
	a.items = append(a.items[:i], a.items[i+1:]...)
	return removed
}

// Items returns the residents in ascending key order. The slice must not
// be modified.
func (a *Agenda) Items() []*AgendaItem {
	return a.items
}

func (a *Agenda) Clear() {
	for i := range a.items {
		a.items[i] = nil
	}
	a.items = a.items[:0]
}

// Swap exchanges the contents of a and other.
func (a *Agenda) Swap(other *Agenda) {
	a.items, other.items = other.items, a.items
}
