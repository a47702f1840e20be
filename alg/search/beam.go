package search

import (
	"fmt"
	"log"
	"strings"

	"github.com/lzswangjian/transition-notes/alg/featurevector"
	"github.com/lzswangjian/transition-notes/alg/transition"
	"gonum.org/v1/gonum/mat"
)

// ParserStateWithHistory is a beam hypothesis: a configuration it owns and,
// for every step that led to it, the beam slot it was expanded from, the
// action taken and the score that action received.
type ParserStateWithHistory struct {
	State         transition.Configuration
	SlotHistory   []int
	ActionHistory []transition.Action
	ScoreHistory  []float64
}

// NewParserStateWithHistory returns a root hypothesis over a copy of c.
func NewParserStateWithHistory(c transition.Configuration) *ParserStateWithHistory {
	return &ParserStateWithHistory{State: c.Copy()}
}

// Fork copies h and applies action to the copy.
func (h *ParserStateWithHistory) Fork(sys transition.System, slot int, action transition.Action, score float64) *ParserStateWithHistory {
	steps := len(h.SlotHistory)
	next := &ParserStateWithHistory{
		State:         h.State.Copy(),
		SlotHistory:   make([]int, steps, steps+1),
		ActionHistory: make([]transition.Action, steps, steps+1),
		ScoreHistory:  make([]float64, steps, steps+1),
	}
	copy(next.SlotHistory, h.SlotHistory)
	copy(next.ActionHistory, h.ActionHistory)
	copy(next.ScoreHistory, h.ScoreHistory)
	transition.PerformAction(sys, action, next.State)
	next.SlotHistory = append(next.SlotHistory, slot)
	next.ActionHistory = append(next.ActionHistory, action)
	next.ScoreHistory = append(next.ScoreHistory, score)
	return next
}

// Steps is the number of actions taken to reach h.
func (h *ParserStateWithHistory) Steps() int {
	return len(h.ActionHistory)
}

func (h *ParserStateWithHistory) String() string {
	return fmt.Sprintf("%v %v", h.ActionHistory, h.State)
}

// BeamStatus is the lifecycle of a beam. A beam is ALIVE while it expands,
// DYING for the one round after the gold path fell off, DEAD afterwards.
type BeamStatus int

const (
	ALIVE BeamStatus = iota
	DYING
	DEAD
)

func (s BeamStatus) String() string {
	switch s {
	case ALIVE:
		return "alive"
	case DYING:
		return "dying"
	case DEAD:
		return "dead"
	}
	return fmt.Sprintf("BeamStatus(%d)", int(s))
}

// BeamState is the beam of one batch slot. It keeps the gold configuration
// apart from the agenda to compute the oracle action of every step.
type BeamState struct {
	Options *BatchStateOptions

	BeamID    int
	Sentences SentenceSource
	System    transition.System
	NewState  StateFactory
	Features  FeatureExtractor
	Workspace *featurevector.WorkspaceSet
	Registry  *featurevector.WorkspaceRegistry

	slots      *Agenda
	gold       transition.Configuration
	goldAction transition.Action
	stalled    bool
	status     BeamStatus
	allFinal   bool
}

func (b *BeamState) setStatus(status BeamStatus) {
	if b.status != status {
		beamTransitions.WithLabelValues(status.String()).Inc()
	}
	b.status = status
}

// Reset moves to a new sentence when configured to always do so, or when
// the current one is missing, fully parsed or stuck on an oracle action the
// system refuses, and seeds the beam with the gold root hypothesis.
func (b *BeamState) Reset() {
	if b.Options.AlwaysStartNewSentences || b.gold == nil || b.stalled || b.System.IsFinalState(b.gold) {
		b.advanceSentence()
	}
	if b.slots == nil {
		b.slots = NewAgenda(b.Options.MaxBeamSize + 1)
	}
	b.slots.Clear()
	b.allFinal = false
	b.goldAction = transition.NO_ACTION
	if b.gold == nil {
		// EOF
		b.setStatus(DEAD)
		return
	}
	b.gold.SetGold(true)
	b.slots.Emplace(GoldKey(0, true), NewParserStateWithHistory(b.gold))
	b.setStatus(ALIVE)
}

func (b *BeamState) advanceSentence() {
	b.gold = nil
	b.stalled = false
	if !b.Sentences.AdvanceSentence(b.BeamID) {
		return
	}
	b.gold = b.NewState(b.Sentences.Sentence(b.BeamID))
	if b.Workspace != nil && b.Registry != nil {
		b.Workspace.Reset(b.Registry)
	}
	if b.Features != nil {
		b.Features.Preprocess(b.Workspace, b.gold)
	}
}

func (b *BeamState) updateAllFinal() {
	b.allFinal = true
	for _, item := range b.slots.Items() {
		if !b.System.IsFinalState(item.Hyp.State) {
			b.allFinal = false
			break
		}
	}
	if b.allFinal {
		b.setStatus(DEAD)
	}
}

// Advance expands every resident across every allowed action using the
// rows of scores, which are indexed by the residents' ascending order.
func (b *BeamState) Advance(scores *mat.Dense) {
	if b.status == DYING {
		b.setStatus(DEAD)
	}
	if !b.IsAlive() || b.gold == nil {
		return
	}
	b.advanceGold()

	scoreRows, numActions := scores.Dims()
	previous := NewAgenda(b.slots.Len())
	previous.Swap(b.slots)

	for slot, item := range previous.Items() {
		if AllOut {
			log.Printf("Beam %d slot %d: %v", b.BeamID, slot, item)
		}
		if b.System.IsFinalState(item.Hyp.State) {
			b.MaybeInsert(item)
			b.PruneBeam()
			continue
		}
		for action := 0; action < numActions; action++ {
			if !b.System.IsAllowedAction(transition.Action(action), item.Hyp.State) {
				continue
			}
			if slot >= scoreRows {
				panic(fmt.Sprintf("Beam %d: slot %d has no score row (%d rows)", b.BeamID, slot, scoreRows))
			}
			b.MaybeInsertWithNewAction(item, slot, scores.At(slot, action), transition.Action(action))
			b.PruneBeam()
		}
	}
	b.updateAllFinal()
}

func (b *BeamState) advanceGold() {
	b.goldAction = transition.NO_ACTION
	if b.stalled || b.System.IsFinalState(b.gold) {
		return
	}
	b.goldAction = b.System.NextGoldAction(b.gold)
	if ShowOracle {
		log.Printf("Beam %d gold: %v", b.BeamID, b.gold)
		log.Printf("Beam %d oracle: %s", b.BeamID, b.System.ActionAsString(b.goldAction, b.gold))
	}
	if !b.System.IsAllowedAction(b.goldAction, b.gold) {
		log.Printf("Beam %d: oracle action %d not allowed in %v", b.BeamID, b.goldAction, b.gold)
		oracleInconsistent.Inc()
		b.stalled = true
		return
	}
	transition.PerformAction(b.System, b.goldAction, b.gold)
}

// PruneBeam evicts the lowest resident when the beam is over capacity. A
// gold resident at the bottom is kept one more round and the beam starts
// dying, unless beams continue until all residents are final.
func (b *BeamState) PruneBeam() {
	if b.slots.Len() <= b.Options.MaxBeamSize {
		return
	}
	bottom := 0
	if !b.Options.ContinueUntilAllFinal && b.slots.Bottom().Hyp.State.IsGold() {
		b.setStatus(DYING)
		bottom++
	}
	evicted := b.slots.RemoveAt(bottom)
	if AllOut {
		log.Printf("Beam %d evicted %v", b.BeamID, evicted)
	}
}

func (b *BeamState) admits(gold bool, score float64) bool {
	return gold || b.slots.Len() < b.Options.MaxBeamSize || score > b.slots.Bottom().Key.Score
}

// MaybeInsertWithNewAction inserts the expansion of item by action if it
// is the gold continuation, the beam is not full, or its score beats the
// lowest resident.
func (b *BeamState) MaybeInsertWithNewAction(item *AgendaItem, slot int, delta float64, action transition.Action) {
	score := item.Key.Score + delta
	gold := item.Hyp.State.IsGold() && action == b.goldAction
	if !b.admits(gold, score) {
		return
	}
	next := item.Hyp.Fork(b.System, slot, action, delta)
	next.State.SetGold(gold)
	inserted := b.slots.Emplace(GoldKey(score, gold), next)
	if AllOut {
		log.Printf("Beam %d inserted %v", b.BeamID, inserted)
	}
}

// MaybeInsert carries a final resident over unchanged under the same rule.
func (b *BeamState) MaybeInsert(item *AgendaItem) {
	if !b.admits(item.Hyp.State.IsGold(), item.Key.Score) {
		return
	}
	b.slots.Insert(item)
}

// PopulateFeatureOutputs appends the features of every resident, in
// ascending order, to the per-channel outputs.
func (b *BeamState) PopulateFeatureOutputs(features Features) Features {
	for _, item := range b.slots.Items() {
		f := b.Features.ExtractSparseFeatures(b.Workspace, item.Hyp.State)
		for i := range f {
			features[i] = append(features[i], f[i]...)
		}
	}
	return features
}

func (b *BeamState) BeamSize() int {
	if b.slots == nil {
		return 0
	}
	return b.slots.Len()
}

func (b *BeamState) IsAlive() bool { return b.status == ALIVE }
func (b *BeamState) IsDead() bool  { return b.status == DEAD }
func (b *BeamState) AllFinal() bool {
	return b.allFinal
}

func (b *BeamState) Status() BeamStatus {
	return b.status
}

// Slots returns the residents in ascending key order.
func (b *BeamState) Slots() []*AgendaItem {
	if b.slots == nil {
		return nil
	}
	return b.slots.Items()
}

// Gold returns the gold configuration, nil when the slot has no sentence.
func (b *BeamState) Gold() transition.Configuration {
	return b.gold
}

// Best returns the highest keyed resident.
func (b *BeamState) Best() *AgendaItem {
	if b.slots == nil {
		return nil
	}
	return b.slots.Top()
}

func (b *BeamState) String() string {
	var parts []string
	for i, item := range b.Slots() {
		parts = append(parts, fmt.Sprintf("\t%d: %v", i, item))
	}
	return fmt.Sprintf("Beam %d [%v]\n%s", b.BeamID, b.status, strings.Join(parts, "\n"))
}
