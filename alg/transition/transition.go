package transition

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Action is a transition system specific action id. Valid ids are dense in
// [0, NumActions).
type Action int

const NO_ACTION Action = -1

// Configuration is the mutable state of a single in-progress decode.
// Copy must return a deep copy that shares no mutable state with the
// receiver.
type Configuration interface {
	Copy() Configuration
	IsGold() bool
	SetGold(bool)
	String() string
}

// TransitionState is per-configuration state owned by a transition system
// (e.g. assigned tags of a tagger).
type TransitionState interface {
	Clone() TransitionState
	Init(c Configuration)
	IsTokenCorrect(c Configuration, index int) bool
	String(c Configuration) string
}

// System defines the legal actions over a configuration, their effects,
// the gold oracle and finality.
type System interface {
	Name() string

	NumActionTypes() int
	NumActions(numLabels int) int

	DefaultAction(c Configuration) Action
	NextGoldAction(c Configuration) Action
	IsAllowedAction(a Action, c Configuration) bool
	PerformActionWithoutHistory(a Action, c Configuration)
	IsFinalState(c Configuration) bool
	ActionAsString(a Action, c Configuration) string

	NewTransitionState(training bool) TransitionState
}

// PerformAction applies a to c. It is the only way actions mutate a
// configuration.
func PerformAction(sys System, a Action, c Configuration) {
	sys.PerformActionWithoutHistory(a, c)
}

// Sequence renders a list of actions with the system's names.
func Sequence(sys System, c Configuration, actions []Action) string {
	strs := make([]string, len(actions))
	for i, a := range actions {
		strs[i] = sys.ActionAsString(a, c)
	}
	return strings.Join(strs, " ")
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() System)
)

// Register makes a transition system available by name.
func Register(name string, factory func() System) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic("Transition system registered twice: " + name)
	}
	registry[name] = factory
}

// New returns a fresh instance of the named transition system.
func New(name string) (System, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, exists := registry[name]
	if !exists {
		return nil, errors.Errorf("unknown transition system %q (known: %s)", name, strings.Join(registeredLocked(), ", "))
	}
	return factory(), nil
}

func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registeredLocked()
}

func registeredLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
