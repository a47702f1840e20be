package util

import (
	"fmt"
	"log"
	"sync"
)

// EnumSet is a bidirectional string <-> dense index mapping.
// Once Frozen no values may be added and lookups need no further locking
// discipline from callers.
type EnumSet struct {
	mu     sync.RWMutex
	Enum   map[string]int
	Index  []string
	Frozen bool
}

func (e *EnumSet) RebuildIndex() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Index = make([]string, len(e.Enum))
	for k, v := range e.Enum {
		e.Index[v] = k
	}
}

func (e *EnumSet) Add(value string) (int, bool) {
	if e.Frozen {
		panic("Cannot add value to frozen enum set")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	enum, exists := e.Enum[value]
	if exists {
		return enum, false
	}
	enum = len(e.Index)
	e.Enum[value] = enum
	e.Index = append(e.Index, value)
	return enum, true
}

func (e *EnumSet) IndexOf(value string) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enum, exists := e.Enum[value]
	return enum, exists
}

func (e *EnumSet) ValueOf(index int) string {
	if index < 0 {
		panic("Negative index requested")
	}
	e.mu.RLock()
	stale := len(e.Index) != len(e.Enum)
	e.mu.RUnlock()
	if stale {
		log.Println("Rebuilding index!")
		e.RebuildIndex()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.Index) <= index {
		panic("Unknown index requested: " + fmt.Sprintf("%v of %v", index, len(e.Index)))
	}
	return e.Index[index]
}

func (e *EnumSet) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.Index)
}

func NewEnumSet(capacity int) *EnumSet {
	return &EnumSet{
		Enum:  make(map[string]int, capacity),
		Index: make([]string, 0, capacity),
	}
}
