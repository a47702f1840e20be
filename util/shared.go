package util

import (
	"fmt"
	"sync"
)

type sharedEntry struct {
	object   interface{}
	refcount int
	release  func()
}

// SharedStore hands out named, read-only objects that are built once and
// reference counted. An object is dropped when its last user releases it.
type SharedStore struct {
	mu      sync.Mutex
	objects map[string]*sharedEntry
}

func NewSharedStore() *SharedStore {
	return &SharedStore{objects: make(map[string]*sharedEntry)}
}

// Get returns the object stored under name, building it with build on first
// use. Each successful Get must be paired with a Release.
func (s *SharedStore) Get(name string, build func() (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.objects[name]; exists {
		entry.refcount++
		return entry.object, nil
	}
	obj, err := build()
	if err != nil {
		return nil, err
	}
	s.objects[name] = &sharedEntry{object: obj, refcount: 1}
	return obj, nil
}

// OnRelease registers f to run when the object under name is dropped.
func (s *SharedStore) OnRelease(name string, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.objects[name]; exists {
		entry.release = f
	}
}

// Release decrements the reference count of obj. It returns false if obj
// was not handed out by the store.
func (s *SharedStore) Release(obj interface{}) bool {
	if obj == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, entry := range s.objects {
		if entry.object != obj {
			continue
		}
		if entry.refcount < 1 {
			panic(fmt.Sprintf("Shared object %s has refcount %d", name, entry.refcount))
		}
		entry.refcount--
		if entry.refcount == 0 {
			if entry.release != nil {
				entry.release()
			}
			delete(s.objects, name)
		}
		return true
	}
	return false
}

// Refs returns the current reference count of the object under name.
func (s *SharedStore) Refs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.objects[name]; exists {
		return entry.refcount
	}
	return 0
}

// Shared is the process store used by batch controllers.
var Shared = NewSharedStore()
