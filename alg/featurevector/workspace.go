package featurevector

import "fmt"

// WorkspaceRegistry assigns dense indices to named workspaces requested by
// feature functions, so that values computed once per sentence can be
// shared by all of them.
type WorkspaceRegistry struct {
	names []string
	index map[string]int
}

func NewWorkspaceRegistry() *WorkspaceRegistry {
	return &WorkspaceRegistry{index: make(map[string]int)}
}

// Request returns the index of the named workspace, registering it on
// first use.
func (r *WorkspaceRegistry) Request(name string) int {
	if i, exists := r.index[name]; exists {
		return i
	}
	r.index[name] = len(r.names)
	r.names = append(r.names, name)
	return r.index[name]
}

func (r *WorkspaceRegistry) Size() int {
	return len(r.names)
}

func (r *WorkspaceRegistry) Names() []string {
	return r.names
}

// VectorIntWorkspace holds one int per token.
type VectorIntWorkspace []int

func NewVectorIntWorkspace(size, value int) VectorIntWorkspace {
	ws := make(VectorIntWorkspace, size)
	for i := range ws {
		ws[i] = value
	}
	return ws
}

// WorkspaceSet holds the workspaces of one sentence, indexed by the
// registry.
type WorkspaceSet struct {
	workspaces []VectorIntWorkspace
}

func (s *WorkspaceSet) Reset(registry *WorkspaceRegistry) {
	s.workspaces = make([]VectorIntWorkspace, registry.Size())
}

func (s *WorkspaceSet) Has(index int) bool {
	return index < len(s.workspaces) && s.workspaces[index] != nil
}

func (s *WorkspaceSet) Get(index int) VectorIntWorkspace {
	if !s.Has(index) {
		panic(fmt.Sprintf("Workspace %d not set", index))
	}
	return s.workspaces[index]
}

func (s *WorkspaceSet) Set(index int, ws VectorIntWorkspace) {
	s.workspaces[index] = ws
}
