package alg

// Stack is an int stack addressable from the top: Index(0) is the top.
type Stack interface {
	Index(int) (int, bool)
	Clear()
	Push(int)
	Pop() (int, bool)
	Peek() (int, bool)
	Size() int

	Copy() Stack
	Equal(Stack) bool
}

type StackArray struct {
	Array []int
}

var _ Stack = &StackArray{}

func (s *StackArray) Equal(other Stack) bool {
	if s.Size() != other.Size() {
		return false
	}
	for i := 0; i < s.Size(); i++ {
		a, _ := s.Index(i)
		b, _ := other.Index(i)
		if a != b {
			return false
		}
	}
	return true
}

func (s *StackArray) Clear() {
	s.Array = s.Array[0:0]
}

func (s *StackArray) Push(val int) {
	s.Array = append(s.Array, val)
}

func (s *StackArray) Pop() (int, bool) {
	if s.Size() == 0 {
		return 0, false
	}
	retval := s.Array[len(s.Array)-1]
	s.Array = s.Array[:len(s.Array)-1]
	return retval, true
}

func (s *StackArray) Index(index int) (int, bool) {
	if index < 0 || index >= s.Size() {
		return 0, false
	}
	return s.Array[len(s.Array)-1-index], true
}

func (s *StackArray) Peek() (int, bool) {
	return s.Index(0)
}

func (s *StackArray) Size() int {
	return len(s.Array)
}

func (s *StackArray) Copy() Stack {
	return s.CopyArray()
}

func (s *StackArray) CopyArray() *StackArray {
	newArray := make([]int, len(s.Array), cap(s.Array))
	copy(newArray, s.Array)
	return &StackArray{newArray}
}

func NewStackArray(size int) *StackArray {
	return &StackArray{make([]int, 0, size)}
}
