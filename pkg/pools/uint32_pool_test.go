package pools

import "testing"

func TestGetReturnsRequestedCapacity(t *testing.T) {
	p := NewUint32Pool()

	for _, size := range []int{1, 64, 65, 1024, 1025, 16384, 100000} {
		s := p.Get(size)
		if len(s) != 0 {
			t.Fatalf("Get(%d) returned non-empty slice of len %d", size, len(s))
		}
		if cap(s) < size {
			t.Fatalf("Get(%d) returned cap %d", size, cap(s))
		}
	}
}

func TestPutGetReuse(t *testing.T) {
	p := NewUint32Pool()

	s := p.Get(100)
	s = append(s, 1, 2, 3)
	p.Put(s)

	// Reuse is best-effort with sync.Pool; what must hold is that a slice
	// handed back out is empty.
	s2 := p.Get(100)
	if len(s2) != 0 {
		t.Fatalf("reused slice not reset: len %d", len(s2))
	}
}

func TestGlobalPoolHelpers(t *testing.T) {
	s := GetUint32s(50)
	if cap(s) < 50 {
		t.Fatalf("GetUint32s(50) cap = %d", cap(s))
	}
	PutUint32s(s)
}
