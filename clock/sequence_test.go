package clock

import (
	"math/rand"
	"testing"
)

func TestAssignKeepsMaximum(t *testing.T) {
	s := New(0)
	values := []uint64{5, 3, 9, 9, 1, 7, 2}
	for _, v := range values {
		s.Assign(3, v)
	}
	if got := s.Get(); got != 9 {
		t.Fatalf("expected clock at 9, got %d", got)
	}
	if got := s.Peer(3); got != 9 {
		t.Fatalf("expected peer slot at 9, got %d", got)
	}
}

func TestAssignOrderAndDuplicationIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]uint64, 64)
	var max uint64
	for i := range values {
		values[i] = uint64(rng.Intn(1000))
		if values[i] > max {
			max = values[i]
		}
	}

	for round := 0; round < 10; round++ {
		s := New(1)
		perm := rng.Perm(len(values))
		var prev uint64
		for _, idx := range perm {
			// 重复投递
			s.Assign(2, values[idx])
			s.Assign(2, values[idx])
			if s.Get() < prev {
				t.Fatalf("clock regressed from %d to %d", prev, s.Get())
			}
			prev = s.Get()
		}
		if s.Get() != max {
			t.Fatalf("round %d: expected %d, got %d", round, max, s.Get())
		}
	}
}

func TestTickAdvancesOwnSlot(t *testing.T) {
	s := New(0)
	s.Tick()
	s.Tick()
	if got := s.Tick(); got != 3 {
		t.Fatalf("expected 3 after three ticks, got %d", got)
	}
	s.Assign(4, 2)
	if s.Get() != 3 {
		t.Fatalf("stale assign must not regress, got %d", s.Get())
	}
}

func TestUnknownPeerGrowsVector(t *testing.T) {
	s := New(0)
	if got := s.Peer(200); got != 0 {
		t.Fatalf("unseen peer should read 0, got %d", got)
	}
	s.Assign(200, 11)
	if got := s.Peer(200); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}

func TestNewIndexCarriesProvisionalValue(t *testing.T) {
	s := New(0)
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	s.NewIndex(7)
	if s.Index() != 7 {
		t.Fatalf("expected index 7, got %d", s.Index())
	}
	if got := s.Get(); got != 5 {
		t.Fatalf("rebinding must not regress the clock, got %d", got)
	}
	s.Assign(0, 3)
	if got := s.Get(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}
