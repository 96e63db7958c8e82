package ring

import "testing"

func TestRingCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	r := New[int](5)
	if r.Cap() != 8 {
		t.Fatalf("expected capacity 8, got %d", r.Cap())
	}
}

func TestRingPushPopOrder(t *testing.T) {
	r := New[int](4)
	for i := 1; i <= 4; i++ {
		if !r.TryPush(i) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if r.TryPush(5) {
		t.Fatal("push into a full ring should fail")
	}
	for i := 1; i <= 4; i++ {
		v, ok := r.TryPop()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
	if _, ok := r.TryPop(); ok {
		t.Fatal("pop from an empty ring should fail")
	}
}

func TestRingLenTracksOccupancy(t *testing.T) {
	r := New[int](8)
	if r.Len() != 0 {
		t.Fatalf("expected empty ring, got len %d", r.Len())
	}
	r.TryPush(1)
	r.TryPush(2)
	if r.Len() != 2 {
		t.Fatalf("expected len 2, got %d", r.Len())
	}
	r.TryPop()
	if r.Len() != 1 {
		t.Fatalf("expected len 1, got %d", r.Len())
	}
}

func TestRingWrapsAroundCorrectly(t *testing.T) {
	r := New[int](2)
	r.TryPush(1)
	r.TryPush(2)
	r.TryPop()
	r.TryPush(3) // wraps into the slot TryPop just freed
	v, _ := r.TryPop()
	if v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
	v, _ = r.TryPop()
	if v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
}
