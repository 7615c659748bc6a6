package inputpipe

import (
	"bytes"
	"testing"
)

func TestRingPushPopRoundTrip(t *testing.T) {
	r := NewRing(128)
	ev := Event{Type: EventInput, TimestampNs: 42, Payload: []byte("hello")}
	if err := r.Push(ev); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	got, ok := r.Pop()
	if !ok {
		t.Fatalf("Pop returned false, want an event")
	}
	if got.Type != ev.Type || got.TimestampNs != ev.TimestampNs || !bytes.Equal(got.Payload, ev.Payload) {
		t.Fatalf("Pop() = %+v, want %+v", got, ev)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after draining, want 0", r.Len())
	}
}

func TestRingPopEmptyReturnsFalse(t *testing.T) {
	r := NewRing(64)
	if _, ok := r.Pop(); ok {
		t.Fatalf("Pop on empty ring returned true")
	}
}

// spec.md §4.3 "Capacity exhaustion drops the event and bumps an
// overflow counter; never blocks."
func TestRingPushNeverBlocksOnOverflow(t *testing.T) {
	r := NewRing(16)
	big := Event{Payload: make([]byte, 64)}
	if err := r.Push(big); err != ErrRingFull {
		t.Fatalf("Push(oversized) = %v, want ErrRingFull", err)
	}
	if r.Overflows() != 1 {
		t.Fatalf("Overflows() = %d, want 1", r.Overflows())
	}
}

func TestRingInterleaveNaturalOrder(t *testing.T) {
	r := NewRing(256)
	for i := 0; i < 5; i++ {
		if err := r.Push(Event{TimestampNs: int64(i)}); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		ev, ok := r.Pop()
		if !ok || ev.TimestampNs != int64(i) {
			t.Fatalf("Pop() = %+v ok=%v, want TimestampNs=%d", ev, ok, i)
		}
	}
}

func TestRingWrapsAroundBuffer(t *testing.T) {
	r := NewRing(eventHeaderLen + 4) // room for exactly one small event at a time
	for i := 0; i < 10; i++ {
		if err := r.Push(Event{TimestampNs: int64(i), Payload: []byte{1, 2, 3, 4}}); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
		ev, ok := r.Pop()
		if !ok || ev.TimestampNs != int64(i) {
			t.Fatalf("iteration %d: Pop() = %+v ok=%v", i, ev, ok)
		}
	}
}
