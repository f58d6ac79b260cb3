package engine

import (
	"testing"

	"github.com/tonhe/netflo/internal/topology"
)

func TestRingBufferAdd(t *testing.T) {
	rb := NewRingBuffer[topology.StatSample](5)
	for i := 0; i < 3; i++ {
		rb.Add(topology.StatSample{CPU: i})
	}
	if rb.Len() != 3 {
		t.Errorf("expected len 3, got %d", rb.Len())
	}
}

func TestRingBufferWrap(t *testing.T) {
	rb := NewRingBuffer[topology.StatSample](3)
	for i := 0; i < 5; i++ {
		rb.Add(topology.StatSample{CPU: i})
	}
	if rb.Len() != 3 {
		t.Errorf("expected len 3, got %d", rb.Len())
	}
	items := rb.All()
	if items[0].CPU != 2 {
		t.Errorf("expected oldest item CPU=2, got %d", items[0].CPU)
	}
	if items[2].CPU != 4 {
		t.Errorf("expected newest item CPU=4, got %d", items[2].CPU)
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer[topology.StatSample](10)
	if rb.Len() != 0 {
		t.Error("new ring buffer should be empty")
	}
	if items := rb.All(); len(items) != 0 {
		t.Error("All() on empty buffer should return empty slice")
	}
	if _, ok := rb.Last(); ok {
		t.Error("Last() on empty buffer should return false")
	}
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer[topology.StatSample](5)
	rb.Add(topology.StatSample{CPU: 1})
	rb.Add(topology.StatSample{CPU: 2})
	rb.Add(topology.StatSample{CPU: 3})
	last, ok := rb.Last()
	if !ok {
		t.Fatal("Last() should return true for non-empty buffer")
	}
	if last.CPU != 3 {
		t.Errorf("expected CPU=3, got %d", last.CPU)
	}
}

func TestRingBufferZeroCapacity(t *testing.T) {
	rb := NewRingBuffer[int](0)
	rb.Add(7)
	rb.Add(8)
	if rb.Cap() != 1 || rb.Len() != 1 {
		t.Fatalf("expected capacity and length 1, got %d/%d", rb.Cap(), rb.Len())
	}
	if v, _ := rb.Last(); v != 8 {
		t.Errorf("expected 8, got %d", v)
	}
}

func TestProject(t *testing.T) {
	rb := NewRingBuffer[topology.StatSample](4)
	for _, cpu := range []int{10, 20, 30} {
		rb.Add(topology.StatSample{CPU: cpu})
	}
	got := Project(rb, func(s topology.StatSample) float64 { return float64(s.CPU) })
	want := []float64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
