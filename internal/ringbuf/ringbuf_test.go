package ringbuf

import "testing"

func TestPushWithinCapacityPreservesOrder(t *testing.T) {
	b := New[int](5)
	for i := 1; i <= 3; i++ {
		b.Push(i)
	}
	if b.Len() != 3 {
		t.Fatalf("expected len 3, got %d", b.Len())
	}
	for i := 0; i < 3; i++ {
		if got := b.At(i); got != i+1 {
			t.Fatalf("At(%d) = %d, want %d", i, got, i+1)
		}
	}
}

func TestPushWrapsAndKeepsMostRecent(t *testing.T) {
	const capacity = 10
	const extra = 4
	b := New[int](capacity)
	for i := 1; i <= capacity+extra; i++ {
		b.Push(i)
	}
	if b.Len() != capacity {
		t.Fatalf("expected len capped at %d, got %d", capacity, b.Len())
	}
	// Oldest surviving element should be extra+1 (1..extra were evicted).
	for i := 0; i < capacity; i++ {
		want := extra + 1 + i
		if got := b.At(i); got != want {
			t.Fatalf("At(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestLastOnEmpty(t *testing.T) {
	b := New[string](3)
	if _, ok := b.Last(); ok {
		t.Fatal("expected ok=false on empty buffer")
	}
	b.Push("x")
	v, ok := b.Last()
	if !ok || v != "x" {
		t.Fatalf("expected (\"x\", true), got (%q, %v)", v, ok)
	}
}
