package midi

import (
	"sync"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestQueue(t *testing.T) {
	q := NewQueue(4)

	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got %d", q.Len())
	}
	if q.Cap() != 4 {
		t.Errorf("Expected capacity 4, got %d", q.Cap())
	}

	for i := 0; i < 4; i++ {
		if !q.Push(NoteOn(0, uint8(60+i), 100)) {
			t.Fatalf("Push %d failed", i)
		}
	}
	if q.Push(NoteOn(0, 70, 100)) {
		t.Error("Expected push to a full queue to fail")
	}
	if q.Dropped() != 1 {
		t.Errorf("Expected 1 dropped event, got %d", q.Dropped())
	}

	for i := 0; i < 4; i++ {
		e, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d failed", i)
		}
		if e.Data1 != uint8(60+i) {
			t.Errorf("Expected note %d, got %d", 60+i, e.Data1)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Expected empty queue")
	}

	// slots are reused after wrapping
	for i := 0; i < 10; i++ {
		q.Push(ProgramChange(0, uint8(i)))
		e, _ := q.Pop()
		if e.Data1 != uint8(i) {
			t.Fatalf("Expected program %d after wrap, got %d", i, e.Data1)
		}
	}
}

func TestQueueCapacityRounding(t *testing.T) {
	if got := NewQueue(100).Cap(); got != 128 {
		t.Errorf("Expected capacity rounded to 128, got %d", got)
	}
	if got := NewQueue(0).Cap(); got != DefaultQueueSize {
		t.Errorf("Expected default capacity, got %d", got)
	}
}

func TestQueuePushMessage(t *testing.T) {
	q := NewQueue(8)

	if !q.PushMessage(gomidi.NoteOn(1, 48, 90), 17) {
		t.Fatal("PushMessage failed")
	}
	if q.PushMessage(gomidi.Message{0xF0, 0x01, 0xF7}, 0) {
		t.Error("Expected sysex to be rejected")
	}

	e, ok := q.Pop()
	if !ok {
		t.Fatal("Expected queued event")
	}
	if e.Type != EventTypeNoteOn || e.Channel != 1 || e.Data1 != 48 || e.Offset != 17 {
		t.Errorf("Unexpected event %v", e)
	}
	if q.Dropped() != 1 {
		t.Errorf("Expected 1 dropped, got %d", q.Dropped())
	}
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue(8)
	q.Push(NoteOn(0, 60, 100))
	q.Push(NoteOff(0, 60))
	q.Push(Realtime(EventTypeClock))

	var got []EventType
	n := q.Drain(func(e Event) {
		got = append(got, e.Type)
	})

	if n != 3 {
		t.Errorf("Expected 3 drained, got %d", n)
	}
	want := []EventType{EventTypeNoteOn, EventTypeNoteOff, EventTypeClock}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	q.Push(NoteOn(0, 61, 100))
	q.Clear()
	if q.Len() != 0 {
		t.Error("Expected Clear to empty the queue")
	}
}

func TestQueueConcurrentProducer(t *testing.T) {
	q := NewQueue(64)
	const total = 10000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if q.Push(ControlChange(0, 1, uint8(i%128))) {
				i++
			}
		}
	}()

	received := 0
	next := 0
	for received < total {
		e, ok := q.Pop()
		if !ok {
			continue
		}
		if e.Data2 != uint8(next%128) {
			t.Fatalf("Out of order value %d, expected %d", e.Data2, next%128)
		}
		next++
		received++
	}
	wg.Wait()
}

func TestQueueDoesNotAllocate(t *testing.T) {
	q := NewQueue(16)
	var buf [3]byte
	allocs := testing.AllocsPerRun(100, func() {
		q.Push(NoteOn(0, 60, 100))
		q.Drain(func(e Event) {
			e.Encode(&buf)
		})
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations, got %v", allocs)
	}
}
