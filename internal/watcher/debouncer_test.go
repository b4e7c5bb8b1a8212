package watcher

import (
	"sync"
	"testing"
	"time"
)

func collectFlushes() (*sync.Mutex, *[][]FileEvent, func([]FileEvent)) {
	var mu sync.Mutex
	var batches [][]FileEvent
	return &mu, &batches, func(events []FileEvent) {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
	}
}

func TestDebouncerCoalescesByPath(t *testing.T) {
	mu, batches, onFlush := collectFlushes()
	d := NewDebouncer(20*time.Millisecond, 100, onFlush)

	d.Add(FileEvent{Path: "a.implementors.json", Type: EventCreate})
	d.Add(FileEvent{Path: "a.implementors.json", Type: EventModify})
	d.Add(FileEvent{Path: "b.implementors.json", Type: EventCreate})

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(*batches) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(*batches))
	}
	if len((*batches)[0]) != 2 {
		t.Errorf("expected 2 coalesced events, got %d", len((*batches)[0]))
	}
}

func TestDebouncerFlushesFullBatchImmediately(t *testing.T) {
	mu, batches, onFlush := collectFlushes()
	d := NewDebouncer(time.Hour, 2, onFlush)

	d.Add(FileEvent{Path: "a"})
	d.Add(FileEvent{Path: "b"})

	mu.Lock()
	defer mu.Unlock()
	if len(*batches) != 1 {
		t.Fatalf("full batch should flush without waiting, got %d flushes", len(*batches))
	}
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	mu, batches, onFlush := collectFlushes()
	d := NewDebouncer(time.Hour, 100, onFlush)

	d.Add(FileEvent{Path: "a"})
	d.Stop()

	mu.Lock()
	if len(*batches) != 1 {
		mu.Unlock()
		t.Fatalf("stop should flush pending events, got %d flushes", len(*batches))
	}
	mu.Unlock()

	// Events after stop are dropped.
	d.Add(FileEvent{Path: "b"})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(*batches) != 1 {
		t.Error("events added after stop should be dropped")
	}
}
