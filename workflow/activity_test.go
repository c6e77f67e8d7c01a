package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/mmdatafocus/insights_backend/appctx"
	"github.com/mmdatafocus/insights_backend/models"
)

func TestRecorderNewestFirst(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		r.Record(ctx, fmt.Sprintf("objective-%d", i), nil, models.NewEnvelope(nil))
	}
	events := r.List(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Objective != "objective-2" || events[2].Objective != "objective-0" {
		t.Fatalf("events not newest first: %+v", events)
	}
	if events[0].EventId != 3 {
		t.Fatalf("event ids must increase monotonically, got %d", events[0].EventId)
	}
}

func TestRecorderCapacity(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		r.Record(ctx, "combos", nil, nil)
	}
	events := r.List(100)
	if len(events) != 50 {
		t.Fatalf("capacity is 50, got %d", len(events))
	}
	if events[0].EventId != 60 || events[49].EventId != 11 {
		t.Fatalf("oldest entries must be discarded: first=%d last=%d", events[0].EventId, events[49].EventId)
	}
}

func TestRecorderCarriesContextMetadata(t *testing.T) {
	r := NewRecorder()
	ctx := appctx.Set(context.Background(), appctx.ContextKeyCorrelationId, "corr-123")
	ctx = appctx.Set(ctx, appctx.ContextKeyRequestSource, "cli")
	r.Record(ctx, "forecast", map[string]any{"branch": "Main"}, models.NewEnvelope(nil))

	events := r.List(1)
	if len(events) != 1 {
		t.Fatalf("expected one event")
	}
	if events[0].CorrelationId != "corr-123" || events[0].Source != "cli" {
		t.Fatalf("context metadata missing: %+v", events[0])
	}
}

func TestRecorderListReturnsCopy(t *testing.T) {
	r := NewRecorder()
	r.Record(context.Background(), "combos", nil, nil)
	first := r.List(1)
	first[0].Objective = "mutated"
	second := r.List(1)
	if second[0].Objective != "combos" {
		t.Fatalf("List must return a copy, internal state was mutated")
	}
}

func TestRecorderConcurrentWrites(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Record(context.Background(), fmt.Sprintf("g%d", n), nil, nil)
			}
		}(i)
	}
	wg.Wait()
	events := r.List(50)
	if len(events) != 50 {
		t.Fatalf("expected a full log after 200 records, got %d", len(events))
	}
	seen := map[int]bool{}
	for _, e := range events {
		if seen[e.EventId] {
			t.Fatalf("duplicate event id %d", e.EventId)
		}
		seen[e.EventId] = true
	}
}
