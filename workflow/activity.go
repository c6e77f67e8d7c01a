package workflow

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mmdatafocus/insights_backend/appctx"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

const activityCapacity = 50

// ActivityEntry is one recorded engine invocation, newest first in the log.
type ActivityEntry struct {
	EventId       int       `json:"event_id"`
	CorrelationId string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Objective     string    `json:"objective"`
	Source        string    `json:"source"`
	Request       any       `json:"request"`
	ResultSummary any       `json:"result_summary"`
}

// Recorder is a bounded, thread-safe log of recent engine invocations. It is
// the only mutable shared state in the engine layer: appends are serialized
// behind a mutex and List returns a copy, so readers never observe a torn
// write. Entries beyond the capacity are discarded oldest-first.
type Recorder struct {
	mu     sync.Mutex
	events []ActivityEntry
	seq    int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends a compacted view of one invocation. Request and evidence
// are JSON-roundtripped before compaction so the stored preview is detached
// from the caller's structs.
func (r *Recorder) Record(ctx context.Context, objective string, request any, env *models.Envelope) {
	entry := ActivityEntry{
		Timestamp: time.Now().UTC(),
		Objective: objective,
		Request:   utils.CompactValue(jsonRoundtrip(request)),
	}
	if env != nil {
		entry.ResultSummary = utils.CompactValue(jsonRoundtrip(map[string]any{
			"evidence":    env.Evidence,
			"assumptions": len(env.Assumptions),
			"coverage":    len(env.Coverage),
		}))
	}
	if corr, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId); ok {
		entry.CorrelationId = corr
	}
	if source, ok := appctx.GetString(ctx, appctx.ContextKeyRequestSource); ok {
		entry.Source = source
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.EventId = r.seq
	r.events = append([]ActivityEntry{entry}, r.events...)
	if len(r.events) > activityCapacity {
		r.events = r.events[:activityCapacity]
	}
}

// List returns up to limit entries, newest first, as a consistent copy.
func (r *Recorder) List(limit int) []ActivityEntry {
	if limit < 1 {
		limit = 1
	}
	if limit > activityCapacity {
		limit = activityCapacity
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := limit
	if n > len(r.events) {
		n = len(r.events)
	}
	out := make([]ActivityEntry, n)
	copy(out, r.events[:n])
	return out
}

func jsonRoundtrip(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"unmarshal_error": err.Error()}
	}
	return out
}
