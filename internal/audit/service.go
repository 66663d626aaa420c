package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"miecredit/internal/audit/metrics"
	dErrors "miecredit/pkg/domain-errors"
	"miecredit/pkg/platform/sentinel"
	"miecredit/pkg/requestcontext"
)

// Export batch sizing. Batches are clamped so a single export can stream
// arbitrarily large result sets without loading them into memory.
const (
	DefaultExportBatchSize = 500
	maxExportBatchSize     = 5000
)

// Recorder is the audit write path: it redacts, durably persists, and fans
// out to secondary sinks. It is also the read surface handlers and the CLI
// query against. Primary-store failures propagate to the caller; sink
// failures are logged and counted, never blocking the write.
type Recorder struct {
	store    Store
	redactor *Redactor
	sinks    []Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewRecorder builds a Recorder. redactor may be nil to persist events
// unredacted (tests only; production wiring always passes one). metrics may
// be nil.
func NewRecorder(store Store, redactor *Redactor, logger *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Recorder {
	return &Recorder{
		store:    store,
		redactor: redactor,
		sinks:    sinks,
		logger:   logger,
		metrics:  m,
	}
}

// Redactor exposes the configured redaction pipeline, e.g. for the health
// endpoint to report the policy in force.
func (r *Recorder) Redactor() *Redactor { return r.redactor }

// Write sanitizes the event, persists it durably, and fans the stored
// record out to every sink. A zero timestamp is stamped with the current
// time.
func (r *Recorder) Write(ctx context.Context, event Event) (StoredEvent, error) {
	start := time.Now()

	if event.TS == 0 {
		event.TS = TimestampOf(requestcontext.Now(ctx))
	}
	if r.redactor != nil {
		keysBefore := len(event.Payload)
		event = r.redactor.Redact(event)
		r.metrics.AddKeysDropped(keysBefore - len(event.Payload))
	}

	stored, err := r.store.Append(ctx, event)
	if err != nil {
		r.metrics.IncrementWriteFailure()
		return StoredEvent{}, dErrors.Wrap(dErrors.CodeStorage, "audit write failed", err)
	}
	r.metrics.IncrementWritten(event.EventType)
	r.metrics.ObserveWriteLatency(time.Since(start))

	for _, sink := range r.sinks {
		if err := sink.Write(ctx, stored); err != nil {
			r.metrics.IncrementSinkFailure(sink.Name())
			r.logger.WarnContext(ctx, "audit sink write failed",
				"sink", sink.Name(),
				"audit_id", stored.ID,
				"error", err,
			)
		}
	}

	return stored, nil
}

// Get returns a single stored event by primary key.
func (r *Recorder) Get(ctx context.Context, id int64) (StoredEvent, error) {
	stored, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StoredEvent{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no audit event with id %d", id))
		}
		return StoredEvent{}, dErrors.Wrap(dErrors.CodeStorage, "audit lookup failed", err)
	}
	return stored, nil
}

// Query returns matching events, newest first, honoring clamped pagination.
func (r *Recorder) Query(ctx context.Context, filter Filter) ([]StoredEvent, error) {
	start := time.Now()
	events, err := r.store.Query(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStorage, "audit query failed", err)
	}
	r.metrics.ObserveQueryLatency(time.Since(start))
	return events, nil
}

// Count returns the total number of matching events, ignoring pagination.
func (r *Recorder) Count(ctx context.Context, filter Filter) (int64, error) {
	count, err := r.store.Count(ctx, filter)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeStorage, "audit count failed", err)
	}
	return count, nil
}

// Export streams every matching event to w, one JSON line per record, and
// returns the number of lines written. It pages through the store with
// bounded queries, advancing the offset by the number of records already
// emitted, so the result set never resides in memory at once. Records
// inserted mid-export may or may not appear; emitted records are never
// duplicated by the paging itself.
func (r *Recorder) Export(ctx context.Context, filter Filter, w io.Writer, batchSize int) (int64, error) {
	if batchSize < 1 {
		batchSize = DefaultExportBatchSize
	}
	if batchSize > maxExportBatchSize {
		batchSize = maxExportBatchSize
	}

	filter.Limit = batchSize
	filter.Offset = 0

	var written int64
	for {
		batch, err := r.Query(ctx, filter)
		if err != nil {
			return written, err
		}
		if len(batch) == 0 {
			return written, nil
		}

		for _, event := range batch {
			line, err := json.Marshal(event)
			if err != nil {
				return written, dErrors.Wrap(dErrors.CodeInternal, "serialize audit event", err)
			}
			if _, err := w.Write(append(line, '\n')); err != nil {
				return written, dErrors.Wrap(dErrors.CodeStorage, "write export line", err)
			}
			written++
		}
		filter.Offset += len(batch)
	}
}
