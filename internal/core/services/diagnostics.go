package services

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// Ensure DiagnosticsService implements the interface.
var _ driving.DiagnosticsService = (*DiagnosticsService)(nil)

// DiagnosticsService exposes the resilience error log. When a store is
// given, every recorded entry is also persisted and reads come from the store.
type DiagnosticsService struct {
	log   *resilience.ErrorLog
	store driven.ErrorLogStore
}

// NewDiagnosticsService creates the service. store may be nil.
func NewDiagnosticsService(log *resilience.ErrorLog, store driven.ErrorLogStore) *DiagnosticsService {
	d := &DiagnosticsService{log: log, store: store}
	if store != nil {
		log.SetSink(func(e resilience.Entry) {
			if err := store.AppendError(context.Background(), toErrorRecord(e), log.Cap()); err != nil {
				logger.Warn("persist error log entry: %v", err)
			}
		})
	}
	return d
}

// RecentErrors returns up to limit failures, oldest first. limit <= 0 returns all.
func (d *DiagnosticsService) RecentErrors(ctx context.Context, limit int) ([]domain.ErrorRecord, error) {
	if limit <= 0 {
		limit = d.log.Cap()
	}
	if d.store != nil {
		return d.store.RecentErrors(ctx, limit)
	}

	entries := d.log.Entries()
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]domain.ErrorRecord, len(entries))
	for i, e := range entries {
		out[i] = toErrorRecord(e)
	}
	return out, nil
}

func toErrorRecord(e resilience.Entry) domain.ErrorRecord {
	return domain.ErrorRecord{
		Time:       e.Time,
		Op:         e.Op,
		Kind:       string(e.Kind),
		StatusCode: e.StatusCode,
		Attempts:   e.Attempts,
		Message:    e.Message,
	}
}
