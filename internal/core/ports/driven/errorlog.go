package driven

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// ErrorLogStore persists the error log so it survives process restarts.
type ErrorLogStore interface {
	// AppendError stores rec and trims the log to keep at most limit records.
	AppendError(ctx context.Context, rec domain.ErrorRecord, limit int) error

	// RecentErrors returns up to limit records, oldest first.
	RecentErrors(ctx context.Context, limit int) ([]domain.ErrorRecord, error)
}
