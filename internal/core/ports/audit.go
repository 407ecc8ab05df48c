package ports

import (
	"context"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService persists a single audit event.
type AuditService interface {
	Record(ctx context.Context, event *domain.AuthEvent) error
}

// AuditSink accepts audit events for asynchronous recording. Enqueue must not
// block the caller; it reports false when the event was dropped.
type AuditSink interface {
	Enqueue(event domain.AuthEvent) bool
}
