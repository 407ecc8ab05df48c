package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository on PostgreSQL.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	var detail sql.NullString
	if event.Detail != "" {
		detail = sql.NullString{String: event.Detail, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (id, type, username, detail, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		event.ID, string(event.Type), event.Username, detail, event.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
