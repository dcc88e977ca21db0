package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsupport/triage-service/internal/domain"
)

// AuditRepository stores operator action audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	detail := entry.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO action_audit (session_id, operator_id, ticket_id, action, detail)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.SessionID,
		nullable(entry.OperatorID),
		entry.TicketID,
		entry.Action,
		payload,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `
        SELECT id, session_id, COALESCE(operator_id::text, ''), ticket_id, action, detail, created_at
        FROM action_audit ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *auditRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, session_id, COALESCE(operator_id::text, ''), ticket_id, action, detail, created_at
        FROM action_audit WHERE ticket_id=$1 ORDER BY created_at ASC`
	return r.list(ctx, query, ticketID)
}

func (r *auditRepository) list(ctx context.Context, query string, arg any) ([]domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var (
			entry  domain.AuditEntry
			detail []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.OperatorID,
			&entry.TicketID,
			&entry.Action,
			&detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			_ = json.Unmarshal(detail, &entry.Detail)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// nullable maps an empty string to NULL for optional uuid columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
