package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditRow is one row of admin_audit.
type AuditRow struct {
	RequestID  string
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Status     int
	Error      string
	CreatedAt  time.Time
}

const insertAudit = `INSERT INTO admin_audit
	(request_id, actor, action, resource, resource_id, status, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const deleteAuditBefore = `DELETE FROM admin_audit WHERE created_at < $1`

// AuditRepository writes the admin audit journal. *pgxpool.Pool satisfies
// its store.
type AuditRepository struct {
	db execer
}

func NewAuditRepository(db execer) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends one row.
func (r *AuditRepository) Insert(ctx context.Context, row AuditRow) error {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, insertAudit,
		row.RequestID, row.Actor, row.Action, row.Resource, row.ResourceID,
		row.Status, row.Error, row.CreatedAt)
	return err
}

// DeleteBefore drops rows older than cutoff and reports how many went.
func (r *AuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteAuditBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
