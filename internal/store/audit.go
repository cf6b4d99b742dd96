package store

import (
	"context"
	"time"
)

// AuditLog records one admin mutation.
type AuditLog struct {
	ID           string    `json:"id"`
	Actor        string    `json:"actor"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resourceType"`
	ResourceID   *string   `json:"resourceId,omitempty"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Status       int       `json:"status"`
	IP           *string   `json:"ip,omitempty"`
	RequestID    *string   `json:"requestId,omitempty"`
	Metadata     []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

const auditColumns = `id, actor, action, resource_type, resource_id, method, path, status, ip,
	request_id, metadata, created_at`

// InsertAuditLog appends an entry.
func (q *Queries) InsertAuditLog(ctx context.Context, l AuditLog) error {
	_, err := q.db.Exec(ctx, `INSERT INTO admin_audit_logs
	(id, actor, action, resource_type, resource_id, method, path, status, ip, request_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.Actor, l.Action, l.ResourceType, l.ResourceID, l.Method, l.Path, l.Status, l.IP, l.RequestID, l.Metadata)
	return mapErr(err)
}

// ListAuditLogs returns entries newest first.
func (q *Queries) ListAuditLogs(ctx context.Context, limit, offset int) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, `SELECT `+auditColumns+` FROM admin_audit_logs
ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.ResourceType, &l.ResourceID, &l.Method, &l.Path,
			&l.Status, &l.IP, &l.RequestID, &l.Metadata, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
