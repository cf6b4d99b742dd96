package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, type, title, message, order_id, product_id, is_read, created_at`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.OrderID, &n.ProductID, &n.IsRead, &n.CreatedAt)
	return n, mapErr(err)
}

// CreateNotification inserts a notification. It reports false when an
// identical notification already exists.
func (q *Queries) CreateNotification(ctx context.Context, n Notification) (bool, error) {
	tag, err := q.db.Exec(ctx, `INSERT INTO notifications (id, type, title, message, order_id, product_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT DO NOTHING`, n.ID, n.Type, n.Title, n.Message, n.OrderID, n.ProductID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListNotifications returns notifications newest first.
func (q *Queries) ListNotifications(ctx context.Context, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := q.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
WHERE NOT $1 OR NOT is_read
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnreadNotifications counts unread notifications.
func (q *Queries) CountUnreadNotifications(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE NOT is_read`).Scan(&n)
	return n, err
}

// MarkNotificationRead flags a notification as read.
func (q *Queries) MarkNotificationRead(ctx context.Context, id string) (Notification, error) {
	return scanNotification(q.db.QueryRow(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 RETURNING `+notificationColumns, id))
}
