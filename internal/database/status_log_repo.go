package database

import (
	"context"

	"book-warehouse-api-server/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusLogRepo reads the audit trail. Writes only happen through the
// transition engine's store; nothing else appends rows.
type StatusLogRepo struct {
	DB *pgxpool.Pool
}

func (r *StatusLogRepo) ListForOrder(ctx context.Context, orderID string, t models.OrderType) ([]models.StatusLog, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, order_type, status, actor_id, note, created_at
		FROM status_logs
		WHERE order_id=$1 AND order_type=$2
		ORDER BY created_at ASC`, orderID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.StatusLog{}
	for rows.Next() {
		var l models.StatusLog
		if err := rows.Scan(&l.ID, &l.OrderID, &l.OrderType, &l.Status, &l.ActorID, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
