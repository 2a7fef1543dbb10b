package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HistoryRepo is the append-only booking audit log.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Append(ctx context.Context, h model.History) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO history (event, transaction_id, user_id, message) VALUES (?,?,?,?)",
		h.Event, h.TransactionID, h.UserID, h.Message)
	return err
}

// ListForTransaction returns the audit lines of one transaction, oldest first.
func (r *HistoryRepo) ListForTransaction(ctx context.Context, transactionID string) ([]model.History, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, event, transaction_id, user_id, message, created_at FROM history WHERE transaction_id = ? ORDER BY id",
		transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.History{}
	for rows.Next() {
		var h model.History
		if err := rows.Scan(&h.ID, &h.Event, &h.TransactionID, &h.UserID, &h.Message, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
