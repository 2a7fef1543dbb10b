package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking/internal/model"
)

const txColumns = `id, user_id, hotel_local_id, hotel_name, booking_policy_id, transaction_identifier,
	booking_key, supplier_booking_id, payment_reference, status, base_amount, service_charge,
	processing_fee, gst, total_chargeable_amount, cancellation_charge, refund_amount, guests,
	created_at, updated_at`

// TransactionRepo persists hotel_transactions rows. Updates overwrite the
// whole row; the last writer wins.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Create inserts t and reloads it so the timestamps are populated.
func (r *TransactionRepo) Create(ctx context.Context, t *model.HotelTransaction) error {
	const q = `INSERT INTO hotel_transactions
	  (id, user_id, hotel_local_id, hotel_name, booking_policy_id, transaction_identifier,
	   booking_key, supplier_booking_id, payment_reference, status, base_amount, service_charge,
	   processing_fee, gst, total_chargeable_amount, cancellation_charge, refund_amount, guests)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	if _, err := r.db.ExecContext(ctx, q,
		t.ID, t.UserID, t.HotelLocalID, t.HotelName, t.BookingPolicyID, t.TransactionIdentifier,
		t.BookingKey, t.SupplierBookingID, t.PaymentReference, t.Status, t.BaseAmount, t.ServiceCharge,
		t.ProcessingFee, t.GST, t.TotalChargeableAmount, t.CancellationCharge, t.RefundAmount, nullJSON(t.Guests),
	); err != nil {
		return err
	}
	fresh, err := r.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// Update writes the mutable booking fields of t.
func (r *TransactionRepo) Update(ctx context.Context, t *model.HotelTransaction) error {
	const q = `UPDATE hotel_transactions
	  SET supplier_booking_id = ?, payment_reference = ?, status = ?,
	      cancellation_charge = ?, refund_amount = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		t.SupplierBookingID, t.PaymentReference, t.Status, t.CancellationCharge, t.RefundAmount, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*model.HotelTransaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+txColumns+" FROM hotel_transactions WHERE id = ? LIMIT 1", id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListForUser returns a user's transactions, newest first.
func (r *TransactionRepo) ListForUser(ctx context.Context, userID uint64) ([]*model.HotelTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM hotel_transactions WHERE user_id = ? ORDER BY created_at DESC, id", userID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ListAll returns one page of all transactions and the total row count.
func (r *TransactionRepo) ListAll(ctx context.Context, limit, offset int) ([]*model.HotelTransaction, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotel_transactions").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM hotel_transactions ORDER BY created_at DESC, id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (*model.HotelTransaction, error) {
	var (
		t      model.HotelTransaction
		guests []byte
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.HotelLocalID, &t.HotelName, &t.BookingPolicyID, &t.TransactionIdentifier,
		&t.BookingKey, &t.SupplierBookingID, &t.PaymentReference, &t.Status, &t.BaseAmount, &t.ServiceCharge,
		&t.ProcessingFee, &t.GST, &t.TotalChargeableAmount, &t.CancellationCharge, &t.RefundAmount, &guests,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(guests) > 0 {
		t.Guests = guests
	}
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]*model.HotelTransaction, error) {
	defer rows.Close()
	out := []*model.HotelTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullJSON stores an empty document as SQL NULL.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
