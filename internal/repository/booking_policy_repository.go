package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingPolicyRepo stores the policy and price captured before prebook.
type BookingPolicyRepo struct {
	db *sql.DB
}

func NewBookingPolicyRepo(db *sql.DB) *BookingPolicyRepo {
	return &BookingPolicyRepo{db: db}
}

func (r *BookingPolicyRepo) Create(ctx context.Context, p *model.BookingPolicy) error {
	rate, err := json.Marshal(p.Rate)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO booking_policies (id, hotel_local_id, transaction_identifier, booking_key, rate, policy)
		 VALUES (?,?,?,?,?,?)`,
		p.ID, p.HotelLocalID, p.TransactionIdentifier, p.BookingKey, rate, nullJSON(p.Policy))
	return err
}

func (r *BookingPolicyRepo) Get(ctx context.Context, id string) (*model.BookingPolicy, error) {
	var (
		p            model.BookingPolicy
		rate, policy []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, hotel_local_id, transaction_identifier, booking_key, rate, policy, created_at
		 FROM booking_policies WHERE id = ? LIMIT 1`, id).
		Scan(&p.ID, &p.HotelLocalID, &p.TransactionIdentifier, &p.BookingKey, &rate, &policy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(rate, &p.Rate); err != nil {
		return nil, fmt.Errorf("decode rate of policy %s: %w", id, err)
	}
	if len(policy) > 0 {
		p.Policy = policy
	}
	return &p, nil
}
