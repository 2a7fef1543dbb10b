package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HotelRepo stores hotels served on search pages. Location and rates are JSON
// columns so the rate list can be replaced wholesale by a package search.
type HotelRepo struct {
	db *sql.DB
}

func NewHotelRepo(db *sql.DB) *HotelRepo {
	return &HotelRepo{db: db}
}

// InsertHotels writes one row per hotel in a single multi-row INSERT. Every
// hotel must already carry its LocalID.
func (r *HotelRepo) InsertHotels(ctx context.Context, transactionIdentifier string, hotels []model.Hotel) error {
	if len(hotels) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(hotels)*7)
	)
	sb.WriteString(`INSERT INTO hotels
	  (local_id, supplier_hotel_id, transaction_identifier, name, star_rating, location, rates)
	  VALUES `)
	for i, h := range hotels {
		if h.LocalID == "" {
			return fmt.Errorf("hotel %s has no local id", h.ID)
		}
		loc, err := json.Marshal(h.Location)
		if err != nil {
			return err
		}
		rates, err := marshalRates(h.Rates)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?)")
		args = append(args, h.LocalID, h.ID, transactionIdentifier, h.Name, h.StarRating, loc, rates)
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// GetHotel loads a stored hotel by local id.
func (r *HotelRepo) GetHotel(ctx context.Context, localID string) (*model.Hotel, error) {
	const q = `SELECT local_id, supplier_hotel_id, name, star_rating, location, rates
	           FROM hotels WHERE local_id = ? LIMIT 1`
	var (
		h          model.Hotel
		loc, rates []byte
	)
	err := r.db.QueryRowContext(ctx, q, localID).
		Scan(&h.LocalID, &h.ID, &h.Name, &h.StarRating, &loc, &rates)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHotelNotFound
		}
		return nil, err
	}
	if len(loc) > 0 {
		if err := json.Unmarshal(loc, &h.Location); err != nil {
			return nil, fmt.Errorf("decode location of hotel %s: %w", localID, err)
		}
	}
	if len(rates) > 0 {
		if err := json.Unmarshal(rates, &h.Rates); err != nil {
			return nil, fmt.Errorf("decode rates of hotel %s: %w", localID, err)
		}
	}
	return &h, nil
}

// UpdateRates replaces the stored rate list of a hotel.
func (r *HotelRepo) UpdateRates(ctx context.Context, localID string, rates []model.RatePackage) error {
	b, err := marshalRates(rates)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE hotels SET rates = ?, updated_at = CURRENT_TIMESTAMP WHERE local_id = ?", b, localID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHotelNotFound
	}
	return nil
}

func marshalRates(rates []model.RatePackage) ([]byte, error) {
	if rates == nil {
		rates = []model.RatePackage{}
	}
	return json.Marshal(rates)
}
