package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/supplier"
)

const dateLayout = "2006-01-02"

// HotelSearchRequest is the body of POST /api/hotels/search.
type HotelSearchRequest struct {
	Checkin               string                `json:"checkin"`
	Checkout              string                `json:"checkout"`
	Details               []model.RoomOccupancy `json:"details"`
	Area                  *supplier.Area        `json:"area,omitempty"`
	HotelID               string                `json:"hotel_id,omitempty"`
	Nationality           string                `json:"nationality,omitempty"`
	Currency              string                `json:"currency,omitempty"`
	TransactionIdentifier string                `json:"transaction_identifier,omitempty"`
	Page                  int                   `json:"page"`
	PerPage               int                   `json:"perPage"`
	CurrentHotelsCount    int                   `json:"currentHotelsCount"`
	Filters               Criteria              `json:"filters"`
}

// Normalize validates r and applies defaults: perPage clamped to [10,50],
// page at least 1 and currentHotelsCount at least 0.
func (r *HotelSearchRequest) Normalize() error {
	if err := validateStay(r.Checkin, r.Checkout, r.Details); err != nil {
		return err
	}
	if (r.Area == nil || strings.TrimSpace(r.Area.ID) == "") && strings.TrimSpace(r.HotelID) == "" {
		return fmt.Errorf("%w: area or hotel_id is required", apperr.ErrValidation)
	}
	r.PerPage = ClampPerPage(r.PerPage)
	if r.Page < 1 {
		r.Page = 1
	}
	if r.CurrentHotelsCount < 0 {
		r.CurrentHotelsCount = 0
	}
	return nil
}

func (r *HotelSearchRequest) criteria() supplier.SearchCriteria {
	return supplier.SearchCriteria{
		Checkin:               r.Checkin,
		Checkout:              r.Checkout,
		Details:               r.Details,
		Area:                  r.Area,
		HotelID:               strings.TrimSpace(r.HotelID),
		Nationality:           r.Nationality,
		Currency:              r.Currency,
		TransactionIdentifier: r.TransactionIdentifier,
	}
}

// PackageSearchRequest is the body of POST /api/hotels/searchPackages.
// HotelID is the local id handed out by a previous search.
type PackageSearchRequest struct {
	HotelID               string                `json:"hotel_id"`
	Checkin               string                `json:"checkin"`
	Checkout              string                `json:"checkout"`
	Details               []model.RoomOccupancy `json:"details"`
	Nationality           string                `json:"nationality,omitempty"`
	Currency              string                `json:"currency,omitempty"`
	TransactionIdentifier string                `json:"transaction_identifier,omitempty"`
	ReferenceID           string                `json:"referenceId,omitempty"`
}

// Validate checks r.
func (r *PackageSearchRequest) Validate() error {
	if strings.TrimSpace(r.HotelID) == "" {
		return fmt.Errorf("%w: hotel_id is required", apperr.ErrValidation)
	}
	return validateStay(r.Checkin, r.Checkout, r.Details)
}

func validateStay(checkin, checkout string, details []model.RoomOccupancy) error {
	if len(details) == 0 {
		return fmt.Errorf("%w: details is required", apperr.ErrValidation)
	}
	for i, d := range details {
		if d.AdultCount < 1 {
			return fmt.Errorf("%w: details[%d].adult_count must be at least 1", apperr.ErrValidation, i)
		}
		if d.ChildCount < 0 {
			return fmt.Errorf("%w: details[%d].child_count must not be negative", apperr.ErrValidation, i)
		}
		if len(d.ChildAges) > 0 && len(d.ChildAges) != d.ChildCount {
			return fmt.Errorf("%w: details[%d].child_ages must list %d ages", apperr.ErrValidation, i, d.ChildCount)
		}
	}

	in, err := time.Parse(dateLayout, checkin)
	if err != nil {
		return fmt.Errorf("%w: checkin must be in YYYY-MM-DD format", apperr.ErrValidation)
	}
	out, err := time.Parse(dateLayout, checkout)
	if err != nil {
		return fmt.Errorf("%w: checkout must be in YYYY-MM-DD format", apperr.ErrValidation)
	}
	if !out.After(in) {
		return fmt.Errorf("%w: checkout must be after checkin", apperr.ErrValidation)
	}
	return nil
}
