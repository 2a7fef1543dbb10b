package supplier

import (
	"encoding/json"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// SearchCriteria is the body of POST /search. Either Area or HotelID is set.
type SearchCriteria struct {
	Checkin               string                `json:"checkin"`
	Checkout              string                `json:"checkout"`
	Details               []model.RoomOccupancy `json:"details"`
	Area                  *Area                 `json:"area,omitempty"`
	HotelID               string                `json:"hotel_id,omitempty"`
	Nationality           string                `json:"nationality,omitempty"`
	Currency              string                `json:"currency,omitempty"`
	TransactionIdentifier string                `json:"transaction_identifier,omitempty"`
}

// Area is a city, region or landmark id returned by autosuggest.
type Area struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
}

// SearchResponse wraps the search payload. Data is nil when the supplier found
// nothing.
type SearchResponse struct {
	Data *SearchData `json:"data"`
}

type SearchData struct {
	Hotels                []model.Hotel `json:"hotels"`
	TotalHotelsCount      int           `json:"totalHotelsCount"`
	TotalPackagesCount    int           `json:"totalPackagesCount,omitempty"`
	Status                string        `json:"status"`
	TransactionIdentifier string        `json:"transaction_identifier,omitempty"`
}

type AutosuggestRequest struct {
	Query string `json:"query"`
}

type AutosuggestResponse struct {
	Data json.RawMessage `json:"data"`
}

type BookingPolicyRequest struct {
	HotelID               string `json:"hotel_id"`
	BookingKey            string `json:"booking_key"`
	TransactionIdentifier string `json:"transaction_identifier"`
}

// BookingPolicyResult carries the cancellation policy and, when the supplier
// re-priced the package, the refreshed package.
type BookingPolicyResult struct {
	BookingKey         string             `json:"booking_key"`
	CancellationPolicy json.RawMessage    `json:"cancellation_policy"`
	Package            *model.RatePackage `json:"package,omitempty"`
}

type BookingPolicyResponse struct {
	Data *BookingPolicyResult `json:"data"`
}

type PrebookRequest struct {
	BookingKey            string          `json:"booking_key"`
	TransactionIdentifier string          `json:"transaction_identifier"`
	Guests                json.RawMessage `json:"guests"`
}

type PrebookResult struct {
	BookingKey string `json:"booking_key"`
	Status     string `json:"status"`
}

type PrebookResponse struct {
	Data *PrebookResult `json:"data"`
}

type BookRequest struct {
	BookingKey            string `json:"booking_key"`
	TransactionIdentifier string `json:"transaction_identifier"`
	PaymentReference      string `json:"payment_reference,omitempty"`
}

type BookResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type BookResponse struct {
	Data *BookResult `json:"data"`
}

type CancelRequest struct {
	BookingID             string `json:"booking_id"`
	TransactionIdentifier string `json:"transaction_identifier"`
}

type CancelResult struct {
	Status string `json:"status"`
}

type CancelResponse struct {
	Data *CancelResult `json:"data"`
}

// Supplier booking statuses the service acts on.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)
