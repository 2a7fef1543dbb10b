package model

import (
	"encoding/json"
	"time"
)

// TransactionStatus is the flat integer booking state stored on
// hotel_transactions.status.
type TransactionStatus int

const (
	StatusPending TransactionStatus = iota
	StatusConfirmed
	StatusFailed
	StatusCancelled
)

func (s TransactionStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusFailed:
		return "FAILED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// HotelTransaction records one booking attempt from prebook through to
// confirmation or cancellation.
type HotelTransaction struct {
	ID                    string            `json:"id"`
	UserID                uint64            `json:"user_id"`
	HotelLocalID          string            `json:"hotel_id"`
	HotelName             string            `json:"hotel_name"`
	BookingPolicyID       string            `json:"booking_policy_id"`
	TransactionIdentifier string            `json:"transaction_identifier"`
	BookingKey            string            `json:"booking_key"`
	SupplierBookingID     string            `json:"booking_id,omitempty"`
	PaymentReference      string            `json:"payment_reference,omitempty"`
	Status                TransactionStatus `json:"status"`
	BaseAmount            float64           `json:"base_amount"`
	ServiceCharge         float64           `json:"service_charge"`
	ProcessingFee         float64           `json:"processing_fee"`
	GST                   float64           `json:"gst"`
	TotalChargeableAmount float64           `json:"total_chargeable_amount"`
	CancellationCharge    float64           `json:"cancellation_charge"`
	RefundAmount          float64           `json:"refund_amount"`
	Guests                json.RawMessage   `json:"guests,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// BookingPolicy is the supplier's cancellation policy for a chosen package,
// captured together with the package price that was shown to the user.
type BookingPolicy struct {
	ID                    string          `json:"id"`
	HotelLocalID          string          `json:"hotel_id"`
	TransactionIdentifier string          `json:"transaction_identifier"`
	BookingKey            string          `json:"booking_key"`
	Rate                  RatePackage     `json:"rate"`
	Policy                json.RawMessage `json:"policy,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
