// Package queue carries booking lifecycle events over RabbitMQ: the booking
// service publishes them and a background consumer turns them into history
// rows.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// Event names double as the durable queue names on the default exchange.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingFailed    = "booking.failed"
	EventBookingCancelled = "booking.cancelled"
)

// Queues lists every queue the consumer drains.
var Queues = []string{EventBookingConfirmed, EventBookingFailed, EventBookingCancelled}

// BookingEvent is published after a transaction changes state. It carries
// enough for consumers to log or notify without reading the database.
type BookingEvent struct {
	Event             string    `json:"event"`
	TransactionID     string    `json:"transaction_id"`
	UserID            uint64    `json:"user_id"`
	HotelLocalID      string    `json:"hotel_id"`
	HotelName         string    `json:"hotel_name"`
	SupplierBookingID string    `json:"booking_id,omitempty"`
	Status            string    `json:"status"`
	Amount            float64   `json:"total_chargeable_amount"`
	RefundAmount      float64   `json:"refund_amount,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// NewBookingEvent snapshots t under the given event name.
func NewBookingEvent(event string, t *model.HotelTransaction, at time.Time) BookingEvent {
	return BookingEvent{
		Event:             event,
		TransactionID:     t.ID,
		UserID:            t.UserID,
		HotelLocalID:      t.HotelLocalID,
		HotelName:         t.HotelName,
		SupplierBookingID: t.SupplierBookingID,
		Status:            t.Status.String(),
		Amount:            t.TotalChargeableAmount,
		RefundAmount:      t.RefundAmount,
		OccurredAt:        at.UTC(),
	}
}

// History renders the event as an audit row.
func (e BookingEvent) History() model.History {
	msg := fmt.Sprintf("%s | hotel=%q | booking_id=%s | status=%s | total=%.2f",
		e.Event, e.HotelName, e.SupplierBookingID, e.Status, e.Amount)
	if e.Event == EventBookingCancelled {
		msg += fmt.Sprintf(" | refund=%.2f", e.RefundAmount)
	}
	return model.History{
		Event:         e.Event,
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		Message:       msg,
		CreatedAt:     e.OccurredAt,
	}
}
