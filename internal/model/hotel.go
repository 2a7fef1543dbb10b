package model

import "encoding/json"

// Hotel is one supplier hotel offer. ID is the supplier identifier; LocalID is
// assigned when the hotel is persisted and is what clients send back on
// follow-up calls (searchPackages, bookingpolicy).
type Hotel struct {
	LocalID    string        `json:"local_id,omitempty"`
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	StarRating int           `json:"starRating"`
	Location   Location      `json:"location"`
	Rates      []RatePackage `json:"rates"`
}

// FirstRate returns the first rate package, or nil when the hotel has none.
// Several pipeline stages (price range, refundability) only look at it.
func (h *Hotel) FirstRate() *RatePackage {
	if len(h.Rates) == 0 {
		return nil
	}
	return &h.Rates[0]
}

// Location is the address block returned by the supplier.
type Location struct {
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// RatePackage is one bookable rate of a hotel. BaseAmount arrives in supplier
// currency and is rewritten in place by the markup calculator, which also
// fills the charge fields.
type RatePackage struct {
	BookingKey       string          `json:"booking_key"`
	BaseAmount       float64         `json:"base_amount"`
	ServiceCharge    float64         `json:"service_charge"`
	ProcessingFee    float64         `json:"processing_fee"`
	GST              float64         `json:"gst"`
	ChargeableRate   float64         `json:"chargeable_rate"`
	ServiceComponent json.RawMessage `json:"service_component,omitempty"`
	RoomDetails      RoomDetails     `json:"room_details"`
}

// RoomDetails describes what a rate package sells.
type RoomDetails struct {
	RoomType      string `json:"room_type"`
	FoodType      string `json:"food_type"`
	Description   string `json:"description,omitempty"`
	NonRefundable *bool  `json:"non_refundable,omitempty"`
}

// IsNonRefundable reports the refund flag. A missing flag counts as
// non-refundable.
func (d RoomDetails) IsNonRefundable() bool {
	if d.NonRefundable == nil {
		return true
	}
	return *d.NonRefundable
}

// RoomOccupancy is one room of the requested room breakdown.
type RoomOccupancy struct {
	AdultCount int   `json:"adult_count"`
	ChildCount int   `json:"child_count"`
	ChildAges  []int `json:"child_ages,omitempty"`
}
