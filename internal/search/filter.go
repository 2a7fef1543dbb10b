package search

import (
	"slices"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// Criteria is the set of user-selected filters. An empty list or nil Price
// puts no constraint on that dimension.
type Criteria struct {
	RoomType   []string    `json:"roomType,omitempty"`
	FoodType   []string    `json:"foodType,omitempty"`
	Refundable []bool      `json:"refundable,omitempty"`
	StarRating []int       `json:"starRating,omitempty"`
	Price      *PriceRange `json:"price,omitempty"`
}

// PriceRange bounds the first package's marked-up base amount, inclusive.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (p *PriceRange) active() bool {
	return p != nil && p.Min >= 0 && p.Max > 0
}

// IsEmpty reports whether c constrains nothing.
func (c Criteria) IsEmpty() bool {
	return len(c.RoomType) == 0 && len(c.FoodType) == 0 && len(c.Refundable) == 0 &&
		len(c.StarRating) == 0 && !c.Price.active()
}

// Matches reports whether h passes every active dimension of c.
//
// Room and food type look at all packages; refundability and price only look
// at the first package.
func Matches(h *model.Hotel, c Criteria) bool {
	if len(c.RoomType) > 0 && !anyRate(h, func(r *model.RatePackage) bool {
		return slices.Contains(c.RoomType, r.RoomDetails.RoomType)
	}) {
		return false
	}
	if len(c.FoodType) > 0 && !anyRate(h, func(r *model.RatePackage) bool {
		return slices.Contains(c.FoodType, r.RoomDetails.FoodType)
	}) {
		return false
	}
	if len(c.Refundable) > 0 {
		nonRefundable := true
		if first := h.FirstRate(); first != nil {
			nonRefundable = first.RoomDetails.IsNonRefundable()
		}
		if !slices.Contains(c.Refundable, !nonRefundable) {
			return false
		}
	}
	if len(c.StarRating) > 0 && !slices.Contains(c.StarRating, h.StarRating) {
		return false
	}
	if c.Price.active() {
		first := h.FirstRate()
		if first == nil || first.BaseAmount < c.Price.Min || first.BaseAmount > c.Price.Max {
			return false
		}
	}
	return true
}

// Filter returns the hotels matching c, in input order.
func Filter(hotels []model.Hotel, c Criteria) []model.Hotel {
	out := make([]model.Hotel, 0, len(hotels))
	for i := range hotels {
		if Matches(&hotels[i], c) {
			out = append(out, hotels[i])
		}
	}
	return out
}

func anyRate(h *model.Hotel, pred func(*model.RatePackage) bool) bool {
	for i := range h.Rates {
		if pred(&h.Rates[i]) {
			return true
		}
	}
	return false
}
