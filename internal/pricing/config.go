// Package pricing turns raw supplier rates into chargeable prices using the
// markup, service charge, processing fee and GST settings from the pricing
// config document.
package pricing

import "context"

// ChargeType selects how a Charge value is applied.
type ChargeType string

const (
	Percentage ChargeType = "percentage"
	Fixed      ChargeType = "fixed"
)

// DefaultGSTPercent applies when the stored config leaves gst_percent unset.
const DefaultGSTPercent = 18

// Charge is a percentage or fixed adjustment.
type Charge struct {
	Type  ChargeType `json:"type"`
	Value float64    `json:"value"`
}

// Config is the process-wide pricing document.
type Config struct {
	Markup             Charge  `json:"markup"`
	ServiceCharge      Charge  `json:"service_charge"`
	ProcessingFee      float64 `json:"processing_fee"`
	CancellationCharge Charge  `json:"cancellation_charge"`
	GSTPercent         float64 `json:"gst_percent"`
}

// ConfigLoader loads the current pricing config from the config store.
type ConfigLoader interface {
	LoadConfig(ctx context.Context) (*Config, error)
}
