package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Calculator applies the stored pricing config to rate packages.
type Calculator struct {
	loader ConfigLoader
}

// NewCalculator returns a Calculator reading config through loader.
func NewCalculator(loader ConfigLoader) *Calculator {
	return &Calculator{loader: loader}
}

// Config loads the current pricing config. Any load failure, including a
// missing document, is reported as apperr.ErrConfigUnavailable.
func (c *Calculator) Config(ctx context.Context) (*Config, error) {
	cfg, err := c.loader.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfigUnavailable, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: no config document", apperr.ErrConfigUnavailable)
	}
	return cfg, nil
}

// Apply loads the config and marks up pkg in place. The package is left
// untouched when the config cannot be loaded.
func (c *Calculator) Apply(ctx context.Context, pkg *model.RatePackage) error {
	cfg, err := c.Config(ctx)
	if err != nil {
		return err
	}
	return ApplyMarkup(pkg, *cfg)
}

// ApplyMarkup rewrites pkg in place: BaseAmount becomes the marked-up base,
// and ServiceCharge, ProcessingFee, GST and ChargeableRate are filled from
// cfg. Calling it twice on the same package compounds the markup.
func ApplyMarkup(pkg *model.RatePackage, cfg Config) error {
	base := decimal.NewFromFloat(pkg.BaseAmount)

	marked, err := adjust(base, cfg.Markup)
	if err != nil {
		return fmt.Errorf("markup: %w", err)
	}
	marked = marked.Round(2)

	service, err := portion(marked, cfg.ServiceCharge)
	if err != nil {
		return fmt.Errorf("service charge: %w", err)
	}
	service = service.Round(2)

	fee := decimal.NewFromFloat(cfg.ProcessingFee).Round(2)

	gstPercent := cfg.GSTPercent
	if gstPercent == 0 {
		gstPercent = DefaultGSTPercent
	}
	gst := service.Add(fee).Mul(decimal.NewFromFloat(gstPercent)).Div(hundred).Round(2)

	pkg.BaseAmount = marked.InexactFloat64()
	pkg.ServiceCharge = service.InexactFloat64()
	pkg.ProcessingFee = fee.InexactFloat64()
	pkg.GST = gst.InexactFloat64()
	pkg.ChargeableRate = marked.Add(service).Add(fee).Add(gst).InexactFloat64()
	return nil
}

// CancellationCharge returns what is withheld when a booking of the given
// amount is cancelled. The result never exceeds amount.
func CancellationCharge(amount float64, c Charge) (float64, error) {
	total := decimal.NewFromFloat(amount)
	charge, err := portion(total, c)
	if err != nil {
		return 0, fmt.Errorf("cancellation charge: %w", err)
	}
	if charge.IsNegative() {
		charge = decimal.Zero
	}
	if charge.GreaterThan(total) {
		charge = total
	}
	return charge.Round(2).InexactFloat64(), nil
}

// adjust returns amount with c added on top.
func adjust(amount decimal.Decimal, c Charge) (decimal.Decimal, error) {
	p, err := portion(amount, c)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Add(p), nil
}

// portion returns the part of amount that c represents.
func portion(amount decimal.Decimal, c Charge) (decimal.Decimal, error) {
	v := decimal.NewFromFloat(c.Value)
	switch c.Type {
	case Percentage:
		return amount.Mul(v).Div(hundred), nil
	case Fixed:
		return v, nil
	case "":
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown charge type %q", apperr.ErrConfigUnavailable, c.Type)
}
