package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/model"
)

type stubLoader struct {
	cfg *Config
	err error
}

func (s stubLoader) LoadConfig(ctx context.Context) (*Config, error) {
	return s.cfg, s.err
}

func TestApplyMarkup(t *testing.T) {
	tests := []struct {
		name        string
		base        float64
		cfg         Config
		wantBase    float64
		wantService float64
		wantFee     float64
		wantGST     float64
		wantTotal   float64
	}{
		{
			name:      "percentage markup only",
			base:      1000,
			cfg:       Config{Markup: Charge{Type: Percentage, Value: 10}},
			wantBase:  1100,
			wantTotal: 1100,
		},
		{
			name:      "fixed markup only",
			base:      1000,
			cfg:       Config{Markup: Charge{Type: Fixed, Value: 150}},
			wantBase:  1150,
			wantTotal: 1150,
		},
		{
			name: "percentage service charge on marked-up base",
			base: 1000,
			cfg: Config{
				Markup:        Charge{Type: Percentage, Value: 10},
				ServiceCharge: Charge{Type: Percentage, Value: 5},
				ProcessingFee: 20,
			},
			wantBase:    1100,
			wantService: 55,
			wantFee:     20,
			wantGST:     13.5,
			wantTotal:   1188.5,
		},
		{
			name: "fixed service charge with custom gst",
			base: 1000,
			cfg: Config{
				Markup:        Charge{Type: Fixed, Value: 150},
				ServiceCharge: Charge{Type: Fixed, Value: 30},
				GSTPercent:    10,
			},
			wantBase:    1150,
			wantService: 30,
			wantGST:     3,
			wantTotal:   1183,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := model.RatePackage{BaseAmount: tt.base}
			if err := ApplyMarkup(&pkg, tt.cfg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pkg.BaseAmount != tt.wantBase {
				t.Errorf("base_amount = %v, want %v", pkg.BaseAmount, tt.wantBase)
			}
			if pkg.ServiceCharge != tt.wantService {
				t.Errorf("service_charge = %v, want %v", pkg.ServiceCharge, tt.wantService)
			}
			if pkg.ProcessingFee != tt.wantFee {
				t.Errorf("processing_fee = %v, want %v", pkg.ProcessingFee, tt.wantFee)
			}
			if pkg.GST != tt.wantGST {
				t.Errorf("gst = %v, want %v", pkg.GST, tt.wantGST)
			}
			if pkg.ChargeableRate != tt.wantTotal {
				t.Errorf("chargeable_rate = %v, want %v", pkg.ChargeableRate, tt.wantTotal)
			}
		})
	}
}

// Markup is applied to whatever base_amount the package currently holds, so a
// second pass compounds it.
func TestApplyMarkup_NotIdempotent(t *testing.T) {
	cfg := Config{Markup: Charge{Type: Percentage, Value: 10}}
	pkg := model.RatePackage{BaseAmount: 1000}

	if err := ApplyMarkup(&pkg, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ApplyMarkup(&pkg, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.BaseAmount != 1210 {
		t.Errorf("expected compounded base_amount 1210, got %v", pkg.BaseAmount)
	}
}

func TestApplyMarkup_UnknownType(t *testing.T) {
	pkg := model.RatePackage{BaseAmount: 1000}
	err := ApplyMarkup(&pkg, Config{Markup: Charge{Type: "tiered", Value: 1}})
	if !errors.Is(err, apperr.ErrConfigUnavailable) {
		t.Fatalf("expected ErrConfigUnavailable, got %v", err)
	}
}

func TestCalculator_Apply(t *testing.T) {
	calc := NewCalculator(stubLoader{cfg: &Config{Markup: Charge{Type: Percentage, Value: 10}}})
	pkg := model.RatePackage{BaseAmount: 1000}

	if err := calc.Apply(context.Background(), &pkg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.BaseAmount != 1100 {
		t.Errorf("expected 1100, got %v", pkg.BaseAmount)
	}
}

func TestCalculator_Apply_ConfigUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		loader stubLoader
	}{
		{"load error", stubLoader{err: errors.New("connection refused")}},
		{"missing document", stubLoader{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := model.RatePackage{BaseAmount: 1000}
			err := NewCalculator(tt.loader).Apply(context.Background(), &pkg)
			if !errors.Is(err, apperr.ErrConfigUnavailable) {
				t.Fatalf("expected ErrConfigUnavailable, got %v", err)
			}
			if pkg.BaseAmount != 1000 {
				t.Errorf("package should be untouched, base_amount = %v", pkg.BaseAmount)
			}
		})
	}
}

func TestCancellationCharge(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		charge Charge
		want   float64
	}{
		{"percentage", 2000, Charge{Type: Percentage, Value: 25}, 500},
		{"fixed", 2000, Charge{Type: Fixed, Value: 300}, 300},
		{"fixed above amount is capped", 200, Charge{Type: Fixed, Value: 300}, 200},
		{"unset", 2000, Charge{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CancellationCharge(tt.amount, tt.charge)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CancellationCharge(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}
