package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/hotel-booking/internal/pricing"
)

// PricingConfigRepo reads the single pricing document. It implements
// pricing.ConfigLoader and is read on every use, so edits apply at once.
type PricingConfigRepo struct {
	db *sql.DB
}

func NewPricingConfigRepo(db *sql.DB) *PricingConfigRepo {
	return &PricingConfigRepo{db: db}
}

func (r *PricingConfigRepo) LoadConfig(ctx context.Context) (*pricing.Config, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM pricing_config ORDER BY id LIMIT 1").Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return decodeConfig(doc)
}

func decodeConfig(doc []byte) (*pricing.Config, error) {
	var cfg pricing.Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("decode pricing config: %w", err)
	}
	return &cfg, nil
}
