package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// MetaSearchRepo resolves meta-search referral references.
type MetaSearchRepo struct {
	db *sql.DB
}

func NewMetaSearchRepo(db *sql.DB) *MetaSearchRepo {
	return &MetaSearchRepo{db: db}
}

func (r *MetaSearchRepo) FindByReference(ctx context.Context, referenceID string) (*model.MetaSearch, error) {
	var m model.MetaSearch
	err := r.db.QueryRowContext(ctx,
		"SELECT reference_id, vendor_id, vendor, created_at FROM meta_search WHERE reference_id = ? LIMIT 1",
		referenceID).Scan(&m.ReferenceID, &m.VendorID, &m.Vendor, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMetaSearchNotFound
		}
		return nil, err
	}
	return &m, nil
}

// BlockedIPRepo answers whether a client address is refused.
type BlockedIPRepo struct {
	db *sql.DB
}

func NewBlockedIPRepo(db *sql.DB) *BlockedIPRepo {
	return &BlockedIPRepo{db: db}
}

func (r *BlockedIPRepo) IsBlocked(ctx context.Context, ip string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM blocked_ips WHERE ip = ? LIMIT 1", strings.TrimSpace(ip)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
