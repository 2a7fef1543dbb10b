package model

import "time"

// MetaSearch links an external meta-search referral (referenceId) to the
// vendor reference attached to package searches.
type MetaSearch struct {
	ReferenceID string    `json:"reference_id"`
	VendorID    string    `json:"vendor_id"`
	Vendor      string    `json:"vendor"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlockedIP is a client address that is refused at the edge.
type BlockedIP struct {
	IP        string    `json:"ip"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// History is one audit line written by the booking event consumer.
type History struct {
	ID            uint64    `json:"id"`
	Event         string    `json:"event"`
	TransactionID string    `json:"transaction_id"`
	UserID        uint64    `json:"user_id"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}
