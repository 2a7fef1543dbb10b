// Package booking runs the post-search flow: booking policy, prebook, book
// and cancel, each a passthrough to the supplier recorded on a
// hotel_transactions row.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/pricing"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/supplier"
)

type Supplier interface {
	BookingPolicy(ctx context.Context, req supplier.BookingPolicyRequest) (*supplier.BookingPolicyResult, error)
	Prebook(ctx context.Context, req supplier.PrebookRequest) (*supplier.PrebookResult, error)
	Book(ctx context.Context, req supplier.BookRequest) (*supplier.BookResult, error)
	Cancel(ctx context.Context, req supplier.CancelRequest) (*supplier.CancelResult, error)
}

type HotelReader interface {
	GetHotel(ctx context.Context, localID string) (*model.Hotel, error)
}

type PolicyStore interface {
	Create(ctx context.Context, p *model.BookingPolicy) error
	Get(ctx context.Context, id string) (*model.BookingPolicy, error)
}

type TransactionStore interface {
	Create(ctx context.Context, t *model.HotelTransaction) error
	Update(ctx context.Context, t *model.HotelTransaction) error
	Get(ctx context.Context, id string) (*model.HotelTransaction, error)
	ListForUser(ctx context.Context, userID uint64) ([]*model.HotelTransaction, error)
	ListAll(ctx context.Context, limit, offset int) ([]*model.HotelTransaction, int, error)
}

type HistoryReader interface {
	ListForTransaction(ctx context.Context, transactionID string) ([]model.History, error)
}

// Pricer is the part of pricing.Calculator the booking flow needs.
type Pricer interface {
	Apply(ctx context.Context, pkg *model.RatePackage) error
	Config(ctx context.Context) (*pricing.Config, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Deps bundles the collaborators of a Service. Publisher and History may be
// nil.
type Deps struct {
	Supplier     Supplier
	Hotels       HotelReader
	Policies     PolicyStore
	Transactions TransactionStore
	History      HistoryReader
	Pricer       Pricer
	Publisher    Publisher
	Logger       *slog.Logger
}

type Service struct {
	Deps
	now   func() time.Time
	newID func() string
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{Deps: d, now: time.Now, newID: uuid.NewString}
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uint64
	Admin  bool
}

type PolicyRequest struct {
	HotelID               string `json:"hotel_id"`
	BookingKey            string `json:"booking_key"`
	TransactionIdentifier string `json:"transaction_identifier"`
}

type PrebookRequest struct {
	BookingPolicyID string          `json:"booking_policy_id"`
	Guests          json.RawMessage `json:"guests"`
}

type BookRequest struct {
	TransactionID    string `json:"transaction_id"`
	PaymentReference string `json:"payment_reference"`
}

type CancelRequest struct {
	TransactionID string `json:"transaction_id"`
}

// BookingPolicy fetches the supplier policy for one package of a stored hotel
// and records it with the marked-up price the user will be charged.
func (s *Service) BookingPolicy(ctx context.Context, req PolicyRequest) (*model.BookingPolicy, error) {
	if strings.TrimSpace(req.HotelID) == "" || strings.TrimSpace(req.BookingKey) == "" {
		return nil, fmt.Errorf("%w: hotel_id and booking_key are required", apperr.ErrValidation)
	}
	hotel, err := s.Hotels.GetHotel(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	stored := findRate(hotel, req.BookingKey)
	if stored == nil {
		return nil, fmt.Errorf("%w: booking key %s on hotel %s", apperr.ErrNotFound, req.BookingKey, req.HotelID)
	}

	res, err := s.Supplier.BookingPolicy(ctx, supplier.BookingPolicyRequest{
		HotelID:               hotel.ID,
		BookingKey:            req.BookingKey,
		TransactionIdentifier: req.TransactionIdentifier,
	})
	if err != nil {
		return nil, err
	}

	rate := *stored
	if res.Package != nil {
		rate = *res.Package
		rate.ChargeableRate = 0
	}
	// A zero chargeable rate means the package has not been marked up yet.
	if rate.ChargeableRate == 0 {
		if err := s.Pricer.Apply(ctx, &rate); err != nil {
			return nil, err
		}
	}

	key := req.BookingKey
	if res.BookingKey != "" {
		key = res.BookingKey
	}
	rate.BookingKey = key
	p := &model.BookingPolicy{
		ID:                    s.newID(),
		HotelLocalID:          hotel.LocalID,
		TransactionIdentifier: req.TransactionIdentifier,
		BookingKey:            key,
		Rate:                  rate,
		Policy:                res.CancellationPolicy,
		CreatedAt:             s.now().UTC(),
	}
	if err := s.Policies.Create(ctx, p); err != nil {
		return nil, persistenceErr("create booking policy", err)
	}
	return p, nil
}

// Prebook holds the package with the supplier and opens a pending transaction.
func (s *Service) Prebook(ctx context.Context, actor Actor, req PrebookRequest) (*model.HotelTransaction, error) {
	if strings.TrimSpace(req.BookingPolicyID) == "" {
		return nil, fmt.Errorf("%w: booking_policy_id is required", apperr.ErrValidation)
	}
	if g := strings.TrimSpace(string(req.Guests)); g == "" || g == "null" || g == "[]" {
		return nil, fmt.Errorf("%w: guests are required", apperr.ErrValidation)
	}

	policy, err := s.Policies.Get(ctx, req.BookingPolicyID)
	if err != nil {
		return nil, err
	}
	hotel, err := s.Hotels.GetHotel(ctx, policy.HotelLocalID)
	if err != nil {
		return nil, err
	}

	res, err := s.Supplier.Prebook(ctx, supplier.PrebookRequest{
		BookingKey:            policy.BookingKey,
		TransactionIdentifier: policy.TransactionIdentifier,
		Guests:                req.Guests,
	})
	if err != nil {
		return nil, err
	}
	key := policy.BookingKey
	if res.BookingKey != "" {
		key = res.BookingKey
	}

	t := &model.HotelTransaction{
		ID:                    s.newID(),
		UserID:                actor.UserID,
		HotelLocalID:          hotel.LocalID,
		HotelName:             hotel.Name,
		BookingPolicyID:       policy.ID,
		TransactionIdentifier: policy.TransactionIdentifier,
		BookingKey:            key,
		Status:                model.StatusPending,
		BaseAmount:            policy.Rate.BaseAmount,
		ServiceCharge:         policy.Rate.ServiceCharge,
		ProcessingFee:         policy.Rate.ProcessingFee,
		GST:                   policy.Rate.GST,
		TotalChargeableAmount: policy.Rate.ChargeableRate,
		Guests:                req.Guests,
	}
	if err := s.Transactions.Create(ctx, t); err != nil {
		return nil, persistenceErr("create transaction", err)
	}
	return t, nil
}

// Book confirms a pending transaction with the supplier. A supplier error or
// non-confirmed answer leaves the transaction Failed.
func (s *Service) Book(ctx context.Context, actor Actor, req BookRequest) (*model.HotelTransaction, error) {
	t, err := s.owned(ctx, actor, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: transaction %s is %s, not pending", apperr.ErrValidation, t.ID, t.Status)
	}

	t.PaymentReference = req.PaymentReference
	res, bookErr := s.Supplier.Book(ctx, supplier.BookRequest{
		BookingKey:            t.BookingKey,
		TransactionIdentifier: t.TransactionIdentifier,
		PaymentReference:      req.PaymentReference,
	})
	event := queue.EventBookingFailed
	switch {
	case bookErr != nil:
		t.Status = model.StatusFailed
	case strings.EqualFold(res.Status, supplier.BookingConfirmed):
		t.Status = model.StatusConfirmed
		t.SupplierBookingID = res.BookingID
		event = queue.EventBookingConfirmed
	default:
		t.Status = model.StatusFailed
		bookErr = fmt.Errorf("%w: supplier answered %q", apperr.ErrUpstream, res.Status)
	}

	if err := s.Transactions.Update(ctx, t); err != nil {
		return nil, persistenceErr("update transaction", err)
	}
	s.publish(ctx, event, t)
	if bookErr != nil {
		return nil, bookErr
	}
	return t, nil
}

// Cancel cancels a confirmed booking and records the cancellation charge and
// refund computed from the pricing config.
func (s *Service) Cancel(ctx context.Context, actor Actor, req CancelRequest) (*model.HotelTransaction, error) {
	t, err := s.owned(ctx, actor, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.StatusConfirmed {
		return nil, fmt.Errorf("%w: transaction %s is %s, only confirmed bookings can be cancelled", apperr.ErrValidation, t.ID, t.Status)
	}

	cfg, err := s.Pricer.Config(ctx)
	if err != nil {
		return nil, err
	}
	charge, err := pricing.CancellationCharge(t.TotalChargeableAmount, cfg.CancellationCharge)
	if err != nil {
		return nil, err
	}

	res, err := s.Supplier.Cancel(ctx, supplier.CancelRequest{
		BookingID:             t.SupplierBookingID,
		TransactionIdentifier: t.TransactionIdentifier,
	})
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(res.Status, supplier.BookingCancelled) {
		return nil, fmt.Errorf("%w: supplier answered %q", apperr.ErrUpstream, res.Status)
	}

	t.Status = model.StatusCancelled
	t.CancellationCharge = charge
	t.RefundAmount = decimal.NewFromFloat(t.TotalChargeableAmount).
		Sub(decimal.NewFromFloat(charge)).Round(2).InexactFloat64()
	if err := s.Transactions.Update(ctx, t); err != nil {
		return nil, persistenceErr("update transaction", err)
	}
	s.publish(ctx, queue.EventBookingCancelled, t)
	return t, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]*model.HotelTransaction, error) {
	return s.Transactions.ListForUser(ctx, userID)
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one page of the admin transaction list.
type Page struct {
	Items      []*model.HotelTransaction `json:"items"`
	Page       int                       `json:"page"`
	PageSize   int                       `json:"pageSize"`
	Total      int                       `json:"total"`
	TotalPages int                       `json:"totalPages"`
}

// ListAll pages through every transaction, newest first. page starts at 1.
func (s *Service) ListAll(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	items, total, err := s.Transactions.ListAll(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Detail is a transaction with its audit trail.
type Detail struct {
	Transaction *model.HotelTransaction `json:"transaction"`
	History     []model.History         `json:"history"`
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	t, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Transaction: t, History: []model.History{}}
	if s.History != nil {
		h, err := s.History.ListForTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		d.History = h
	}
	return d, nil
}

// owned loads a transaction the actor may act on. Admins may act on any.
func (s *Service) owned(ctx context.Context, actor Actor, id string) (*model.HotelTransaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: transaction_id is required", apperr.ErrValidation)
	}
	t, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && t.UserID != actor.UserID {
		return nil, fmt.Errorf("%w: transaction %s belongs to another user", apperr.ErrForbidden, id)
	}
	return t, nil
}

// publish is best effort; a broker outage never fails a booking.
func (s *Service) publish(ctx context.Context, event string, t *model.HotelTransaction) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, queue.NewBookingEvent(event, t, s.now())); err != nil {
		s.Logger.Warn("publish booking event failed", "event", event, "transaction_id", t.ID, "error", err)
	}
}

func findRate(h *model.Hotel, bookingKey string) *model.RatePackage {
	for i := range h.Rates {
		if h.Rates[i].BookingKey == bookingKey {
			return &h.Rates[i]
		}
	}
	return nil
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, apperr.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrPersistence, op, err)
}
