package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/pricing"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/supplier"
)

type fakeSupplier struct {
	policy     *supplier.BookingPolicyResult
	bookStatus string
	bookErr    error
	cancelled  string
	cancelErr  error
	cancels    int
}

func (f *fakeSupplier) BookingPolicy(ctx context.Context, req supplier.BookingPolicyRequest) (*supplier.BookingPolicyResult, error) {
	if f.policy == nil {
		return &supplier.BookingPolicyResult{CancellationPolicy: json.RawMessage(`{"free_until":"2026-10-30"}`)}, nil
	}
	return f.policy, nil
}

func (f *fakeSupplier) Prebook(ctx context.Context, req supplier.PrebookRequest) (*supplier.PrebookResult, error) {
	return &supplier.PrebookResult{BookingKey: req.BookingKey + "-held", Status: "ok"}, nil
}

func (f *fakeSupplier) Book(ctx context.Context, req supplier.BookRequest) (*supplier.BookResult, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &supplier.BookResult{BookingID: "SB-1", Status: f.bookStatus}, nil
}

func (f *fakeSupplier) Cancel(ctx context.Context, req supplier.CancelRequest) (*supplier.CancelResult, error) {
	f.cancels++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &supplier.CancelResult{Status: f.cancelled}, nil
}

type hotels map[string]*model.Hotel

func (h hotels) GetHotel(ctx context.Context, id string) (*model.Hotel, error) {
	if v, ok := h[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("hotel %w", apperr.ErrNotFound)
}

type policies map[string]*model.BookingPolicy

func (p policies) Create(ctx context.Context, v *model.BookingPolicy) error {
	p[v.ID] = v
	return nil
}

func (p policies) Get(ctx context.Context, id string) (*model.BookingPolicy, error) {
	if v, ok := p[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("policy %w", apperr.ErrNotFound)
}

type transactions struct {
	rows      map[string]*model.HotelTransaction
	updateErr error
}

func (t *transactions) Create(ctx context.Context, v *model.HotelTransaction) error {
	cp := *v
	t.rows[v.ID] = &cp
	return nil
}

func (t *transactions) Update(ctx context.Context, v *model.HotelTransaction) error {
	if t.updateErr != nil {
		return t.updateErr
	}
	cp := *v
	t.rows[v.ID] = &cp
	return nil
}

func (t *transactions) Get(ctx context.Context, id string) (*model.HotelTransaction, error) {
	if v, ok := t.rows[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, fmt.Errorf("transaction %w", apperr.ErrNotFound)
}

func (t *transactions) ListForUser(ctx context.Context, userID uint64) ([]*model.HotelTransaction, error) {
	var out []*model.HotelTransaction
	for _, v := range t.rows {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *transactions) ListAll(ctx context.Context, limit, offset int) ([]*model.HotelTransaction, int, error) {
	return []*model.HotelTransaction{}, 45, nil
}

type history []model.History

func (h history) ListForTransaction(ctx context.Context, id string) ([]model.History, error) {
	return h, nil
}

type publisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *publisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type loader struct{ cfg *pricing.Config }

func (l loader) LoadConfig(ctx context.Context) (*pricing.Config, error) { return l.cfg, nil }

type fixture struct {
	sup *fakeSupplier
	tx  *transactions
	pub *publisher
	svc *Service
	pol policies
}

func newFixture() *fixture {
	f := &fixture{
		sup: &fakeSupplier{bookStatus: "confirmed", cancelled: "cancelled"},
		tx:  &transactions{rows: map[string]*model.HotelTransaction{}},
		pub: &publisher{},
		pol: policies{},
	}
	cfg := &pricing.Config{
		Markup:             pricing.Charge{Type: pricing.Percentage, Value: 10},
		ServiceCharge:      pricing.Charge{Type: pricing.Percentage, Value: 5},
		ProcessingFee:      20,
		CancellationCharge: pricing.Charge{Type: pricing.Percentage, Value: 10},
	}
	ids := 0
	f.svc = NewService(Deps{
		Supplier: f.sup,
		Hotels: hotels{"local-1": {
			LocalID: "local-1", ID: "SUP-1", Name: "Sea View",
			Rates: []model.RatePackage{{BookingKey: "BK-1", BaseAmount: 1000}},
		}},
		Policies:     f.pol,
		Transactions: f.tx,
		History:      history{{Event: queue.EventBookingConfirmed, TransactionID: "tx"}},
		Pricer:       pricing.NewCalculator(loader{cfg}),
		Publisher:    f.pub,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	f.svc.newID = func() string { ids++; return fmt.Sprintf("id-%d", ids) }
	return f
}

var guests = json.RawMessage(`[{"first_name":"A","last_name":"B"}]`)

// confirmed runs policy, prebook and book and returns the transaction id.
func (f *fixture) confirmed(t *testing.T, actor Actor) string {
	t.Helper()
	ctx := context.Background()
	p, err := f.svc.BookingPolicy(ctx, PolicyRequest{HotelID: "local-1", BookingKey: "BK-1", TransactionIdentifier: "TX"})
	if err != nil {
		t.Fatalf("BookingPolicy: %v", err)
	}
	tx, err := f.svc.Prebook(ctx, actor, PrebookRequest{BookingPolicyID: p.ID, Guests: guests})
	if err != nil {
		t.Fatalf("Prebook: %v", err)
	}
	if _, err := f.svc.Book(ctx, actor, BookRequest{TransactionID: tx.ID, PaymentReference: "PAY-1"}); err != nil {
		t.Fatalf("Book: %v", err)
	}
	return tx.ID
}

func TestBookingPolicyMarksUpStoredRate(t *testing.T) {
	f := newFixture()
	p, err := f.svc.BookingPolicy(context.Background(), PolicyRequest{HotelID: "local-1", BookingKey: "BK-1", TransactionIdentifier: "TX"})
	if err != nil {
		t.Fatalf("BookingPolicy: %v", err)
	}
	// 1000 -> 1100, service 55, fee 20, gst 18% of 75 = 13.5.
	if p.Rate.BaseAmount != 1100 || p.Rate.ChargeableRate != 1188.5 {
		t.Fatalf("rate = %+v", p.Rate)
	}
	if _, ok := f.pol[p.ID]; !ok || len(p.Policy) == 0 {
		t.Fatalf("policy not stored: %+v", p)
	}
}

func TestBookingPolicyUsesSupplierPackage(t *testing.T) {
	f := newFixture()
	f.sup.policy = &supplier.BookingPolicyResult{
		BookingKey: "BK-2",
		Package:    &model.RatePackage{BookingKey: "BK-2", BaseAmount: 2000, ChargeableRate: 2000},
	}
	p, err := f.svc.BookingPolicy(context.Background(), PolicyRequest{HotelID: "local-1", BookingKey: "BK-1"})
	if err != nil {
		t.Fatalf("BookingPolicy: %v", err)
	}
	if p.BookingKey != "BK-2" || p.Rate.BaseAmount != 2200 {
		t.Fatalf("policy = %+v", p)
	}
}

func TestBookingPolicyErrors(t *testing.T) {
	f := newFixture()
	tests := map[string]struct {
		req  PolicyRequest
		want error
	}{
		"missing key":   {PolicyRequest{HotelID: "local-1"}, apperr.ErrValidation},
		"unknown hotel": {PolicyRequest{HotelID: "nope", BookingKey: "BK-1"}, apperr.ErrNotFound},
		"unknown key":   {PolicyRequest{HotelID: "local-1", BookingKey: "BK-9"}, apperr.ErrNotFound},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.BookingPolicy(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPrebookAndBook(t *testing.T) {
	f := newFixture()
	actor := Actor{UserID: 7}
	id := f.confirmed(t, actor)

	got := f.tx.rows[id]
	if got.Status != model.StatusConfirmed || got.SupplierBookingID != "SB-1" || got.PaymentReference != "PAY-1" {
		t.Fatalf("transaction = %+v", got)
	}
	if got.TotalChargeableAmount != 1188.5 || got.HotelName != "Sea View" || got.BookingKey != "BK-1-held" {
		t.Fatalf("transaction = %+v", got)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Event != queue.EventBookingConfirmed {
		t.Fatalf("events = %+v", f.pub.events)
	}
}

func TestPrebookRequiresGuests(t *testing.T) {
	f := newFixture()
	for _, g := range []string{"", "null", "[]"} {
		_, err := f.svc.Prebook(context.Background(), Actor{UserID: 1}, PrebookRequest{BookingPolicyID: "p", Guests: json.RawMessage(g)})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("guests %q: err = %v", g, err)
		}
	}
}

func TestBookFailures(t *testing.T) {
	t.Run("supplier error marks failed", func(t *testing.T) {
		f := newFixture()
		f.sup.bookErr = fmt.Errorf("%w: 502", apperr.ErrUpstream)
		ctx := context.Background()
		p, _ := f.svc.BookingPolicy(ctx, PolicyRequest{HotelID: "local-1", BookingKey: "BK-1"})
		tx, _ := f.svc.Prebook(ctx, Actor{UserID: 1}, PrebookRequest{BookingPolicyID: p.ID, Guests: guests})

		if _, err := f.svc.Book(ctx, Actor{UserID: 1}, BookRequest{TransactionID: tx.ID}); !errors.Is(err, apperr.ErrUpstream) {
			t.Fatalf("err = %v", err)
		}
		if f.tx.rows[tx.ID].Status != model.StatusFailed {
			t.Fatalf("status = %v", f.tx.rows[tx.ID].Status)
		}
		if len(f.pub.events) != 1 || f.pub.events[0].Event != queue.EventBookingFailed {
			t.Fatalf("events = %+v", f.pub.events)
		}
	})

	t.Run("other user", func(t *testing.T) {
		f := newFixture()
		id := f.confirmed(t, Actor{UserID: 1})
		if _, err := f.svc.Book(context.Background(), Actor{UserID: 2}, BookRequest{TransactionID: id}); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("already confirmed", func(t *testing.T) {
		f := newFixture()
		id := f.confirmed(t, Actor{UserID: 1})
		if _, err := f.svc.Book(context.Background(), Actor{UserID: 1}, BookRequest{TransactionID: id}); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("publish failure is ignored", func(t *testing.T) {
		f := newFixture()
		f.pub.err = errors.New("broker down")
		f.confirmed(t, Actor{UserID: 1})
	})
}

func TestCancel(t *testing.T) {
	f := newFixture()
	id := f.confirmed(t, Actor{UserID: 7})

	got, err := f.svc.Cancel(context.Background(), Actor{UserID: 7}, CancelRequest{TransactionID: id})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// 10% of 1188.5 = 118.85 withheld.
	if got.Status != model.StatusCancelled || got.CancellationCharge != 118.85 || got.RefundAmount != 1069.65 {
		t.Fatalf("transaction = %+v", got)
	}
	if last := f.pub.events[len(f.pub.events)-1]; last.Event != queue.EventBookingCancelled || last.RefundAmount != 1069.65 {
		t.Fatalf("last event = %+v", last)
	}

	if _, err := f.svc.Cancel(context.Background(), Actor{UserID: 7}, CancelRequest{TransactionID: id}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("second cancel err = %v", err)
	}
}

func TestCancelByAdmin(t *testing.T) {
	f := newFixture()
	id := f.confirmed(t, Actor{UserID: 7})

	if _, err := f.svc.Cancel(context.Background(), Actor{UserID: 8}, CancelRequest{TransactionID: id}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-owner err = %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), Actor{UserID: 1, Admin: true}, CancelRequest{TransactionID: id}); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestCancelSupplierRefuses(t *testing.T) {
	f := newFixture()
	id := f.confirmed(t, Actor{UserID: 7})
	f.sup.cancelled = "pending"

	if _, err := f.svc.Cancel(context.Background(), Actor{UserID: 7}, CancelRequest{TransactionID: id}); !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("err = %v", err)
	}
	if f.tx.rows[id].Status != model.StatusConfirmed {
		t.Fatalf("status changed to %v", f.tx.rows[id].Status)
	}
}

func TestListAllPaging(t *testing.T) {
	f := newFixture()
	p, err := f.svc.ListAll(context.Background(), 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if p.Page != 1 || p.PageSize != MaxPageSize || p.Total != 45 || p.TotalPages != 1 {
		t.Fatalf("page = %+v", p)
	}
	p, _ = f.svc.ListAll(context.Background(), 2, 0)
	if p.PageSize != DefaultPageSize || p.TotalPages != 3 {
		t.Fatalf("page = %+v", p)
	}
}

func TestGetIncludesHistory(t *testing.T) {
	f := newFixture()
	id := f.confirmed(t, Actor{UserID: 7})
	d, err := f.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if d.Transaction.ID != id || len(d.History) != 1 {
		t.Fatalf("detail = %+v", d)
	}
	if _, err := f.svc.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
