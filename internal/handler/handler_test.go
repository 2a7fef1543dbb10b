package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/search"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

type fakeSearch struct {
	hotels   func(search.HotelSearchRequest) (*search.HotelSearchResponse, error)
	packages func(search.PackageSearchRequest) (*search.PackageSearchResponse, error)
	suggest  func(string) (json.RawMessage, error)
}

func (f fakeSearch) SearchHotels(ctx context.Context, r search.HotelSearchRequest) (*search.HotelSearchResponse, error) {
	return f.hotels(r)
}

func (f fakeSearch) SearchPackages(ctx context.Context, r search.PackageSearchRequest) (*search.PackageSearchResponse, error) {
	return f.packages(r)
}

func (f fakeSearch) Autosuggest(ctx context.Context, q string) (json.RawMessage, error) {
	return f.suggest(q)
}

func post(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return out.Message
}

func TestSearchHotelsHandler(t *testing.T) {
	var got search.HotelSearchRequest
	h := NewSearchHandler(fakeSearch{hotels: func(r search.HotelSearchRequest) (*search.HotelSearchResponse, error) {
		got = r
		return &search.HotelSearchResponse{Page: r.Page, TotalPages: 2, Status: search.StatusInProgress, Hotels: []model.Hotel{}}, nil
	}})

	rec := post(t, h.Hotels, `{"checkin":"2026-11-01","checkout":"2026-11-02","details":[{"adult_count":2}],
		"page":1,"perPage":20,"currentHotelsCount":0,"filters":{"starRating":[4,5]}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if got.PerPage != 20 || len(got.Details) != 1 || len(got.Filters.StarRating) != 2 {
		t.Fatalf("bound request = %+v", got)
	}
	var resp search.HotelSearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.TotalPages != 2 || resp.Status != "in-progress" {
		t.Fatalf("response %s (%v)", rec.Body, err)
	}
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: details is required", apperr.ErrValidation), http.StatusBadRequest, "validation failed: details is required"},
		{fmt.Errorf("%w: page 3 exceeds total pages 2", apperr.ErrInvalidPage), http.StatusUnprocessableEntity, "invalid page: page 3 exceeds total pages 2"},
		{fmt.Errorf("%w: no hotels found", apperr.ErrNotFound), http.StatusNotFound, "not found: no hotels found"},
		{fmt.Errorf("%w: dial tcp 10.0.0.5:443: refused", apperr.ErrUpstream), http.StatusInternalServerError, "supplier request failed"},
		{fmt.Errorf("%w: sql: no rows", apperr.ErrConfigUnavailable), http.StatusInternalServerError, "pricing config unavailable"},
		{fmt.Errorf("%w: insert hotels: deadlock", apperr.ErrPersistence), http.StatusInternalServerError, "persistence failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			h := NewSearchHandler(fakeSearch{hotels: func(search.HotelSearchRequest) (*search.HotelSearchResponse, error) {
				return nil, tt.err
			}})
			rec := post(t, h.Hotels, `{}`)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if m := message(t, rec); m != tt.msg {
				t.Fatalf("message = %q, want %q", m, tt.msg)
			}
		})
	}
}

func TestSearchBadBody(t *testing.T) {
	h := NewSearchHandler(fakeSearch{})
	for name, fn := range map[string]echo.HandlerFunc{"hotels": h.Hotels, "packages": h.Packages, "autosuggest": h.Autosuggest} {
		if rec := post(t, fn, `{"page":`); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestPackagesAndAutosuggest(t *testing.T) {
	h := NewSearchHandler(fakeSearch{
		packages: func(r search.PackageSearchRequest) (*search.PackageSearchResponse, error) {
			return &search.PackageSearchResponse{Hotel: model.Hotel{LocalID: r.HotelID}, MetaSearchID: "V-1"}, nil
		},
		suggest: func(q string) (json.RawMessage, error) {
			return json.RawMessage(`[{"name":"` + q + `"}]`), nil
		},
	})

	rec := post(t, h.Packages, `{"hotel_id":"L-1","referenceId":"R"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"meta_search_id":"V-1"`) {
		t.Fatalf("packages: %d %s", rec.Code, rec.Body)
	}

	rec = post(t, h.Autosuggest, `{"query":"Goa"}`)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"data":[{"name":"Goa"}]}` {
		t.Fatalf("autosuggest: %d %s", rec.Code, rec.Body)
	}
}

type fakeBookings struct {
	lastActor booking.Actor
	cancelErr error
}

func (f *fakeBookings) BookingPolicy(ctx context.Context, r booking.PolicyRequest) (*model.BookingPolicy, error) {
	return &model.BookingPolicy{ID: "P-1", HotelLocalID: r.HotelID, BookingKey: r.BookingKey}, nil
}

func (f *fakeBookings) Prebook(ctx context.Context, a booking.Actor, r booking.PrebookRequest) (*model.HotelTransaction, error) {
	f.lastActor = a
	return &model.HotelTransaction{ID: "T-1", UserID: a.UserID, BookingPolicyID: r.BookingPolicyID}, nil
}

func (f *fakeBookings) Book(ctx context.Context, a booking.Actor, r booking.BookRequest) (*model.HotelTransaction, error) {
	f.lastActor = a
	return &model.HotelTransaction{ID: r.TransactionID, Status: model.StatusConfirmed}, nil
}

func (f *fakeBookings) Cancel(ctx context.Context, a booking.Actor, r booking.CancelRequest) (*model.HotelTransaction, error) {
	f.lastActor = a
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &model.HotelTransaction{ID: r.TransactionID, Status: model.StatusCancelled}, nil
}

func (f *fakeBookings) ListForUser(ctx context.Context, id uint64) ([]*model.HotelTransaction, error) {
	return nil, nil
}

func (f *fakeBookings) ListAll(ctx context.Context, page, size int) (*booking.Page, error) {
	return &booking.Page{Items: []*model.HotelTransaction{}, Page: page, PageSize: size}, nil
}

func (f *fakeBookings) Get(ctx context.Context, id string) (*booking.Detail, error) {
	if id != "T-1" {
		return nil, fmt.Errorf("transaction %w", apperr.ErrNotFound)
	}
	return &booking.Detail{Transaction: &model.HotelTransaction{ID: id}, History: []model.History{}}, nil
}

func bookingServer(f *fakeBookings) *echo.Echo {
	h := NewBookingHandler(f)
	e := echo.New()
	auth := middleware.JWTAuth("secret")
	e.POST("/prebook", h.Prebook, auth)
	e.POST("/cancel", h.Cancel, auth)
	e.GET("/transactions", h.Transactions, auth)
	admin := e.Group("/admin", auth, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/transactions", h.AdminTransactions)
	admin.GET("/transactions/:id", h.AdminTransaction)
	return e
}

func call(e *echo.Echo, method, path, body, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		tok, _ := utils.NewAccessToken("secret", 7, role, 5)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBookingHandlers(t *testing.T) {
	f := &fakeBookings{}
	e := bookingServer(f)

	rec := call(e, http.MethodPost, "/prebook", `{"booking_policy_id":"P-1","guests":[{"name":"A"}]}`, model.RoleCustomer)
	if rec.Code != http.StatusCreated || f.lastActor.UserID != 7 || f.lastActor.Admin {
		t.Fatalf("prebook: %d %s actor %+v", rec.Code, rec.Body, f.lastActor)
	}

	if rec := call(e, http.MethodPost, "/prebook", `{}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous prebook: %d", rec.Code)
	}

	rec = call(e, http.MethodGet, "/transactions", "", model.RoleCustomer)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"items":[]}` {
		t.Fatalf("transactions: %d %s", rec.Code, rec.Body)
	}

	rec = call(e, http.MethodPost, "/cancel", `{"transaction_id":"T-1"}`, model.RoleAdmin)
	if rec.Code != http.StatusOK || !f.lastActor.Admin {
		t.Fatalf("admin cancel: %d actor %+v", rec.Code, f.lastActor)
	}

	f.cancelErr = fmt.Errorf("%w: only confirmed bookings can be cancelled", apperr.ErrValidation)
	if rec := call(e, http.MethodPost, "/cancel", `{"transaction_id":"T-1"}`, model.RoleCustomer); rec.Code != http.StatusBadRequest {
		t.Fatalf("cancel pending: %d", rec.Code)
	}
}

func TestAdminHandlers(t *testing.T) {
	e := bookingServer(&fakeBookings{})

	if rec := call(e, http.MethodGet, "/admin/transactions", "", model.RoleCustomer); rec.Code != http.StatusForbidden {
		t.Fatalf("customer on admin: %d", rec.Code)
	}

	rec := call(e, http.MethodGet, "/admin/transactions?page=2&pageSize=5", "", model.RoleAdmin)
	var p booking.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil || p.Page != 2 || p.PageSize != 5 {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}

	if rec := call(e, http.MethodGet, "/admin/transactions/T-1", "", model.RoleAdmin); rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	if rec := call(e, http.MethodGet, "/admin/transactions/T-9", "", model.RoleAdmin); rec.Code != http.StatusNotFound {
		t.Fatalf("get missing: %d", rec.Code)
	}
}

type memUsers struct {
	byID map[uint64]*model.User
}

func (m *memUsers) Create(ctx context.Context, u *model.User) error {
	for _, v := range m.byID {
		if v.Email == u.Email {
			return fmt.Errorf("%w: email already exists", apperr.ErrValidation)
		}
	}
	u.ID = uint64(len(m.byID) + 1)
	u.IsActive = true
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, v := range m.byID {
		if v.Email == email {
			return v, nil
		}
	}
	return nil, fmt.Errorf("user %w", apperr.ErrNotFound)
}

func (m *memUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	if v, ok := m.byID[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("user %w", apperr.ErrNotFound)
}

type memTokens struct {
	rows map[string]model.RefreshToken
	used map[string]bool
}

func (m *memTokens) Store(ctx context.Context, t model.RefreshToken) error {
	m.rows[t.TokenHash] = t
	return nil
}

func (m *memTokens) Consume(ctx context.Context, hash string, now time.Time) (uint64, error) {
	t, ok := m.rows[hash]
	if !ok || m.used[hash] || now.After(t.ExpiresAt) {
		return 0, fmt.Errorf("%w: refresh token invalid or expired", apperr.ErrUnauthorized)
	}
	m.used[hash] = true
	return t.UserID, nil
}

func TestAuthFlow(t *testing.T) {
	h := NewAuthHandler(AuthConfig{JWTSecret: "secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4},
		&memUsers{byID: map[uint64]*model.User{}},
		&memTokens{rows: map[string]model.RefreshToken{}, used: map[string]bool{}})

	rec := post(t, h.Register, `{"email":" Guest@Example.com ","password":"longenough","phone":"+91 99"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	var reg authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatal(err)
	}
	if reg.User.Email != "guest@example.com" || reg.User.Role != model.RoleCustomer || reg.Refresh.Token == "" {
		t.Fatalf("register resp = %+v", reg)
	}

	if rec := post(t, h.Register, `{"email":"guest@example.com","password":"longenough"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: %d", rec.Code)
	}
	if rec := post(t, h.Register, `{"email":"b@example.com","password":"short"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: %d", rec.Code)
	}

	if rec := post(t, h.Login, `{"email":"guest@example.com","password":"wrong-password"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}
	if rec := post(t, h.Login, `{"email":"nobody@example.com","password":"whatever1"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown login: %d", rec.Code)
	}
	if rec := post(t, h.Login, `{"email":"guest@example.com","password":"longenough"}`); rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}

	body := `{"refresh_token":"` + reg.Refresh.Token + `"}`
	if rec := post(t, h.Refresh, body); rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body)
	}
	if rec := post(t, h.Refresh, body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh reuse: %d", rec.Code)
	}

	e := echo.New()
	e.GET("/me", h.Me, middleware.JWTAuth("secret"))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+reg.Access.Token)
	me := httptest.NewRecorder()
	e.ServeHTTP(me, req)
	if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), `"phone":"+91 99"`) {
		t.Fatalf("me: %d %s", me.Code, me.Body)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("health: %d %s", rec.Code, rec.Body)
	}
}
