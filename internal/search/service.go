// Package search implements the hotel search pipeline: fetch (or serve from
// cache), paginate, persist, mark up, filter and respond.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/hotel-booking/internal/apperr"
	"github.com/iliyamo/hotel-booking/internal/cache"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/supplier"
)

// Supplier is the part of the supplier API the search pipeline calls.
type Supplier interface {
	Search(ctx context.Context, criteria supplier.SearchCriteria) (*supplier.SearchResponse, error)
	Autosuggest(ctx context.Context, query string) (json.RawMessage, error)
}

// HotelStore persists hotels served to clients.
type HotelStore interface {
	InsertHotels(ctx context.Context, transactionIdentifier string, hotels []model.Hotel) error
	GetHotel(ctx context.Context, localID string) (*model.Hotel, error)
	UpdateRates(ctx context.Context, localID string, rates []model.RatePackage) error
}

// Pricer marks a rate package up in place.
type Pricer interface {
	Apply(ctx context.Context, pkg *model.RatePackage) error
}

// MetaSearchLookup resolves an external meta-search referral.
type MetaSearchLookup interface {
	FindByReference(ctx context.Context, referenceID string) (*model.MetaSearch, error)
}

// Recorder receives pipeline metrics. obs.Metrics implements it.
type Recorder interface {
	ObserveCache(namespace, result string)
	ObserveSearch(operation string, err error)
}

// Options tunes caching.
type Options struct {
	CachePrefix    string
	SearchTTL      time.Duration
	AutosuggestTTL time.Duration
}

// DefaultOptions mirrors the production cache lifetimes.
func DefaultOptions() Options {
	return Options{
		CachePrefix:    "hotels",
		SearchTTL:      300 * time.Second,
		AutosuggestTTL: 7200 * time.Second,
	}
}

// Deps bundles the collaborators of a Service. Cache, Meta and Metrics may be
// nil.
type Deps struct {
	Supplier Supplier
	Cache    cache.Store
	Hotels   HotelStore
	Pricer   Pricer
	Meta     MetaSearchLookup
	Metrics  Recorder
	Logger   *slog.Logger
}

// Service runs the search pipeline. It holds no per-request state.
type Service struct {
	supplier Supplier
	cache    cache.Store
	hotels   HotelStore
	pricer   Pricer
	meta     MetaSearchLookup
	metrics  Recorder
	logger   *slog.Logger
	opts     Options
	tracer   trace.Tracer
	newID    func() string
}

// NewService creates a Service.
func NewService(deps Deps, opts Options) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		supplier: deps.Supplier,
		cache:    deps.Cache,
		hotels:   deps.Hotels,
		pricer:   deps.Pricer,
		meta:     deps.Meta,
		metrics:  deps.Metrics,
		logger:   logger,
		opts:     opts,
		tracer:   otel.Tracer("github.com/iliyamo/hotel-booking/internal/search"),
		newID:    uuid.NewString,
	}
}

// PriceSummary is the price range of the hotels on a page.
type PriceSummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// HotelSearchResponse is the envelope returned by SearchHotels.
type HotelSearchResponse struct {
	CurrentHotelsCount    int           `json:"currentHotelsCount"`
	TotalHotelsCount      int           `json:"totalHotelsCount"`
	Page                  int           `json:"page"`
	PerPage               int           `json:"perPage"`
	TotalPages            int           `json:"totalPages"`
	Status                string        `json:"status"`
	Price                 PriceSummary  `json:"price"`
	TransactionIdentifier string        `json:"transaction_identifier,omitempty"`
	Hotels                []model.Hotel `json:"hotels"`
}

// PackageSearchResponse is the envelope returned by SearchPackages.
type PackageSearchResponse struct {
	Hotel                 model.Hotel `json:"hotel"`
	TotalPackagesCount    int         `json:"totalPackagesCount"`
	TransactionIdentifier string      `json:"transaction_identifier,omitempty"`
	MetaSearchID          string      `json:"meta_search_id,omitempty"`
}

// SearchHotels serves one page of a hotel search. Any failure after
// validation aborts the whole page; no partial hotel list is returned.
func (s *Service) SearchHotels(ctx context.Context, req HotelSearchRequest) (resp *HotelSearchResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "search.hotels")
	defer func() {
		s.finish(span, "searchHotels", err)
	}()

	if err := req.Normalize(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.page", req.Page), attribute.Int("search.per_page", req.PerPage))

	criteria := req.criteria()
	keyCriteria := criteria
	keyCriteria.TransactionIdentifier = ""
	raw, err := cached(ctx, s, "search", keyCriteria, s.opts.SearchTTL,
		func(ctx context.Context) (*supplier.SearchResponse, error) {
			return s.supplier.Search(ctx, criteria)
		},
		func(r *supplier.SearchResponse) bool { return r != nil && r.Data != nil },
	)
	if err != nil {
		return nil, err
	}
	if raw == nil || raw.Data == nil || raw.Data.TotalHotelsCount < 1 {
		return nil, fmt.Errorf("%w: no hotels found", apperr.ErrNotFound)
	}
	data := raw.Data

	window, err := ComputeWindow(req.Page, req.PerPage, req.CurrentHotelsCount, data.TotalHotelsCount)
	if err != nil {
		return nil, err
	}

	// Copy the slice so marking up never touches a list that may be shared
	// with the cache layer.
	page := cloneHotels(Slice(data.Hotels, window))
	for i := range page {
		page[i].LocalID = s.newID()
	}

	txID := data.TransactionIdentifier
	if txID == "" {
		txID = req.TransactionIdentifier
	}
	if err := s.hotels.InsertHotels(ctx, txID, page); err != nil {
		return nil, persistenceErr("insert hotels", err)
	}

	firsts := make([]*model.RatePackage, 0, len(page))
	for i := range page {
		if first := page[i].FirstRate(); first != nil {
			firsts = append(firsts, first)
		}
	}
	if err := s.applyAll(ctx, firsts, req.PerPage); err != nil {
		return nil, err
	}

	// minPrice starts at 0 and only moves for a cheaper (negative) price.
	var price PriceSummary
	for _, p := range firsts {
		if p.BaseAmount < price.Min {
			price.Min = p.BaseAmount
		}
		if p.BaseAmount > price.Max {
			price.Max = p.BaseAmount
		}
	}

	return &HotelSearchResponse{
		CurrentHotelsCount:    window.NextCurrentItemsCount,
		TotalHotelsCount:      data.TotalHotelsCount,
		Page:                  req.Page,
		PerPage:               req.PerPage,
		TotalPages:            window.TotalPages,
		Status:                window.Status,
		Price:                 price,
		TransactionIdentifier: txID,
		Hotels:                Filter(page, req.Filters),
	}, nil
}

// SearchPackages re-fetches every rate of a stored hotel, marks all of them up
// and stores the refreshed list on the hotel record.
func (s *Service) SearchPackages(ctx context.Context, req PackageSearchRequest) (resp *PackageSearchResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "search.packages")
	defer func() {
		s.finish(span, "searchPackages", err)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.hotels.GetHotel(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}

	raw, err := s.supplier.Search(ctx, supplier.SearchCriteria{
		Checkin:               req.Checkin,
		Checkout:              req.Checkout,
		Details:               req.Details,
		HotelID:               stored.ID,
		Nationality:           req.Nationality,
		Currency:              req.Currency,
		TransactionIdentifier: req.TransactionIdentifier,
	})
	if err != nil {
		return nil, upstreamErr(err)
	}
	if raw == nil || raw.Data == nil {
		return nil, fmt.Errorf("%w: no packages found for hotel %s", apperr.ErrNotFound, req.HotelID)
	}
	fresh := findHotel(raw.Data.Hotels, stored.ID)
	if fresh == nil || len(fresh.Rates) == 0 {
		return nil, fmt.Errorf("%w: no packages found for hotel %s", apperr.ErrNotFound, req.HotelID)
	}

	rates := append([]model.RatePackage(nil), fresh.Rates...)
	pkgs := make([]*model.RatePackage, len(rates))
	for i := range rates {
		pkgs[i] = &rates[i]
	}
	if err := s.applyAll(ctx, pkgs, MaxPerPage); err != nil {
		return nil, err
	}

	if err := s.hotels.UpdateRates(ctx, stored.LocalID, rates); err != nil {
		return nil, persistenceErr("update rates", err)
	}

	hotel := *stored
	hotel.Rates = rates

	totalPackages := raw.Data.TotalPackagesCount
	if totalPackages == 0 {
		totalPackages = len(rates)
	}
	out := &PackageSearchResponse{
		Hotel:                 hotel,
		TotalPackagesCount:    totalPackages,
		TransactionIdentifier: raw.Data.TransactionIdentifier,
	}

	if ref := strings.TrimSpace(req.ReferenceID); ref != "" && s.meta != nil {
		ms, err := s.meta.FindByReference(ctx, ref)
		switch {
		case err == nil:
			out.MetaSearchID = ms.VendorID
		case errors.Is(err, apperr.ErrNotFound):
			s.logger.Info("meta search reference not found", "reference_id", ref)
		default:
			return nil, err
		}
	}
	return out, nil
}

// Autosuggest proxies the supplier autosuggest, cached for AutosuggestTTL.
func (s *Service) Autosuggest(ctx context.Context, query string) (out json.RawMessage, err error) {
	ctx, span := s.tracer.Start(ctx, "search.autosuggest")
	defer func() {
		s.finish(span, "autosuggest", err)
	}()

	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrValidation)
	}
	return cached(ctx, s, "autosuggest", strings.ToLower(q), s.opts.AutosuggestTTL,
		func(ctx context.Context) (json.RawMessage, error) {
			return s.supplier.Autosuggest(ctx, q)
		},
		func(r json.RawMessage) bool { return len(r) > 0 && string(r) != "null" },
	)
}

// applyAll marks every package up with at most workers calls in flight. The
// first failure cancels the remaining calls and is returned.
func (s *Service) applyAll(ctx context.Context, pkgs []*model.RatePackage, workers int) error {
	if len(pkgs) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		sem      = make(chan struct{}, workers)
	)
	for _, pkg := range pkgs {
		pkg := pkg
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			if err := s.pricer.Apply(ctx, pkg); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (s *Service) finish(span trace.Span, operation string, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
	if s.metrics != nil {
		s.metrics.ObserveSearch(operation, err)
	}
}

// cached serves fetch through the cache store. Cache failures are logged and
// fall through to fetch; fetch failures are returned as upstream errors.
func cached[T any](ctx context.Context, s *Service, namespace string, keyParts any, ttl time.Duration,
	fetch func(context.Context) (T, error), cacheable func(T) bool) (T, error) {
	var zero T

	key := ""
	if s.cache != nil {
		k, err := cache.Key(s.opts.CachePrefix, namespace, keyParts)
		if err != nil {
			s.logger.Warn("cache key failed", "namespace", namespace, "error", err)
		} else {
			key = k
		}
	}

	if key != "" {
		var hit T
		err := cache.GetJSON(ctx, s.cache, key, &hit)
		switch {
		case err == nil:
			s.observeCache(namespace, "hit")
			return hit, nil
		case errors.Is(err, cache.ErrMiss):
			s.observeCache(namespace, "miss")
		default:
			s.observeCache(namespace, "error")
			s.logger.Warn("cache get failed", "namespace", namespace, "key", key, "error", err)
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return zero, upstreamErr(err)
	}

	if key != "" && cacheable(v) {
		if err := cache.SetJSON(ctx, s.cache, key, v, ttl); err != nil {
			s.logger.Warn("cache set failed", "namespace", namespace, "key", key, "error", err)
		}
	}
	return v, nil
}

func (s *Service) observeCache(namespace, result string) {
	if s.metrics != nil {
		s.metrics.ObserveCache(namespace, result)
	}
}

func findHotel(hotels []model.Hotel, id string) *model.Hotel {
	for i := range hotels {
		if hotels[i].ID == id {
			return &hotels[i]
		}
	}
	return nil
}

func cloneHotels(in []model.Hotel) []model.Hotel {
	out := make([]model.Hotel, len(in))
	for i, h := range in {
		h.Rates = append([]model.RatePackage(nil), h.Rates...)
		out[i] = h
	}
	return out
}

func upstreamErr(err error) error {
	if errors.Is(err, apperr.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, apperr.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrPersistence, op, err)
}
