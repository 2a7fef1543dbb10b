// Package supplier is the HTTP client for the third-party hotel supplier API.
package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/hotel-booking/internal/apperr"
)

// Observer receives one call per supplier request.
type Observer interface {
	ObserveSupplier(op string, elapsed time.Duration, err error)
}

// Client talks JSON over HTTP to the supplier. Each call is a single attempt;
// the http.Client timeout is the only bound on its duration.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observer   Observer
	tracer     trace.Tracer
}

// NewClient creates a Client. observer may be nil.
func NewClient(baseURL, apiKey string, timeout time.Duration, observer Observer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		observer:   observer,
		tracer:     otel.Tracer("github.com/iliyamo/hotel-booking/internal/supplier"),
	}
}

// Search runs POST /search.
func (c *Client) Search(ctx context.Context, criteria SearchCriteria) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.post(ctx, "search", "/search", criteria, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Autosuggest runs POST /autosuggest and returns the raw data payload.
func (c *Client) Autosuggest(ctx context.Context, query string) (json.RawMessage, error) {
	var out AutosuggestResponse
	if err := c.post(ctx, "autosuggest", "/autosuggest", AutosuggestRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// BookingPolicy runs POST /bookingpolicy.
func (c *Client) BookingPolicy(ctx context.Context, req BookingPolicyRequest) (*BookingPolicyResult, error) {
	var out BookingPolicyResponse
	if err := c.post(ctx, "bookingpolicy", "/bookingpolicy", req, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: bookingpolicy returned no data", apperr.ErrUpstream)
	}
	return out.Data, nil
}

// Prebook runs POST /prebook.
func (c *Client) Prebook(ctx context.Context, req PrebookRequest) (*PrebookResult, error) {
	var out PrebookResponse
	if err := c.post(ctx, "prebook", "/prebook", req, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: prebook returned no data", apperr.ErrUpstream)
	}
	return out.Data, nil
}

// Book runs POST /book.
func (c *Client) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	var out BookResponse
	if err := c.post(ctx, "book", "/book", req, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: book returned no data", apperr.ErrUpstream)
	}
	return out.Data, nil
}

// Cancel runs POST /cancel.
func (c *Client) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	var out CancelResponse
	if err := c.post(ctx, "cancel", "/cancel", req, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: cancel returned no data", apperr.ErrUpstream)
	}
	return out.Data, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "supplier."+op, trace.WithAttributes(attribute.String("supplier.path", path)))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveSupplier(op, time.Since(start), err)
		}
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode %s request: %v", apperr.ErrUpstream, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", apperr.ErrUpstream, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned status %d: %s", apperr.ErrUpstream, op, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperr.ErrUpstream, op, err)
	}
	return nil
}
