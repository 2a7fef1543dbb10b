package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/search"
)

// SearchService is implemented by search.Service.
type SearchService interface {
	SearchHotels(ctx context.Context, req search.HotelSearchRequest) (*search.HotelSearchResponse, error)
	SearchPackages(ctx context.Context, req search.PackageSearchRequest) (*search.PackageSearchResponse, error)
	Autosuggest(ctx context.Context, query string) (json.RawMessage, error)
}

type SearchHandler struct {
	Search SearchService
}

func NewSearchHandler(s SearchService) *SearchHandler {
	return &SearchHandler{Search: s}
}

// Hotels handles POST /api/hotels/search.
func (h *SearchHandler) Hotels(c echo.Context) error {
	var req search.HotelSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	resp, err := h.Search.SearchHotels(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Packages handles POST /api/hotels/searchPackages.
func (h *SearchHandler) Packages(c echo.Context) error {
	var req search.PackageSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	resp, err := h.Search.SearchPackages(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

type autosuggestReq struct {
	Query string `json:"query"`
}

// Autosuggest handles POST /api/hotels/autosuggest.
func (h *SearchHandler) Autosuggest(c echo.Context) error {
	var req autosuggestReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	data, err := h.Search.Autosuggest(c.Request().Context(), req.Query)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}
