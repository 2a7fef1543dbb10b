package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingService is implemented by booking.Service.
type BookingService interface {
	BookingPolicy(ctx context.Context, req booking.PolicyRequest) (*model.BookingPolicy, error)
	Prebook(ctx context.Context, actor booking.Actor, req booking.PrebookRequest) (*model.HotelTransaction, error)
	Book(ctx context.Context, actor booking.Actor, req booking.BookRequest) (*model.HotelTransaction, error)
	Cancel(ctx context.Context, actor booking.Actor, req booking.CancelRequest) (*model.HotelTransaction, error)
	ListForUser(ctx context.Context, userID uint64) ([]*model.HotelTransaction, error)
	ListAll(ctx context.Context, page, pageSize int) (*booking.Page, error)
	Get(ctx context.Context, id string) (*booking.Detail, error)
}

type BookingHandler struct {
	Bookings BookingService
}

func NewBookingHandler(s BookingService) *BookingHandler {
	return &BookingHandler{Bookings: s}
}

func actor(c echo.Context) (booking.Actor, bool) {
	id, ok := middleware.UserID(c)
	return booking.Actor{UserID: id, Admin: middleware.Role(c) == model.RoleAdmin}, ok
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
}

// Policy handles POST /api/hotels/bookingpolicy.
func (h *BookingHandler) Policy(c echo.Context) error {
	var req booking.PolicyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Bookings.BookingPolicy(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Prebook handles POST /api/hotels/prebook.
func (h *BookingHandler) Prebook(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req booking.PrebookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Bookings.Prebook(c.Request().Context(), a, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Book handles POST /api/hotels/book.
func (h *BookingHandler) Book(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req booking.BookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Bookings.Book(c.Request().Context(), a, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Cancel handles POST /api/hotels/cancel and POST /api/admin/cancel; the
// admin role may cancel any user's booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req booking.CancelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Bookings.Cancel(c.Request().Context(), a, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Transactions handles GET /api/hotels/transactions.
func (h *BookingHandler) Transactions(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	items, err := h.Bookings.ListForUser(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []*model.HotelTransaction{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AdminTransactions handles GET /api/admin/transactions?page=&pageSize=.
func (h *BookingHandler) AdminTransactions(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	p, err := h.Bookings.ListAll(c.Request().Context(), page, size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// AdminTransaction handles GET /api/admin/transactions/:id.
func (h *BookingHandler) AdminTransaction(c echo.Context) error {
	d, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
