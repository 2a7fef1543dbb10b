package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
)

// RegisterHotels registers the /api/hotels endpoints. Searching is open to
// guests; every booking step requires a JWT of any role.
func RegisterHotels(e *echo.Echo, s *handler.SearchHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/api/hotels")
	g.POST("/search", s.Hotels)
	g.POST("/searchPackages", s.Packages)
	g.POST("/autosuggest", s.Autosuggest)

	auth := middleware.JWTAuth(jwtSecret)
	g.POST("/bookingpolicy", b.Policy, auth)
	g.POST("/prebook", b.Prebook, auth)
	g.POST("/book", b.Book, auth)
	g.GET("/transactions", b.Transactions, auth)
	g.POST("/cancel", b.Cancel, auth)
}

// RegisterAdmin registers the ADMIN-only endpoints under /api/admin.
func RegisterAdmin(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.GET("/transactions", b.AdminTransactions)
	g.GET("/transactions/:id", b.AdminTransaction)
	g.POST("/cancel", b.Cancel)
}
