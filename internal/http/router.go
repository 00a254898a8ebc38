// README: HTTP route registration with per-route role requirements.
package http

import (
	"github.com/gin-gonic/gin"

	"ridebook/internal/http/handlers"
	"ridebook/internal/http/middleware"
	"ridebook/internal/types"
)

var (
	adminOnly    = middleware.RequireRole(types.RoleAdmin)
	customerOnly = middleware.RequireRole(types.RoleCustomer)
	driverOnly   = middleware.RequireRole(types.RoleDriver)
	anyRole      = middleware.RequireRole(types.RoleAdmin, types.RoleCustomer, types.RoleDriver)
)

func registerBookingRoutes(api *gin.RouterGroup, h *handlers.BookingHandler) {
	g := api.Group("/bookings")
	g.POST("", customerOnly, h.Create)
	g.GET("", adminOnly, h.List)
	g.GET("/:id", anyRole, h.Get)
	g.GET("/number/:number", anyRole, h.GetByNumber)
	g.GET("/customer/:id", middleware.RequireRole(types.RoleAdmin, types.RoleCustomer), h.ListByCustomer)
	g.GET("/driver/:id", middleware.RequireRole(types.RoleAdmin, types.RoleDriver), h.ListByDriver)
	g.PUT("/:id", adminOnly, h.Update)
	g.PUT("/:id/accept", driverOnly, h.Accept)
	g.PUT("/:id/cancel", anyRole, h.Cancel)
	g.PUT("/:id/status", adminOnly, h.ChangeStatus)
	g.DELETE("/:id", adminOnly, h.Delete)
}

func registerBillRoutes(api *gin.RouterGroup, h *handlers.BillHandler) {
	g := api.Group("/bills")
	g.POST("", adminOnly, h.Create)
	g.GET("", adminOnly, h.List)
	g.GET("/:id", anyRole, h.Get)
	g.GET("/booking/:bookingId", anyRole, h.GetByBooking)
	g.PUT("/:id", adminOnly, h.Update)
	g.PUT("/:id/pay", middleware.RequireRole(types.RoleCustomer, types.RoleAdmin), h.Pay)
	g.DELETE("/:id", adminOnly, h.Delete)
}
