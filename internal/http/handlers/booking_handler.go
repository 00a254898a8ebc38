// README: Booking handlers for create/get/list/update/accept/cancel/status/delete.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ridebook/internal/http/middleware"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/lifecycle"
	"ridebook/internal/types"
)

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	GetByNumber(ctx context.Context, number string) (*booking.Booking, error)
	List(ctx context.Context) ([]*booking.Booking, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]*booking.Booking, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*booking.Booking, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) (booking.Status, error)
	OverrideStatus(ctx context.Context, cmd booking.OverrideCommand) (*booking.Booking, error)
	Update(ctx context.Context, id types.ID, cmd booking.UpdateCommand) (*booking.Booking, error)
}

// Lifecycle covers the operations that touch both bookings and bills.
type Lifecycle interface {
	Accept(ctx context.Context, cmd lifecycle.AcceptCommand) (*booking.Booking, error)
	DeleteBooking(ctx context.Context, id types.ID) error
}

type BookingHandler struct {
	bookings  BookingService
	lifecycle Lifecycle
}

func NewBookingHandler(bookings BookingService, lifecycleSvc Lifecycle) *BookingHandler {
	return &BookingHandler{bookings: bookings, lifecycle: lifecycleSvc}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req bookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		CustomerID:         middleware.Caller(c).ID,
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		Distance:           req.Distance,
		PickupTime:         req.PickupTime,
		DropoffTime:        req.DropoffTime,
		DriverID:           toIDPtr(req.DriverID),
		VehicleID:          toIDPtr(req.VehicleID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toBookingResp(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if !canView(middleware.Caller(c), b) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) GetByNumber(c *gin.Context) {
	b, err := h.bookings.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if !canView(middleware.Caller(c), b) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": toBookingList(list)})
}

func (h *BookingHandler) ListByCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p := middleware.Caller(c)
	if p.Role == types.RoleCustomer && p.ID != id {
		writeError(c, http.StatusForbidden, "customers may only list their own bookings")
		return
	}
	list, err := h.bookings.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": toBookingList(list)})
}

func (h *BookingHandler) ListByDriver(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p := middleware.Caller(c)
	if p.Role == types.RoleDriver && p.ID != id {
		writeError(c, http.StatusForbidden, "drivers may only list their own bookings")
		return
	}
	list, err := h.bookings.ListByDriver(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": toBookingList(list)})
}

func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req bookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Update(c.Request.Context(), id, booking.UpdateCommand{
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		Distance:           req.Distance,
		PickupTime:         req.PickupTime,
		DropoffTime:        req.DropoffTime,
		DriverID:           toIDPtr(req.DriverID),
		VehicleID:          toIDPtr(req.VehicleID),
		Status:             booking.Status(req.Status),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}

// Accept is called by the driver taking the booking; the discount percent
// comes from ?discount= (or the older ?discountAmount=) and defaults to 0.
func (h *BookingHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw := c.Query("discount")
	if raw == "" {
		raw = c.Query("discountAmount")
	}
	discount := decimal.Zero
	if raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid discount")
			return
		}
		discount = d
	}
	b, err := h.lifecycle.Accept(c.Request.Context(), lifecycle.AcceptCommand{
		BookingID:       id,
		DriverID:        middleware.Caller(c).ID,
		DiscountPercent: discount,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p := middleware.Caller(c)
	if p.Role != types.RoleAdmin {
		b, err := h.bookings.Get(c.Request.Context(), id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		if msg, ok := canCancel(p, b); !ok {
			writeError(c, http.StatusForbidden, msg)
			return
		}
	}
	status, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID:  id,
		CallerRole: string(p.Role),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"booking_id": id, "status": status})
}

func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status := c.Query("status")
	if status == "" {
		status = c.Query("newStatus")
	}
	b, err := h.bookings.OverrideStatus(c.Request.Context(), booking.OverrideCommand{
		BookingID: id,
		Status:    status,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.lifecycle.DeleteBooking(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// canCancel: customers cancel their own bookings, drivers the ones assigned to them.
func canCancel(p types.Principal, b *booking.Booking) (string, bool) {
	switch p.Role {
	case types.RoleCustomer:
		if b.CustomerID != p.ID {
			return "customers may only cancel their own bookings", false
		}
	case types.RoleDriver:
		if b.DriverID == nil || *b.DriverID != p.ID {
			return "drivers may only cancel bookings assigned to them", false
		}
	}
	return "", true
}

func canView(p types.Principal, b *booking.Booking) bool {
	if p.Role == types.RoleCustomer {
		return b.CustomerID == p.ID
	}
	return true
}
