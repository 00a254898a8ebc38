// README: Bill handlers for create/get/list/update/pay/delete.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/modules/billing"
	"ridebook/internal/types"
)

type BillService interface {
	Create(ctx context.Context, cmd billing.CreateCommand) (*billing.Bill, error)
	Get(ctx context.Context, id types.ID) (*billing.Bill, error)
	GetByBooking(ctx context.Context, bookingID types.ID) (*billing.Bill, error)
	List(ctx context.Context) ([]*billing.Bill, error)
	ListByPaymentStatus(ctx context.Context, status string) ([]*billing.Bill, error)
	Update(ctx context.Context, id types.ID, cmd billing.UpdateCommand) (*billing.Bill, error)
	Pay(ctx context.Context, id types.ID) (*billing.Bill, error)
	Delete(ctx context.Context, id types.ID) error
}

type BillHandler struct {
	bills BillService
}

func NewBillHandler(bills BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

func (h *BillHandler) Create(c *gin.Context) {
	var req billReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bills.Create(c.Request.Context(), billing.CreateCommand{
		BookingID:      types.ID(req.BookingID),
		TotalAmount:    req.TotalAmount,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		PaymentStatus:  req.PaymentStatus,
		PaymentMethod:  req.PaymentMethod,
		BillDate:       req.BillDate,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BillHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bills.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if b == nil {
		writeError(c, http.StatusNotFound, billing.ErrNotFound.Error())
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BillHandler) GetByBooking(c *gin.Context) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}
	b, err := h.bills.GetByBooking(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if b == nil {
		writeError(c, http.StatusNotFound, billing.ErrNotFound.Error())
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BillHandler) List(c *gin.Context) {
	var (
		list []*billing.Bill
		err  error
	)
	if status := c.Query("status"); status != "" {
		list, err = h.bills.ListByPaymentStatus(c.Request.Context(), status)
	} else {
		list, err = h.bills.List(c.Request.Context())
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"bills": toBillList(list)})
}

func (h *BillHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req billReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bills.Update(c.Request.Context(), id, billing.UpdateCommand{
		TotalAmount:    req.TotalAmount,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		PaymentStatus:  req.PaymentStatus,
		PaymentMethod:  req.PaymentMethod,
		BillDate:       req.BillDate,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BillHandler) Pay(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bills.Pay(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bills.Delete(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
