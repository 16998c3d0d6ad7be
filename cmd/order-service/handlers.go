package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mercadia/ordenes-admin/internal/httpx"
	"github.com/mercadia/ordenes-admin/internal/inventory"
	ord "github.com/mercadia/ordenes-admin/internal/order"
	"github.com/mercadia/ordenes-admin/internal/product"
)

// writeErr maps the service error taxonomy to transport codes:
// not-found -> 404, out-of-stock / bad input / illegal transition -> 400,
// lost update race -> 409, everything else -> 500.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ord.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrOutOfStock),
		errors.Is(err, ord.ErrValidation),
		errors.Is(err, ord.ErrInvalidTransition):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ord.ErrConflict):
		httpx.Error(c, http.StatusConflict, err.Error())
	default:
		httpx.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func limitOffset(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// createOrderHandler godoc
// @Summary  Create an order (reserves stock, clears the cart)
// @Accept   json
// @Produce  json
// @Param    body body ord.CreateOrderRequest true "order"
// @Success  201 {object} map[string]any
// @Failure  400 {object} product.HTTPError
// @Failure  404 {object} product.HTTPError
// @Router   /orders [post]
func createOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		o, items, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "order created successfully",
			"order":   o,
			"items":   items,
		})
	}
}

// getOrderHandler godoc
// @Summary  Get an order with its line items
// @Produce  json
// @Param    id path string true "order id"
// @Success  200 {object} map[string]any
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id} [get]
func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, items, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
	}
}

// listOrdersHandler godoc
// @Summary  List all orders (admin), newest first
// @Produce  json
// @Success  200 {object} map[string]any
// @Router   /orders [get]
func listOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := limitOffset(c)
		orders, err := svc.List(c.Request.Context(), limit, offset)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": orders, "limit": limit, "offset": offset})
	}
}

// listOrdersByUserHandler godoc
// @Summary  List a user's orders
// @Produce  json
// @Param    user_id path string true "user id"
// @Success  200 {object} map[string]any
// @Router   /orders/user/{user_id} [get]
func listOrdersByUserHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := limitOffset(c)
		orders, err := svc.ListByUser(c.Request.Context(), c.Param("user_id"), limit, offset)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": orders, "limit": limit, "offset": offset})
	}
}

// payOrderHandler godoc
// @Summary  Mark an order as paid
// @Accept   json
// @Produce  json
// @Param    id path string true "order id"
// @Param    body body ord.PayOrderRequest false "gateway result"
// @Success  200 {object} map[string]any
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/pay [put]
func payOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.PayOrderRequest
		_ = c.ShouldBindJSON(&req) // body opcional
		o, err := svc.MarkPaid(c.Request.Context(), c.Param("id"), req.PaymentResult)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order marked as paid", "order": o})
	}
}

// deliverOrderHandler godoc
// @Summary  Mark an order as delivered
// @Produce  json
// @Param    id path string true "order id"
// @Success  200 {object} map[string]any
// @Failure  400 {object} product.HTTPError
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/deliver [put]
func deliverOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.MarkDelivered(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order marked as delivered", "order": o})
	}
}

// updateOrderStatusHandler godoc
// @Summary  Administrative status override
// @Accept   json
// @Produce  json
// @Param    id path string true "order id"
// @Param    body body ord.UpdateStatusRequest true "new status"
// @Success  200 {object} map[string]any
// @Failure  400 {object} product.HTTPError
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/status [put]
func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		o, err := svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": o})
	}
}

// cancelOrderHandler godoc
// @Summary  Cancel an order (restores reserved stock)
// @Produce  json
// @Param    id path string true "order id"
// @Success  200 {object} map[string]any
// @Failure  400 {object} product.HTTPError
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/cancel [put]
func cancelOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order cancelled successfully", "order": o})
	}
}

// refundOrderHandler godoc
// @Summary  Refund an order (always restores stock)
// @Accept   json
// @Produce  json
// @Param    id path string true "order id"
// @Param    body body ord.RefundRequest false "amount/reason"
// @Success  200 {object} map[string]any
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/refund [post]
func refundOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.RefundRequest
		_ = c.ShouldBindJSON(&req) // body opcional
		o, err := svc.Refund(c.Request.Context(), c.Param("id"), req.Amount, req.Reason)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "refund processed successfully", "order": o})
	}
}

// trackingHandler godoc
// @Summary  Attach or update tracking info
// @Accept   json
// @Produce  json
// @Param    id path string true "order id"
// @Param    body body ord.TrackingRequest true "tracking"
// @Success  200 {object} map[string]any
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/tracking [put]
func trackingHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.TrackingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		o, err := svc.AttachTracking(c.Request.Context(), c.Param("id"), req.TrackingNumber, req.TrackingCompany)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "tracking information updated", "order": o})
	}
}

// invoiceHandler godoc
// @Summary  Get (lazily generating) the order's invoice number
// @Produce  json
// @Param    id path string true "order id"
// @Success  200 {object} map[string]any
// @Failure  404 {object} product.HTTPError
// @Router   /orders/{id}/invoice [get]
func invoiceHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.EnsureInvoiceNumber(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_number": o.InvoiceNumber, "order": o})
	}
}
