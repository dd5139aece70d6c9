package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/domain"
	"tableside/internal/orders"
	"tableside/internal/store"
)

// handleCustomerOrder places a dining order from a QR menu session. The
// order carries no cashier attribution until a cashier confirms it, and the
// table's block converts into occupancy on success.
func (s *Server) handleCustomerOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OrderType != domain.OrderDining {
		respondErr(c, domain.Validationf("customer sessions can only place dining orders"))
		return
	}
	req.CashierID = 0
	req.CashierName = ""

	o, err := s.orders.Create(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	if o.TableNumber != nil {
		s.tables.Release(c.Request.Context(), *o.TableNumber)
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) handleCashierOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if claims := claimsFrom(c); claims != nil {
		req.CashierID = claims.UserID
		req.CashierName = claims.Username
	}

	o, err := s.orders.Create(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	if o.OrderType == domain.OrderDining && o.TableNumber != nil {
		s.tables.Release(c.Request.Context(), *o.TableNumber)
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) handleListOrders(c *gin.Context) {
	var f store.OrderFilter
	if v := c.Query("status"); v != "" {
		st := domain.OrderStatus(v)
		if !domain.ValidStatus(st) {
			respondErr(c, domain.Validationf("unknown status %q", v))
			return
		}
		f.Status = &st
	}
	if v := c.Query("order_type"); v != "" {
		ot := domain.OrderType(v)
		f.OrderType = &ot
	}
	if v := c.Query("is_paid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondErr(c, domain.Validationf("invalid is_paid %q", v))
			return
		}
		f.IsPaid = &b
	}
	if v := c.Query("is_settled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondErr(c, domain.Validationf("invalid is_settled %q", v))
			return
		}
		f.IsSettled = &b
	}
	if v := c.Query("table_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondErr(c, domain.Validationf("invalid table_number %q", v))
			return
		}
		f.TableNumber = &n
	}
	f.ActiveOnly = c.Query("active") == "true"

	out, err := s.orders.List(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}
	if out == nil {
		out = []domain.Order{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.orders.GetByRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req struct {
		Status domain.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), c.Param("ref"), req.Status, actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleMarkPaid(c *gin.Context) {
	var req struct {
		Method domain.PaymentMethod `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := s.orders.MarkPaid(c.Request.Context(), c.Param("ref"), req.Method, actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleSettle(c *gin.Context) {
	o, err := s.orders.Settle(c.Request.Context(), c.Param("ref"), actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleRefund(c *gin.Context) {
	o, err := s.orders.MarkRefunded(c.Request.Context(), c.Param("ref"), actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func actorName(c *gin.Context) string {
	if claims := claimsFrom(c); claims != nil {
		return claims.Username
	}
	return ""
}
