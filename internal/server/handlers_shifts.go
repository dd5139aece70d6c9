package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCashIn(c *gin.Context) {
	claims := claimsFrom(c)
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shift, err := s.shifts.CashIn(c.Request.Context(), claims.UserID, claims.Username, req.Amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, shift)
}

func (s *Server) handleCashOut(c *gin.Context) {
	claims := claimsFrom(c)
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.shifts.CashOut(c.Request.Context(), claims.UserID, req.Amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleActiveShift(c *gin.Context) {
	claims := claimsFrom(c)
	shift, err := s.shifts.GetActive(c.Request.Context(), claims.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	// nil means "no active shift"; the client must run the cash-in flow.
	c.JSON(http.StatusOK, gin.H{"shift": shift})
}

func (s *Server) handleBalance(c *gin.Context) {
	claims := claimsFrom(c)
	bal, err := s.shifts.CurrentBalance(c.Request.Context(), claims.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

// handleSession returns the authoritative reconciliation snapshot. Clients
// adopt it wholesale; locally cached shift or table state never wins.
func (s *Server) handleSession(c *gin.Context) {
	claims := claimsFrom(c)
	snap, err := s.session.Restore(c.Request.Context(), claims.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
