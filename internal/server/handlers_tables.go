package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/domain"
)

func tableID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondErr(c, domain.Validationf("invalid table id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) handleTableState(c *gin.Context) {
	out, err := s.tables.ListState(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleBlockTable(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	var req struct {
		Label string `json:"label"`
	}
	_ = c.ShouldBindJSON(&req)

	block, err := s.tables.Block(c.Request.Context(), id, req.Label)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

func (s *Server) handleReleaseTable(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	s.tables.Release(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleBell(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	s.tables.Bell(c.Request.Context(), id, callLabel(c))
	c.Status(http.StatusAccepted)
}

func (s *Server) handleBill(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	s.tables.Bill(c.Request.Context(), id, callLabel(c))
	c.Status(http.StatusAccepted)
}

func callLabel(c *gin.Context) string {
	var req struct {
		Label string `json:"label"`
	}
	_ = c.ShouldBindJSON(&req)
	return req.Label
}

func (s *Server) handleCreateTable(c *gin.Context) {
	var req struct {
		Label    string `json:"label" binding:"required"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.tables.Create(c.Request.Context(), req.Label, req.Capacity, actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTable(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	var req struct {
		Label    string `json:"label"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.tables.Update(c.Request.Context(), id, req.Label, req.Capacity, actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTable(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	if err := s.tables.Delete(c.Request.Context(), id, actorName(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAvailability(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.tables.SetAvailability(c.Request.Context(), id, *req.Available, actorName(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
