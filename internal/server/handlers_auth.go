package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/auth"
	"tableside/internal/domain"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		respondErr(c, domain.Infra("load user", err))
		return
	}
	// Same response for unknown user and bad password.
	if u == nil || !auth.ComparePassword(req.Password, u.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		respondErr(c, domain.Infra("issue token", err))
		return
	}
	s.log.Action("login", "username", u.Username, "role", string(u.Role))
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       u.ID,
			"username": u.Username,
			"role":     u.Role,
		},
	})
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req struct {
		Username string          `json:"username" binding:"required"`
		Password string          `json:"password" binding:"required"`
		Role     domain.UserRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != domain.RoleCashier && req.Role != domain.RoleAdmin {
		respondErr(c, domain.Validationf("unknown role %q", req.Role))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondErr(c, domain.Infra("hash password", err))
		return
	}
	u := &domain.User{Username: req.Username, PasswordHash: hash, Role: req.Role}
	if err := s.users.Create(c.Request.Context(), u); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
	})
}
