// Package server exposes the HTTP surface: REST operations for orders,
// tables and shifts, and a server-sent-events stream carrying the broadcast
// topics to connected clients.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tableside/internal/auth"
	"tableside/internal/bus"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/orders"
	"tableside/internal/session"
	"tableside/internal/shifts"
	"tableside/internal/store"
	"tableside/internal/tables"
)

type Server struct {
	orders  *orders.Service
	tables  *tables.Service
	shifts  *shifts.Service
	session *session.Service
	users   store.Users
	tokens  *auth.Tokens
	bus     bus.Bus
	log     *logging.Logger
}

func New(
	ordersSvc *orders.Service,
	tablesSvc *tables.Service,
	shiftsSvc *shifts.Service,
	sessionSvc *session.Service,
	users store.Users,
	tokens *auth.Tokens,
	b bus.Bus,
	log *logging.Logger,
) *Server {
	return &Server{
		orders: ordersSvc, tables: tablesSvc, shifts: shiftsSvc, session: sessionSvc,
		users: users, tokens: tokens, bus: b, log: log,
	}
}

func (s *Server) Router(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	corsCfg := cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"*"}
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.POST("/auth/login", s.handleLogin)
	r.GET("/events", s.handleEvents)

	// customer surface: QR sessions are unauthenticated by design
	customer := r.Group("/customer")
	{
		customer.GET("/tables", s.handleTableState)
		customer.POST("/tables/:id/block", s.handleBlockTable)
		customer.POST("/tables/:id/release", s.handleReleaseTable)
		customer.POST("/tables/:id/bell", s.handleBell)
		customer.POST("/tables/:id/bill", s.handleBill)
		customer.POST("/orders", s.handleCustomerOrder)
		customer.GET("/orders/:ref", s.handleGetOrder)
	}

	cashier := r.Group("/cashier", s.requireRole(domain.RoleCashier, domain.RoleAdmin))
	{
		cashier.GET("/orders", s.handleListOrders)
		cashier.POST("/orders", s.handleCashierOrder)
		cashier.GET("/orders/:ref", s.handleGetOrder)
		cashier.PATCH("/orders/:ref/status", s.handleUpdateStatus)
		cashier.POST("/orders/:ref/pay", s.handleMarkPaid)
		cashier.POST("/orders/:ref/settle", s.handleSettle)
		cashier.POST("/orders/:ref/refund", s.handleRefund)

		cashier.GET("/tables", s.handleTableState)
		cashier.POST("/tables/:id/release", s.handleReleaseTable)

		cashier.POST("/shifts/cash-in", s.handleCashIn)
		cashier.POST("/shifts/cash-out", s.handleCashOut)
		cashier.GET("/shifts/active", s.handleActiveShift)
		cashier.GET("/shifts/balance", s.handleBalance)

		cashier.GET("/session", s.handleSession)
	}

	admin := r.Group("/admin", s.requireRole(domain.RoleAdmin))
	{
		admin.POST("/tables", s.handleCreateTable)
		admin.PUT("/tables/:id", s.handleUpdateTable)
		admin.DELETE("/tables/:id", s.handleDeleteTable)
		admin.PATCH("/tables/:id/availability", s.handleAvailability)
		admin.POST("/users", s.handleCreateUser)
	}

	return r
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int, corsOrigins []string) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: s.Router(corsOrigins),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Action("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// respondErr maps the error taxonomy onto HTTP statuses.
func respondErr(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.ErrCodeValidation:
		status = http.StatusBadRequest
	case domain.ErrCodeNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeConflict:
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
