// README: API gateway; builds the gin engine and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/http/handlers"
	"ridebook/internal/http/middleware"
	"ridebook/internal/logger"
)

type ServerDeps struct {
	Bookings  handlers.BookingService
	Lifecycle handlers.Lifecycle
	Bills     handlers.BillService
	Log       logger.ILogger

	// CORSOrigins enables browser access from these origins; empty disables CORS.
	CORSOrigins []string
}

type Server struct {
	bookings *handlers.BookingHandler
	bills    *handlers.BillHandler
	log      logger.ILogger
	origins  []string
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		bookings: handlers.NewBookingHandler(deps.Bookings, deps.Lifecycle),
		bills:    handlers.NewBillHandler(deps.Bills),
		log:      deps.Log,
		origins:  deps.CORSOrigins,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(s.log), middleware.Recovery(s.log))
	if len(s.origins) > 0 {
		r.Use(middleware.CORS(s.origins))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.Identity())
	registerBookingRoutes(api, s.bookings)
	registerBillRoutes(api, s.bills)
	return r
}
