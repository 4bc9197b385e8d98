// Package server exposes analyses over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"StockInfo/internal/analysis"
	"StockInfo/internal/collector"
	"StockInfo/internal/dates"
	"StockInfo/internal/metrics"
	"StockInfo/internal/report"
)

// Analyzer produces analyses; *analysis.Reconciler satisfies it.
type Analyzer interface {
	ProduceAnalysis(ctx context.Context, req analysis.Request) (analysis.Analysis, error)
}

// Server is the gin-based HTTP front end.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	analyzer Analyzer
	windows  report.Windows
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New builds the router. m may be nil, in which case /metrics serves the
// default registry.
func New(addr string, an Analyzer, windows report.Windows, m *metrics.Metrics) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine:   engine,
		analyzer: an,
		windows:  windows,
		metrics:  m,
		now:      time.Now,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/stocks/:symbol", s.getStock)
	s.engine.GET("/health", s.getHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("[INFO] http server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("[INFO] http server shutting down")
	return s.http.Shutdown(ctx)
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getStock(c *gin.Context) {
	start, err := dates.ParseOptional(c.Query("startDate"))
	if err != nil {
		s.writeError(c, http.StatusBadRequest, "Invalid Request", "startDate: "+err.Error())
		return
	}
	end, err := dates.ParseOptional(c.Query("endDate"))
	if err != nil {
		s.writeError(c, http.StatusBadRequest, "Invalid Request", "endDate: "+err.Error())
		return
	}

	res, err := s.analyzer.ProduceAnalysis(c.Request.Context(), analysis.Request{
		Symbol:     c.Param("symbol"),
		OutputSize: analysis.OutputSize(c.DefaultQuery("outputSize", string(analysis.Compact))),
		Start:      start,
		End:        end,
	})
	if err != nil {
		status, title := statusFor(err)
		if status >= 500 {
			log.Printf("[ERROR] GET %s: %v", c.Request.URL.Path, err)
		}
		s.writeError(c, status, title, err.Error())
		return
	}

	body, err := report.Serialize(res.Metrics, s.windows)
	if errors.Is(err, report.ErrEmpty) {
		s.writeError(c, http.StatusNotFound, "Not Found",
			"no metrics for "+res.Symbol+" between "+res.Range.String())
		return
	}
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// statusFor maps an analysis error onto an HTTP status and title.
func statusFor(err error) (int, string) {
	switch analysis.KindOf(err) {
	case analysis.KindInvalidInput:
		return http.StatusBadRequest, "Invalid Request"
	case analysis.KindUpstream:
		if ue, ok := collector.AsUpstream(err); ok && ue.Class == collector.ClassClient {
			return ue.Status, http.StatusText(ue.Status)
		}
		return http.StatusBadGateway, http.StatusText(http.StatusBadGateway)
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func (s *Server) writeError(c *gin.Context, status int, title, message string) {
	c.JSON(status, gin.H{
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"status":    status,
		"error":     title,
		"message":   message,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Printf("[INFO] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.RequestURI(),
			c.Writer.Status(), time.Since(started).Round(time.Millisecond))
	}
}
