// Package loaderhttp serves the collection API: exchange discovery, market
// listings and windowed OHLCV queries.
package loaderhttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cryptoloader/internal/logger"
	"cryptoloader/internal/market"

	"github.com/gin-gonic/gin"
)

// Service is the collection surface the handlers call into.
type Service interface {
	Exchanges() []market.Exchange
	Tickers(ctx context.Context, exchange market.Exchange) ([]market.Market, error)
	Collect(ctx context.Context, exchange market.Exchange, req market.FetchRequest) (market.Table, map[string]error)
}

type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(addr string, svc Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("http server requires a collection service")
	}
	if addr == "" {
		addr = ":8090"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	h := &handler{svc: svc}
	api.GET("/exchanges", h.exchanges)
	api.GET("/exchanges/:exchange/markets", h.markets)
	api.GET("/exchanges/:exchange/ohlcv", h.ohlcv)

	return &Server{addr: addr, router: router}, nil
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

type handler struct {
	svc Service
}

func (h *handler) exchanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"exchanges": h.svc.Exchanges()})
}

func (h *handler) markets(c *gin.Context) {
	exch, ok := h.resolveExchange(c)
	if !ok {
		return
	}
	markets, err := h.svc.Tickers(c.Request.Context(), exch)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exchange": exch, "markets": markets})
}

func (h *handler) ohlcv(c *gin.Context) {
	exch, ok := h.resolveExchange(c)
	if !ok {
		return
	}
	req, err := parseFetchRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, failures := h.svc.Collect(c.Request.Context(), exch, req)

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="ohlcv.csv"`)
		if err := table.WriteCSV(c.Writer); err != nil {
			logger.Errorf("writing csv response failed: %v", err)
		}
		return
	}

	errBody := make(map[string]string, len(failures))
	for symbol, ferr := range failures {
		errBody[symbol] = ferr.Error()
	}
	c.JSON(http.StatusOK, gin.H{"candles": table, "errors": errBody})
}

func (h *handler) resolveExchange(c *gin.Context) (market.Exchange, bool) {
	exch, err := market.ParseExchange(c.Param("exchange"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	for _, known := range h.svc.Exchanges() {
		if known == exch {
			return exch, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "exchange not enabled: " + string(exch)})
	return "", false
}

func parseFetchRequest(c *gin.Context) (market.FetchRequest, error) {
	var req market.FetchRequest

	raw := strings.TrimSpace(c.Query("symbols"))
	if raw == "" {
		return req, &market.ConfigError{Field: "symbols", Reason: "at least one symbol is required"}
	}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			req.Symbols = append(req.Symbols, s)
		}
	}

	interval, err := market.ParseInterval(c.Query("interval"))
	if err != nil {
		return req, err
	}
	req.Interval = interval

	if req.Start, err = parseTimeParam(c.Query("start"), "start"); err != nil {
		return req, err
	}
	if req.End, err = parseTimeParam(c.Query("end"), "end"); err != nil {
		return req, err
	}
	if !req.Start.IsZero() && !req.End.IsZero() && req.Start.After(req.End) {
		return req, &market.ConfigError{Field: "start", Reason: "start is after end"}
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, &market.ConfigError{Field: "limit", Reason: "limit must be a non-negative integer"}
		}
		req.Limit = n
	}
	return req, nil
}

// parseTimeParam accepts RFC3339 or epoch milliseconds.
func parseTimeParam(v, field string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, &market.ConfigError{Field: field, Reason: "expected RFC3339 or epoch milliseconds"}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}
