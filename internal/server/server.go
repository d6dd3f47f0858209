// Package server exposes the dashboard views as a JSON API.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/pipeline"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// Response envelope codes.
const (
	CodeOK          = 0
	CodeBadRequest  = 1001
	CodeUnavailable = 5003
	CodeInternal    = 5000
)

// Response is the envelope of every API answer.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "success", Data: data})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

// Server serves the dashboard API.
type Server struct {
	router *gin.Engine
	src    Source
	params dashboard.Params
}

// New builds a server reading from src. params supplies the defaults that
// query parameters override per request.
func New(src Source, params dashboard.Params) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s := &Server{router: r, src: src, params: params}
	s.RegisterRoutes(r.Group("/api"))
	return s
}

// RegisterRoutes mounts the API under router.
func (s *Server) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", s.Health)
	router.GET("/filters", s.FilterOptions)
	router.GET("/overview", s.Overview)
	router.GET("/sales", s.Sales)
	router.GET("/customers", s.Customers)
	router.GET("/products", s.Products)
	router.GET("/pareto", s.Pareto)
	router.GET("/cohort", s.Cohort)
	router.GET("/dictionary", s.Dictionary)
	router.POST("/rebuild", s.Rebuild)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	zap.L().Info("serving dashboard API", zap.String("addr", addr))
	return s.router.Run(addr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// runInfo is the pipeline summary returned by health and rebuild.
type runInfo struct {
	Status      string                `json:"status"`
	RunID       string                `json:"run_id"`
	Source      string                `json:"source"`
	Encoding    string                `json:"encoding,omitempty"`
	Canonical   bool                  `json:"canonical"`
	Rows        int                   `json:"rows"`
	Columns     []string              `json:"columns"`
	Drop        pipeline.DropStats    `json:"drop"`
	Persist     string                `json:"persist"`
	Diagnostics []pipeline.Diagnostic `json:"diagnostics,omitempty"`
}

func info(res *pipeline.Result) runInfo {
	return runInfo{
		Status:      "ok",
		RunID:       res.RunID,
		Source:      res.Source,
		Encoding:    res.Encoding,
		Canonical:   res.Canonical,
		Rows:        res.Table.Rows(),
		Columns:     res.Table.Columns(),
		Drop:        res.Drop,
		Persist:     res.Persist.String(),
		Diagnostics: res.Diagnostics,
	}
}

// sourceError answers a failed pipeline run. Fatal source and schema errors
// mean there is no data to serve.
func sourceError(c *gin.Context, err error) {
	zap.L().Error("pipeline unavailable", zap.Error(err))
	if pipeline.IsFatal(err) {
		errorResponse(c, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
		return
	}
	errorResponse(c, http.StatusInternalServerError, CodeInternal, err.Error())
}

// current loads the canonical table and applies the request filters.
func (s *Server) current(c *gin.Context) (*table.Table, bool) {
	res, err := s.src.Current()
	if err != nil {
		sourceError(c, err)
		return nil, false
	}
	f, err := parseFilters(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return nil, false
	}
	t, err := f.Apply(res.Table)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return nil, false
	}
	return t, true
}

func (s *Server) Health(c *gin.Context) {
	res, err := s.src.Current()
	if err != nil {
		sourceError(c, err)
		return
	}
	success(c, info(res))
}

func (s *Server) Rebuild(c *gin.Context) {
	res, err := s.src.Rebuild()
	if err != nil {
		sourceError(c, err)
		return
	}
	zap.L().Info("pipeline rebuilt", zap.String("run_id", res.RunID))
	success(c, info(res))
}

func (s *Server) FilterOptions(c *gin.Context) {
	res, err := s.src.Current()
	if err != nil {
		sourceError(c, err)
		return
	}
	success(c, dashboard.FilterOptions(res.Table))
}

func (s *Server) Overview(c *gin.Context) {
	if t, ok := s.current(c); ok {
		success(c, dashboard.Overview(t))
	}
}

func (s *Server) Sales(c *gin.Context) {
	if t, ok := s.current(c); ok {
		if p, ok := s.parseParams(c); ok {
			success(c, dashboard.Sales(t, p))
		}
	}
}

func (s *Server) Customers(c *gin.Context) {
	if t, ok := s.current(c); ok {
		if p, ok := s.parseParams(c); ok {
			success(c, dashboard.Customers(t, p))
		}
	}
}

func (s *Server) Products(c *gin.Context) {
	if t, ok := s.current(c); ok {
		if p, ok := s.parseParams(c); ok {
			success(c, dashboard.Products(t, p))
		}
	}
}

func (s *Server) Pareto(c *gin.Context) {
	if t, ok := s.current(c); ok {
		if p, ok := s.parseParams(c); ok {
			success(c, dashboard.ParetoOnly(t, p))
		}
	}
}

func (s *Server) Cohort(c *gin.Context) {
	if t, ok := s.current(c); ok {
		if p, ok := s.parseParams(c); ok {
			success(c, dashboard.Cohort(t, p))
		}
	}
}

func (s *Server) Dictionary(c *gin.Context) {
	if t, ok := s.current(c); ok {
		success(c, dashboard.Dictionary(t))
	}
}

// list reads a repeated query parameter; comma-separated values are split.
func list(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatParam(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return &v, nil
}

func rangeParam(c *gin.Context, prefix string) (dashboard.Range, error) {
	lo, err := floatParam(c, prefix+"_min")
	if err != nil {
		return dashboard.Range{}, err
	}
	hi, err := floatParam(c, prefix+"_max")
	if err != nil {
		return dashboard.Range{}, err
	}
	if lo != nil && hi != nil && *lo > *hi {
		return dashboard.Range{}, fmt.Errorf("%s_min is greater than %s_max", prefix, prefix)
	}
	return dashboard.Range{Min: lo, Max: hi}, nil
}

func parseFilters(c *gin.Context) (dashboard.Filters, error) {
	f := dashboard.Filters{
		From:        c.Query("from"),
		To:          c.Query("to"),
		Category:    list(c, "category"),
		SubCategory: list(c, "sub_category"),
		Segment:     list(c, "segment"),
		Country:     list(c, "country"),
	}
	var errs []error
	var err error
	if f.Sales, err = rangeParam(c, "sales"); err != nil {
		errs = append(errs, err)
	}
	if f.Profit, err = rangeParam(c, "profit"); err != nil {
		errs = append(errs, err)
	}
	if f.TotalCost, err = rangeParam(c, "total_cost"); err != nil {
		errs = append(errs, err)
	}
	if f.Gross, err = rangeParam(c, "gross"); err != nil {
		errs = append(errs, err)
	}
	return f, errors.Join(errs...)
}

// parseParams overlays the request's view parameters on the server defaults.
// On failure the error response has been written.
func (s *Server) parseParams(c *gin.Context) (dashboard.Params, bool) {
	p := s.params
	bad := func(err error) (dashboard.Params, bool) {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return p, false
	}
	if v := c.Query("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return bad(fmt.Errorf("invalid top: %q", v))
		}
		p.ParetoTopN = n
	}
	if v := c.Query("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return bad(fmt.Errorf("invalid top_n: %q", v))
		}
		p.RankTopN = n
	}
	if raw := list(c, "tiers"); len(raw) > 0 {
		tiers := analysis.ParseTiers(raw)
		if len(tiers) == 0 {
			return bad(fmt.Errorf("invalid tiers: %v (use A, B, C)", raw))
		}
		p.ParetoTiers = tiers
	}
	if v := c.Query("normalize"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return bad(fmt.Errorf("invalid normalize: %q", v))
		}
		p.CohortNormalize = b
	}
	return p, true
}
