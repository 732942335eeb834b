// Package server exposes a trained policy over HTTP
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/metrics"
	"github.com/zeu5/rl-route-finder/policies"
	"github.com/zeu5/rl-route-finder/types"
)

type Config struct {
	Addr        string
	Environment types.Environment
	// Policy is followed greedily when it supports it
	Policy types.Policy
	// MaxSteps bounds a route when the request does not
	MaxSteps int
	Metrics  *metrics.Metrics
	Logger   *log.Logger
}

// tabled is implemented by policies backed by a QTable
type tabled interface {
	Table() *policies.QTable
}

// Server serves route requests. Routes are searched one at a time since
// they drive the shared environment
type Server struct {
	config *Config
	finder *types.PathFinder
	router *gin.Engine
	logger *log.Logger

	// serializes route searches
	lock *sync.Mutex
}

func New(config *Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	s := &Server{
		config: config,
		finder: types.NewPathFinder(&types.PathFinderConfig{
			Environment: config.Environment,
			Policy:      config.Policy,
			Logger:      logger,
		}),
		logger: logger.With(log.LogParams{"service": "server"}),
		lock:   new(sync.Mutex),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", s.HandleHealth)
	router.GET("/qtable", s.HandleQTable)
	router.POST("/route", s.HandleRoute)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(config.Metrics.Registry(), promhttp.HandlerOpts{})))
	s.router = router
	return s
}

// Handler returns the http handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on the configured address until ctx is done
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.With(log.LogParams{"addr": s.config.Addr}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("stopping server")
	return srv.Shutdown(shutdownCtx)
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

type QTableResponse struct {
	States int                           `json:"states"`
	Table  map[string]map[string]float64 `json:"table"`
}

// HandleQTable dumps the learned values, 404 when the policy learns none
func (s *Server) HandleQTable(c *gin.Context) {
	p, ok := s.config.Policy.(tabled)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "policy has no table"})
		return
	}
	table := p.Table()
	c.JSON(http.StatusOK, QTableResponse{
		States: table.Len(),
		Table:  table.Snapshot(),
	})
}

type RouteRequest struct {
	MaxSteps int `json:"max_steps"`
}

type StepResponse struct {
	State  string `json:"state"`
	Action string `json:"action"`
}

type RouteResponse struct {
	Outcome string         `json:"outcome"`
	Steps   []StepResponse `json:"steps"`
	Error   string         `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleRoute finds a route from the initial state of the environment
func (s *Server) HandleRoute(c *gin.Context) {
	req := RouteRequest{}
	// an empty body uses the defaults
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}
	if req.MaxSteps < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "max_steps must be non negative"})
		return
	}
	if req.MaxSteps == 0 {
		req.MaxSteps = s.config.MaxSteps
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	ctx := c.Request.Context()
	initial, err := s.config.Environment.InitialState(ctx)
	if err != nil {
		c.JSON(statusOf(err), ErrorResponse{Error: err.Error()})
		return
	}
	route, err := s.finder.FindRoute(ctx, initial, nil, req.MaxSteps)
	s.config.Metrics.ObserveRoute(route)

	resp := RouteResponse{
		Outcome: string(route.Outcome),
		Steps:   make([]StepResponse, len(route.Steps)),
	}
	for i, step := range route.Steps {
		resp.Steps[i] = StepResponse{
			State:  step.State.Hash(),
			Action: step.Action.String(),
		}
	}
	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusOf(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrEnvironmentUnavailable):
		return http.StatusServiceUnavailable
	case types.IsAborted(err):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
