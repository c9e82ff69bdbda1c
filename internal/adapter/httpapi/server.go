package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nyukimin/loopwalk/internal/application/planner"
	"github.com/Nyukimin/loopwalk/pkg/health"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

// RoutePlanner はルート計画の入口
type RoutePlanner interface {
	PlanRoute(ctx context.Context, req planner.Request) (planner.Result, error)
	PlanRouteByDuration(ctx context.Context, req planner.DurationRequest) (planner.Result, error)
}

// Server はHTTP APIのルーター
type Server struct {
	planner  RoutePlanner
	checker  *health.Checker
	gatherer prometheus.Gatherer
	engine   *gin.Engine
}

// NewServer は新しいServerを作成。gathererがnilなら /metrics は登録しない。
func NewServer(p RoutePlanner, checker *health.Checker, gatherer prometheus.Gatherer) *Server {
	if checker == nil {
		checker = health.NewChecker()
	}

	s := &Server{
		planner:  p,
		checker:  checker,
		gatherer: gatherer,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.POST("/route", s.handleRoute)
	s.engine.POST("/route/by-duration", s.handleRouteByDuration)
	s.engine.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler はhttp.Handlerとしてのルーターを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.WarnCF("http", "request.failed", fields)
			return
		}
		logger.DebugCF("http", "request.served", fields)
	}
}
