package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nyukimin/loopwalk/internal/application/planner"
	"github.com/Nyukimin/loopwalk/internal/application/synth"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

type routeRequest struct {
	Origin            string   `json:"origin" binding:"required"`
	Destination       string   `json:"destination" binding:"required"`
	UserQuery         string   `json:"user_query" binding:"required"`
	EnrichmentQueries []string `json:"enrichment_queries" binding:"omitempty,dive,required"`
}

type durationRequest struct {
	Origin            string   `json:"origin" binding:"required"`
	Minutes           int      `json:"minutes" binding:"required,min=5,max=120"`
	UserQuery         string   `json:"user_query" binding:"required"`
	EnrichmentQueries []string `json:"enrichment_queries" binding:"omitempty,dive,required"`
}

type routeResponse struct {
	RunID       string              `json:"run_id"`
	RouteID     int                 `json:"route_id"`
	Summary     string              `json:"summary"`
	Explanation string              `json:"explanation"`
	RouteData   route.EnrichedRoute `json:"route_data"`
	Degraded    bool                `json:"degraded"`
	Stage       string              `json:"stage"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.planner.PlanRoute(c.Request.Context(), planner.Request{
		Origin:            req.Origin,
		Destination:       req.Destination,
		Query:             req.UserQuery,
		EnrichmentQueries: req.EnrichmentQueries,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

func (s *Server) handleRouteByDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.planner.PlanRouteByDuration(c.Request.Context(), planner.DurationRequest{
		Origin:            req.Origin,
		Minutes:           req.Minutes,
		Query:             req.UserQuery,
		EnrichmentQueries: req.EnrichmentQueries,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.checker.Run()
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func toResponse(r planner.Result) routeResponse {
	return routeResponse{
		RunID:       r.RunID,
		RouteID:     r.RouteID,
		Summary:     r.Summary,
		Explanation: r.Explanation,
		RouteData:   r.Route,
		Degraded:    r.Degraded,
		Stage:       r.Stage.String(),
	}
}

// writeError は計画エラーをHTTPステータスに変換する
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	logger.ErrorCF("http", "plan.failed", map[string]interface{}{
		"path":   c.FullPath(),
		"status": status,
		"error":  err.Error(),
	})
	c.JSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var perr *provider.Error
	switch {
	case errors.Is(err, synth.ErrNoCandidates), errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
