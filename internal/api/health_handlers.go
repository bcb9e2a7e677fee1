package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component states, worst last.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

var healthRank = map[string]int{healthHealthy: 0, healthDegraded: 1, healthUnhealthy: 2}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the term store and the free-text index answer",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth is the state of one backing component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Time the check took"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the worst component state plus every component.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := HealthResponse{Status: healthHealthy, Components: make(map[string]ComponentHealth, 2)}

	if s.services.Store == nil {
		resp.Components["database"] = ComponentHealth{Status: healthDegraded, Message: "database not configured"}
	} else {
		resp.Components["database"] = checkComponent(func() (string, error) {
			return "", s.services.Store.Ping(ctx)
		}, "database ping failed")
	}

	if s.services.Index == nil {
		resp.Components["search"] = ComponentHealth{Status: healthDegraded, Message: "search index not configured"}
	} else {
		// An empty index is normal before the first term is created.
		resp.Components["search"] = checkComponent(func() (string, error) {
			n, err := s.services.Index.DocumentCount()
			return strconv.FormatUint(n, 10) + " indexed terms", err
		}, "search index unreachable")
	}

	for _, c := range resp.Components {
		if healthRank[c.Status] > healthRank[resp.Status] {
			resp.Status = c.Status
		}
	}
	return &HealthOutput{Body: resp}, nil
}

// checkComponent times check and reports it healthy, or unhealthy with failMsg.
func checkComponent(check func() (string, error), failMsg string) ComponentHealth {
	start := time.Now()
	msg, err := check()
	latency := time.Since(start).String()
	if err != nil {
		return ComponentHealth{Status: healthUnhealthy, Latency: latency, Message: failMsg}
	}
	return ComponentHealth{Status: healthHealthy, Latency: latency, Message: msg}
}
