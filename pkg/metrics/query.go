package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// UsageSummary aggregates orchestration metrics scraped into Prometheus.
type UsageSummary struct {
	Runs             int64            `json:"runs"`
	RoutesByBackend  map[string]int64 `json:"routes_by_backend"`
	SandboxByOutcome map[string]int64 `json:"sandbox_by_outcome"`
}

// QueryService provides methods to query orchestration metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetUsageSummary retrieves run counts, per-backend routing counts, and
// sandbox outcome counts across the whole retention window.
func (q *QueryService) GetUsageSummary(ctx context.Context) (*UsageSummary, error) {
	summary := &UsageSummary{
		RoutesByBackend:  make(map[string]int64),
		SandboxByOutcome: make(map[string]int64),
	}

	runsResult, _, err := q.queryAPI.Query(ctx, `sum(conductor_runs_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query run count: %w", err)
	}
	if vector, ok := runsResult.(model.Vector); ok && len(vector) > 0 {
		summary.Runs = int64(vector[0].Value)
	}

	routesResult, _, err := q.queryAPI.Query(ctx,
		`sum by (backend) (conductor_routing_decisions_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query routing decisions: %w", err)
	}
	if vector, ok := routesResult.(model.Vector); ok {
		for _, sample := range vector {
			if backend, ok := sample.Metric["backend"]; ok {
				summary.RoutesByBackend[string(backend)] = int64(sample.Value)
			}
		}
	}

	sandboxResult, _, err := q.queryAPI.Query(ctx,
		`sum by (outcome) (conductor_sandbox_executions_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query sandbox executions: %w", err)
	}
	if vector, ok := sandboxResult.(model.Vector); ok {
		for _, sample := range vector {
			if outcome, ok := sample.Metric["outcome"]; ok {
				summary.SandboxByOutcome[string(outcome)] = int64(sample.Value)
			}
		}
	}

	return summary, nil
}

// GetBackendLatency retrieves the average completion latency per backend
// in seconds, computed from the duration histogram.
func (q *QueryService) GetBackendLatency(ctx context.Context) (map[string]float64, error) {
	result := make(map[string]float64)

	latencyResult, _, err := q.queryAPI.Query(ctx,
		`sum by (backend) (conductor_llm_request_duration_seconds_sum)`+
			` / sum by (backend) (conductor_llm_request_duration_seconds_count)`,
		time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query backend latency: %w", err)
	}

	if vector, ok := latencyResult.(model.Vector); ok {
		for _, sample := range vector {
			if backend, ok := sample.Metric["backend"]; ok {
				result[string(backend)] = float64(sample.Value)
			}
		}
	}

	return result, nil
}
