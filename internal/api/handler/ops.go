// Package handler provides HTTP handlers for the walkplan API.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/provider/resilience"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry reports provider circuit state (optional).
	Registry *resilience.Registry

	// Checks are run by the readiness and status endpoints, keyed by subsystem.
	Checks map[string]ReadinessCheck

	// CheckTimeout bounds each check (default: 2s).
	CheckTimeout time.Duration
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version      string
	buildTime    string
	registry     *resilience.Registry
	checks       map[string]ReadinessCheck
	checkTimeout time.Duration
	now          func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = 2 * time.Second
	}
	return &OpsHandler{
		version:      cfg.Version,
		buildTime:    cfg.BuildTime,
		registry:     cfg.Registry,
		checks:       cfg.Checks,
		checkTimeout: cfg.CheckTimeout,
		now:          time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It fails when any dependency
// check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems, status := h.runChecks(r.Context())

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}

	details := make(map[string]interface{}, len(subsystems))
	for _, s := range subsystems {
		details[s.Name] = s.Status
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(h.now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems, status := h.runChecks(r.Context())

	providers := []models.ProviderStatus{}
	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			p := providerStatus(health)
			if p.Status != models.HealthStatusOK && status == models.HealthStatusOK {
				status = models.HealthStatusDegraded
			}
			providers = append(providers, p)
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     status,
		Time:       models.Timestamp(h.now()),
		Subsystems: subsystems,
		Providers:  providers,
	})
}

func (h *OpsHandler) runChecks(ctx context.Context) ([]models.SubsystemStatus, models.HealthStatus) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := models.HealthStatusOK
	subsystems := make([]models.SubsystemStatus, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
		err := h.checks[name](checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
		if err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
			overall = models.HealthStatusFail
		}
		subsystems = append(subsystems, s)
	}
	return subsystems, overall
}

func providerStatus(h *resilience.ProviderHealth) models.ProviderStatus {
	p := models.ProviderStatus{
		Provider:     h.Name,
		Status:       models.HealthStatusOK,
		CircuitState: h.CircuitState.String(),
	}
	switch {
	case h.IsUnhealthy():
		p.Status = models.HealthStatusFail
	case h.IsDegraded():
		p.Status = models.HealthStatusDegraded
	}
	if h.LastSuccessAt != nil {
		ts := models.Timestamp(*h.LastSuccessAt)
		p.LastSuccessAt = &ts
	}
	if h.LastFailureAt != nil {
		ts := models.Timestamp(*h.LastFailureAt)
		p.LastFailureAt = &ts
	}
	if h.LastError != "" {
		msg := h.LastError
		p.Message = &msg
	}
	return p
}
