// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/logai/logai/internal/errors"
)

// checkTimeout bounds each individual health probe.
const checkTimeout = 5 * time.Second

// Checker probes one dependency's health.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// HealthResponse is the healthy-path body of /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthManager runs registered checkers and serves the health endpoints.
type HealthManager struct {
	version string

	mu       sync.RWMutex
	checkers map[string]Checker
	started  time.Time
}

// NewHealthManager creates a manager with no checkers registered.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		version:  version,
		checkers: make(map[string]Checker),
		started:  time.Now(),
	}
}

// RegisterChecker adds or replaces a named checker.
func (m *HealthManager) RegisterChecker(name string, c Checker) {
	m.mu.Lock()
	m.checkers[name] = c
	m.mu.Unlock()
}

// HealthHandler reports overall health with per-checker detail.
func (m *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks := m.runChecks(r.Context())
	status := m.determineOverallStatus(checks)

	if status == "unhealthy" {
		apperrors.WriteError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			"one or more health checks failed",
			map[string]any{"checks": checks})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:  status,
		Version: m.version,
		Checks:  checks,
	})
}

// LivenessHandler answers whether the process is up at all.
func (m *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "alive", Version: m.version})
}

// ReadinessHandler answers whether the engine can take traffic. It runs
// the same checkers as HealthHandler.
func (m *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	m.HealthHandler(w, r)
}

// StartupHandler reports once startup has completed. The engine finishes
// startup before the server listens, so this is alive-or-nothing.
func (m *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "started", Version: m.version})
}

func (m *HealthManager) runChecks(ctx context.Context) map[string]string {
	m.mu.RLock()
	checkers := make(map[string]Checker, len(m.checkers))
	for name, c := range m.checkers {
		checkers[name] = c
	}
	m.mu.RUnlock()

	checks := make(map[string]string, len(checkers))
	for name, c := range checkers {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.CheckHealth(cctx)
		cancel()
		switch {
		case err == nil:
			checks[name] = "healthy"
		case cctx.Err() == context.DeadlineExceeded:
			checks[name] = "timeout"
		default:
			checks[name] = "unhealthy"
		}
	}
	return checks
}

// determineOverallStatus folds per-checker states: any unhealthy wins,
// timeouts degrade, otherwise healthy.
func (m *HealthManager) determineOverallStatus(checks map[string]string) string {
	status := "healthy"
	for _, s := range checks {
		switch s {
		case "unhealthy":
			return "unhealthy"
		case "timeout":
			status = "degraded"
		}
	}
	return status
}

var globalHealthManager *HealthManager

// InitHealthManager installs the process-wide manager used by the global
// handler functions.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the process-wide manager, or nil before init.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func withGlobalManager(w http.ResponseWriter, r *http.Request, f func(*HealthManager, http.ResponseWriter, *http.Request)) {
	if globalHealthManager == nil {
		apperrors.WriteError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			"health manager not initialized", nil)
		return
	}
	f(globalHealthManager, w, r)
}

// HealthHandler serves /health using the global manager.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).HealthHandler)
}

// LivenessHandler serves /health/live using the global manager.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).LivenessHandler)
}

// ReadinessHandler serves /health/ready using the global manager.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).ReadinessHandler)
}

// StartupHandler serves /health/startup using the global manager.
func StartupHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).StartupHandler)
}
