package handlers

import (
	"context"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/core/scheduler"
	"github.com/frostdev-ops/pma-goveelife/internal/core/types"
	"github.com/frostdev-ops/pma-goveelife/internal/websocket"
	"github.com/sirupsen/logrus"
)

// ClimateService is the climate surface served over HTTP
type ClimateService interface {
	Climates() []*goveelife.Climate
	Climate(entityID string) (*goveelife.Climate, error)
	ExecuteAction(ctx context.Context, action types.PMAControlAction) (*types.PMAControlResult, error)
}

// HealthChecker reports the health of one dependency
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Health(ctx context.Context) error { return f(ctx) }

// JobLister lists scheduled jobs
type JobLister interface {
	Jobs() []scheduler.ScheduledJob
}

// Dependencies holds everything the handlers need
type Dependencies struct {
	Climates      ClimateService
	Adapter       types.PMAAdapter
	Devices       goveelife.DeviceSource
	Hub           *websocket.Hub
	Jobs          JobLister
	HealthChecks  map[string]HealthChecker
	ActionTimeout time.Duration
	Logger        *logrus.Logger
}

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	climates      ClimateService
	adapter       types.PMAAdapter
	devices       goveelife.DeviceSource
	hub           *websocket.Hub
	jobs          JobLister
	checks        map[string]HealthChecker
	actionTimeout time.Duration
	log           *logrus.Logger
	startedAt     time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(deps Dependencies) *Handlers {
	timeout := deps.ActionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handlers{
		climates:      deps.Climates,
		adapter:       deps.Adapter,
		devices:       deps.Devices,
		hub:           deps.Hub,
		jobs:          deps.Jobs,
		checks:        deps.HealthChecks,
		actionTimeout: timeout,
		log:           deps.Logger,
		startedAt:     time.Now(),
	}
}
