package service

import (
	"github.com/amshq/amscore/internal/cache"
	"github.com/amshq/amscore/internal/config"
	"github.com/amshq/amscore/internal/domain/audit"
	"github.com/amshq/amscore/internal/domain/invoicing"
	"github.com/amshq/amscore/internal/domain/ledger"
	"github.com/amshq/amscore/internal/domain/membership"
	"github.com/amshq/amscore/internal/domain/notification"
	"github.com/amshq/amscore/internal/domain/plan"
	"github.com/amshq/amscore/internal/domain/proration"
	"github.com/amshq/amscore/internal/domain/revenue"
	"github.com/amshq/amscore/internal/logger"
)

// ServiceParams holds common dependencies for services. The
// configuration is loaded once per run and injected here; services
// never read ambient global state.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	// Repositories
	PlanRepo       plan.Repository
	MembershipRepo membership.Repository
	RevenueRepo    revenue.Repository

	// Collaborators
	Invoicer invoicing.Service
	Notifier notification.Notifier
	Auditor  audit.Recorder
	Ledger   ledger.Service

	// Domain helpers
	ProrationCalculator proration.Calculator

	// HolderLocks serializes writes per holder; see locks.go
	HolderLocks *HolderLockRegistry
}
