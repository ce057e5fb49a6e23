package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/amshq/amscore/internal/cache"
	"github.com/amshq/amscore/internal/config"
	"github.com/amshq/amscore/internal/logger"
)

// Stores bundles the in-memory repositories and fake collaborators a
// service test runs against
type Stores struct {
	PlanRepo       *InMemoryPlanStore
	MembershipRepo *InMemoryMembershipStore
	RevenueRepo    *InMemoryRevenueStore

	Invoicer *InMemoryInvoicer
	Notifier *InMemoryNotifier
	Auditor  *InMemoryAuditRecorder
	Ledger   *InMemoryLedger
}

// BaseServiceTestSuite provides common setup for service tests: fresh
// stores, a nop logger, the default configuration and a test context.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	cfg    *config.Configuration
	logger *logger.Logger
	cache  cache.Cache
	stores Stores
}

// SetupTest initializes fresh stores before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = GetContext()
	s.cfg = config.NewDefaultConfig()
	s.logger = logger.NewNopLogger()
	s.cache = cache.NewInMemoryCache()
	s.stores = Stores{
		PlanRepo:       NewInMemoryPlanStore(),
		MembershipRepo: NewInMemoryMembershipStore(),
		RevenueRepo:    NewInMemoryRevenueStore(),
		Invoicer:       NewInMemoryInvoicer(),
		Notifier:       NewInMemoryNotifier(),
		Auditor:        NewInMemoryAuditRecorder(),
		Ledger:         NewInMemoryLedger(),
	}
}

// TearDownTest clears state after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.cfg
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetStores returns the active stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// ClearStores resets every store and fake collaborator
func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.PlanRepo.Clear()
	s.stores.MembershipRepo.Clear()
	s.stores.RevenueRepo.Clear()
	s.stores.Invoicer.Clear()
	s.stores.Notifier.Clear()
	s.stores.Auditor.Clear()
	s.stores.Ledger.Clear()
}
