package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
	"github.com/ledgera/ledgera_backend/internal/utils/recurrence"
)

// ForecastConfig carries the projection defaults.
type ForecastConfig struct {
	DefaultWeeks int
	MaxWeeks     int
	// CashBuffer is the minimum comfortable cash level; running cash below it
	// (while still positive) raises BUFFER_BREACH.
	CashBuffer decimal.Decimal
	// ScenarioShiftDays is the timing shift applied by the conservative and
	// optimistic scenarios.
	ScenarioShiftDays int
	TopDrivers        int
}

// DefaultForecastConfig returns the standard projection settings.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		DefaultWeeks:      13,
		MaxWeeks:          52,
		CashBuffer:        decimal.NewFromInt(0),
		ScenarioShiftDays: 14,
		TopDrivers:        5,
	}
}

// forecastService is the read-side cashflow projector. It computes from
// ledger/document state and persists nothing.
type forecastService struct {
	forecastRepo portsrepo.ForecastRepositoryFacade
	documentRepo portsrepo.DocumentRepositoryFacade
	cfg          ForecastConfig
}

// NewForecastService creates a new ForecastService.
func NewForecastService(forecastRepo portsrepo.ForecastRepositoryFacade, documentRepo portsrepo.DocumentRepositoryFacade, cfg ForecastConfig) portssvc.ForecastSvcFacade {
	if cfg.DefaultWeeks <= 0 {
		cfg = DefaultForecastConfig()
	}
	return &forecastService{
		forecastRepo: forecastRepo,
		documentRepo: documentRepo,
		cfg:          cfg,
	}
}

var _ portssvc.ForecastSvcFacade = (*forecastService)(nil)

// cashFlow is one dated expected movement feeding the buckets.
type cashFlow struct {
	name   string
	date   time.Time
	amount decimal.Decimal
	inflow bool
}

// shiftFor returns the timing shift in days for an open item under the
// scenario. Conservative: receivables arrive later, payables leave sooner.
// Optimistic is the inverse. Recurring items never shift.
func (s *forecastService) shiftFor(scenario domain.ForecastScenario, inflow bool) int {
	switch scenario {
	case domain.ScenarioConservative:
		if inflow {
			return s.cfg.ScenarioShiftDays
		}
		return -s.cfg.ScenarioShiftDays
	case domain.ScenarioOptimistic:
		if inflow {
			return -s.cfg.ScenarioShiftDays
		}
		return s.cfg.ScenarioShiftDays
	default:
		return 0
	}
}

// Project buckets expected cash movements into weekly windows from asOf.
func (s *forecastService) Project(ctx context.Context, tenantID string, req dto.ForecastRequest) (*domain.CashflowForecast, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}
	asOf = truncateToDay(asOf)

	scenario := domain.ForecastScenario(req.Scenario)
	switch scenario {
	case domain.ScenarioBase, domain.ScenarioConservative, domain.ScenarioOptimistic:
	case "":
		scenario = domain.ScenarioBase
	default:
		return nil, fmt.Errorf("%w: unknown scenario %q", apperrors.ErrValidation, req.Scenario)
	}

	weeks := req.Weeks
	if weeks <= 0 {
		weeks = s.cfg.DefaultWeeks
	}
	if weeks > s.cfg.MaxWeeks {
		weeks = s.cfg.MaxWeeks
	}
	horizon := asOf.AddDate(0, 0, 7*weeks)

	openingCash, err := s.forecastRepo.OpeningCash(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}

	openItems, err := s.documentRepo.ListOpenItems(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	recurringItems, err := s.forecastRepo.ListRecurringItems(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var flows []cashFlow
	for _, item := range openItems {
		date := item.DueDate.AddDate(0, 0, s.shiftFor(scenario, item.Inflow))
		if date.Before(asOf) {
			// Overdue (or shifted before asOf): expect it in the first week.
			date = asOf
		}
		// The weeks cover [asOf, horizon); a flow dated exactly at the horizon
		// belongs to no bucket and is dropped.
		if !date.Before(horizon) {
			continue
		}
		flows = append(flows, cashFlow{
			name:   string(item.DocumentType) + " " + item.DocumentID,
			date:   date,
			amount: item.Amount,
			inflow: item.Inflow,
		})
	}
	for _, item := range recurringItems {
		for _, date := range recurrence.Expand(item.StartDate, item.EndDate, item.Frequency, item.Interval, asOf, horizon) {
			if !date.Before(horizon) {
				continue
			}
			flows = append(flows, cashFlow{
				name:   item.Name,
				date:   date,
				amount: item.Amount,
				inflow: item.Inflow,
			})
		}
	}

	forecast := &domain.CashflowForecast{
		TenantID:    tenantID,
		AsOf:        asOf,
		Scenario:    scenario,
		OpeningCash: openingCash,
		LowestCash:  openingCash,
		GeneratedAt: time.Now().UTC(),
	}

	running := openingCash
	for i := 0; i < weeks; i++ {
		weekStart := asOf.AddDate(0, 0, 7*i)
		weekEnd := weekStart.AddDate(0, 0, 7)

		inflow, outflow := decimal.Zero, decimal.Zero
		for _, f := range flows {
			if f.date.Before(weekStart) || !f.date.Before(weekEnd) {
				continue
			}
			if f.inflow {
				inflow = inflow.Add(f.amount)
			} else {
				outflow = outflow.Add(f.amount)
			}
		}

		net := inflow.Sub(outflow)
		running = running.Add(net)
		week := domain.ForecastWeek{
			WeekStart:   weekStart,
			WeekEnd:     weekEnd,
			Inflow:      inflow,
			Outflow:     outflow,
			NetFlow:     net,
			RunningCash: running,
		}
		forecast.Weeks = append(forecast.Weeks, week)

		if running.LessThan(forecast.LowestCash) {
			forecast.LowestCash = running
			lw := weekStart
			forecast.LowestWeek = &lw
		}
		if running.IsNegative() {
			forecast.Alerts = append(forecast.Alerts, domain.AlertCashNegative)
			// The projection past the first negative week is noise.
			break
		}
	}

	hasNegative := len(forecast.Alerts) > 0
	if !hasNegative && forecast.LowestCash.LessThan(s.cfg.CashBuffer) {
		forecast.Alerts = append(forecast.Alerts, domain.AlertBufferBreach)
	}

	forecast.TopInflows = topDrivers(flows, true, s.cfg.TopDrivers)
	forecast.TopOutflows = topDrivers(flows, false, s.cfg.TopDrivers)

	logger.Debug("Cashflow forecast generated",
		slog.String("tenant_id", tenantID),
		slog.String("scenario", string(scenario)),
		slog.Int("weeks", len(forecast.Weeks)),
		slog.Int("alerts", len(forecast.Alerts)),
	)
	return forecast, nil
}

// topDrivers returns the n largest flows of one direction by absolute amount.
// Flows with the same name fold together.
func topDrivers(flows []cashFlow, inflow bool, n int) []domain.ForecastDriver {
	byName := make(map[string]decimal.Decimal)
	for _, f := range flows {
		if f.inflow != inflow {
			continue
		}
		byName[f.name] = byName[f.name].Add(f.amount)
	}

	drivers := make([]domain.ForecastDriver, 0, len(byName))
	for name, amount := range byName {
		drivers = append(drivers, domain.ForecastDriver{Name: name, Amount: amount, Inflow: inflow})
	}
	sort.Slice(drivers, func(i, j int) bool {
		ai, aj := drivers[i].Amount.Abs(), drivers[j].Amount.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return drivers[i].Name < drivers[j].Name
	})
	if len(drivers) > n {
		drivers = drivers[:n]
	}
	return drivers
}
