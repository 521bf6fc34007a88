package services

import (
	"context"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/dto"
)

// ForecastSvcFacade produces the scenario-based weekly cash projection.
type ForecastSvcFacade interface {
	Project(ctx context.Context, tenantID string, req dto.ForecastRequest) (*domain.CashflowForecast, error)
}
