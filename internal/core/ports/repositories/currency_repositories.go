package repositories

import (
	"context"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// CurrencyRepositoryFacade reads supported currencies and their minor-unit
// precision.
type CurrencyRepositoryFacade interface {
	FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
	SaveCurrency(ctx context.Context, currency domain.Currency) error
}
