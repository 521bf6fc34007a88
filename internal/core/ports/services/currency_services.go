package services

import (
	"context"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// CurrencySvcFacade reads supported currencies.
type CurrencySvcFacade interface {
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
