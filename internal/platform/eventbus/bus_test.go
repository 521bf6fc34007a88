package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/platform/eventbus"
)

func TestInProcessBusDeliversToSubscribers(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)

	var got []string
	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		got = append(got, event.EventID)
		return nil
	}, domain.EventInvoicePosted)

	err := bus.Publish(context.Background(), domain.OutboxEvent{
		EventID:   "e1",
		EventType: domain.EventInvoicePosted,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, got)
}

func TestInProcessBusIgnoresUnsubscribedTypes(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)

	called := false
	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		called = true
		return nil
	}, domain.EventInvoicePosted)

	err := bus.Publish(context.Background(), domain.OutboxEvent{
		EventID:   "e2",
		EventType: domain.EventPaymentApplied,
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestInProcessBusPropagatesHandlerError(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)

	want := errors.New("downstream unavailable")
	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		return want
	}, domain.EventJournalPosted)

	secondCalled := false
	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		secondCalled = true
		return nil
	}, domain.EventJournalPosted)

	err := bus.Publish(context.Background(), domain.OutboxEvent{
		EventID:   "e3",
		EventType: domain.EventJournalPosted,
	})
	assert.ErrorIs(t, err, want)
	// Delivery aborts at the first failing handler so the row is redelivered whole.
	assert.False(t, secondCalled)
}

func TestInProcessBusRecoversHandlerPanic(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)

	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		panic("handler bug")
	}, domain.EventStockRecalculated)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), domain.OutboxEvent{
			EventID:   "e4",
			EventType: domain.EventStockRecalculated,
		})
	})
}

func TestInProcessBusMultipleEventTypes(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)

	var count int
	bus.Subscribe(func(ctx context.Context, event domain.OutboxEvent) error {
		count++
		return nil
	}, domain.EventInvoicePosted, domain.EventPurchaseBillPosted)

	require.NoError(t, bus.Publish(context.Background(), domain.OutboxEvent{EventType: domain.EventInvoicePosted}))
	require.NoError(t, bus.Publish(context.Background(), domain.OutboxEvent{EventType: domain.EventPurchaseBillPosted}))
	assert.Equal(t, 2, count)
}
