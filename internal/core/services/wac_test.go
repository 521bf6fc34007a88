package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func inMove(qty, unitCost string) *domain.StockMove {
	return &domain.StockMove{Direction: domain.MoveIn, Quantity: d(qty), UnitCostApplied: d(unitCost)}
}

func outMove(qty string) *domain.StockMove {
	return &domain.StockMove{Direction: domain.MoveOut, Quantity: d(qty)}
}

func valueAdj(delta string) *domain.StockMove {
	return &domain.StockMove{Direction: domain.MoveValueAdj, Quantity: decimal.Zero, TotalCostApplied: d(delta)}
}

func TestApplyCostStepInWeightedAverage(t *testing.T) {
	// 10 @ 8.00 on hand, receive 5 @ 11.00 -> 15 @ 9.00
	move := inMove("5", "11.00")
	qty, avg, err := applyCostStep(d("10"), d("8.00"), move)
	require.NoError(t, err)
	assert.True(t, d("15").Equal(qty))
	assert.True(t, d("9").Equal(avg))
	assert.True(t, d("55").Equal(move.TotalCostApplied))
}

func TestApplyCostStepFirstReceiptSetsAverage(t *testing.T) {
	qty, avg, err := applyCostStep(decimal.Zero, decimal.Zero, inMove("4", "2.50"))
	require.NoError(t, err)
	assert.True(t, d("4").Equal(qty))
	assert.True(t, d("2.50").Equal(avg))
}

func TestApplyCostStepInRoundsAverage(t *testing.T) {
	// 1 @ 1.00 + 2 @ 2.00 -> avg 5/3 rounded to 6 decimal places
	_, avg, err := applyCostStep(d("1"), d("1.00"), inMove("2", "2.00"))
	require.NoError(t, err)
	assert.True(t, d("1.666667").Equal(avg))
}

func TestApplyCostStepOutUsesAverageNotSalePrice(t *testing.T) {
	move := outMove("3")
	qty, avg, err := applyCostStep(d("10"), d("9.00"), move)
	require.NoError(t, err)
	assert.True(t, d("7").Equal(qty))
	assert.True(t, d("9.00").Equal(avg), "average must not change on issue")
	assert.True(t, d("9.00").Equal(move.UnitCostApplied))
	assert.True(t, d("27.00").Equal(move.TotalCostApplied))
}

func TestApplyCostStepOutRejectsInsufficientStock(t *testing.T) {
	_, _, err := applyCostStep(d("2"), d("5.00"), outMove("3"))
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestApplyCostStepRejectsNonPositiveQuantities(t *testing.T) {
	_, _, err := applyCostStep(d("10"), d("1"), inMove("0", "1.00"))
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, _, err = applyCostStep(d("10"), d("1"), outMove("0"))
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyCostStepValueAdjustment(t *testing.T) {
	// 15 on hand @ 9.00, capitalize 7.50 freight -> 9.50
	qty, avg, err := applyCostStep(d("15"), d("9.00"), valueAdj("7.50"))
	require.NoError(t, err)
	assert.True(t, d("15").Equal(qty))
	assert.True(t, d("9.50").Equal(avg))
}

func TestApplyCostStepValueAdjustmentNegativeDelta(t *testing.T) {
	_, avg, err := applyCostStep(d("10"), d("5.00"), valueAdj("-10.00"))
	require.NoError(t, err)
	assert.True(t, d("4.00").Equal(avg))
}

func TestApplyCostStepValueAdjustmentRejectsZeroOnHand(t *testing.T) {
	_, _, err := applyCostStep(decimal.Zero, decimal.Zero, valueAdj("5.00"))
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyCostStepValueAdjustmentRejectsQuantity(t *testing.T) {
	move := &domain.StockMove{Direction: domain.MoveValueAdj, Quantity: d("1"), TotalCostApplied: d("5.00")}
	_, _, err := applyCostStep(d("10"), d("5.00"), move)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyCostStepUnknownDirection(t *testing.T) {
	move := &domain.StockMove{Direction: domain.MoveDirection("SIDEWAYS"), Quantity: d("1")}
	_, _, err := applyCostStep(d("10"), d("5.00"), move)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

// Replaying a timeline step by step must reproduce the same terminal state as
// applying the steps incrementally, so backdated-recalc results never diverge
// from the live path.
func TestCostStepReplayEquivalence(t *testing.T) {
	moves := []*domain.StockMove{
		inMove("10", "8.00"),
		inMove("5", "11.00"),
		outMove("3"),
		valueAdj("6.00"),
		outMove("4"),
	}

	qty, avg := decimal.Zero, decimal.Zero
	for _, m := range moves {
		var err error
		qty, avg, err = applyCostStep(qty, avg, m)
		require.NoError(t, err)
	}

	// Replay from zero over fresh copies of the same moves.
	replayQty, replayAvg := decimal.Zero, decimal.Zero
	fresh := []*domain.StockMove{
		inMove("10", "8.00"),
		inMove("5", "11.00"),
		outMove("3"),
		valueAdj("6.00"),
		outMove("4"),
	}
	for _, m := range fresh {
		var err error
		replayQty, replayAvg, err = applyCostStep(replayQty, replayAvg, m)
		require.NoError(t, err)
	}

	assert.True(t, qty.Equal(replayQty))
	assert.True(t, avg.Equal(replayAvg))
	assert.True(t, d("8").Equal(qty))
}

func TestBackoffForGrowsAndCaps(t *testing.T) {
	assert.Equal(t, publishBackoffBase, backoffFor(1))
	assert.Greater(t, backoffFor(3), backoffFor(2))
	assert.Equal(t, publishBackoffMax, backoffFor(50))
}
