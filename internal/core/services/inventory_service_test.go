package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/core/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/platform/locking"
)

type InventoryServiceTestSuite struct {
	suite.Suite
	mockInventoryRepo *MockInventoryRepository
	mockOutboxRepo    *MockOutboxRepository
	mockTxManager     *MockJournalRepository
	mockPeriodSvc     *MockPeriodService
	mockLedgerSvc     *MockLedgerService
	mockIdempotency   *MockIdempotencyService
	service           portssvc.InventorySvcFacade

	tenantID   string
	userID     string
	cmdKey     string
	locationID string
	itemID     string
}

func (suite *InventoryServiceTestSuite) SetupTest() {
	suite.mockInventoryRepo = new(MockInventoryRepository)
	suite.mockOutboxRepo = new(MockOutboxRepository)
	suite.mockTxManager = new(MockJournalRepository)
	suite.mockPeriodSvc = new(MockPeriodService)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.mockIdempotency = new(MockIdempotencyService)
	suite.service = services.NewInventoryService(
		suite.mockInventoryRepo,
		suite.mockOutboxRepo,
		suite.mockTxManager,
		suite.mockPeriodSvc,
		suite.mockLedgerSvc,
		suite.mockIdempotency,
		locking.NewNoopLocker(),
	)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.cmdKey = uuid.NewString()
	suite.locationID = uuid.NewString()
	suite.itemID = uuid.NewString()
}

func (suite *InventoryServiceTestSuite) levelAt(qty, avgCost string, lastMoveAt time.Time) *domain.StockLevel {
	return &domain.StockLevel{
		TenantID:    suite.tenantID,
		LocationID:  suite.locationID,
		ItemID:      suite.itemID,
		QtyOnHand:   decimal.RequireFromString(qty),
		AvgUnitCost: decimal.RequireFromString(avgCost),
		LastMoveAt:  lastMoveAt,
	}
}

func (suite *InventoryServiceTestSuite) expectOpenPeriod() {
	suite.mockPeriodSvc.On("AssertOpen", mock.Anything, suite.tenantID, mock.AnythingOfType("time.Time")).Return(nil)
}

func (suite *InventoryServiceTestSuite) moveParams(direction domain.MoveDirection, qty, unitCost string, date time.Time) portssvc.ApplyMoveParams {
	return portssvc.ApplyMoveParams{
		TenantID:      suite.tenantID,
		LocationID:    suite.locationID,
		ItemID:        suite.itemID,
		Date:          date,
		Direction:     direction,
		Quantity:      decimal.RequireFromString(qty),
		UnitCost:      decimal.RequireFromString(unitCost),
		ReferenceType: "ADJUSTMENT",
		ReferenceID:   uuid.NewString(),
		UserID:        suite.userID,
	}
}

func (suite *InventoryServiceTestSuite) TestApplyMove_ReceiptReweightsAverage() {
	ctx := context.Background()
	lastMove := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	moveDate := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	suite.expectOpenPeriod()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "4.00", lastMove), nil).Once()
	suite.mockInventoryRepo.On("NextMoveSeq", mock.Anything, mock.Anything, suite.tenantID).Return(int64(11), nil).Once()

	var savedMove domain.StockMove
	suite.mockInventoryRepo.On("SaveMoveInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockMove")).
		Run(func(args mock.Arguments) { savedMove = args.Get(2).(domain.StockMove) }).
		Return(nil).Once()

	var savedLevel domain.StockLevel
	suite.mockInventoryRepo.On("SaveLevelInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockLevel")).
		Run(func(args mock.Arguments) { savedLevel = args.Get(2).(domain.StockLevel) }).
		Return(nil).Once()

	result, err := suite.service.ApplyMoveInTx(ctx, nil, suite.moveParams(domain.MoveIn, "10", "6.00", moveDate))

	suite.Require().NoError(err)
	suite.Nil(result.RequiresRecalcFromDate)
	// 10 @ 4.00 plus 10 @ 6.00 averages to 5.00.
	suite.True(savedLevel.QtyOnHand.Equal(decimal.NewFromInt(20)))
	suite.True(savedLevel.AvgUnitCost.Equal(decimal.RequireFromString("5.00")))
	suite.Equal(moveDate, savedLevel.LastMoveAt)
	suite.True(savedMove.TotalCostApplied.Equal(decimal.RequireFromString("60.00")))
	suite.Equal(int64(11), savedMove.Seq)
}

func (suite *InventoryServiceTestSuite) TestApplyMove_IssueCostsAtAverage() {
	ctx := context.Background()
	lastMove := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	moveDate := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	suite.expectOpenPeriod()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "4.00", lastMove), nil).Once()
	suite.mockInventoryRepo.On("NextMoveSeq", mock.Anything, mock.Anything, suite.tenantID).Return(int64(12), nil).Once()

	var savedMove domain.StockMove
	suite.mockInventoryRepo.On("SaveMoveInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockMove")).
		Run(func(args mock.Arguments) { savedMove = args.Get(2).(domain.StockMove) }).
		Return(nil).Once()
	suite.mockInventoryRepo.On("SaveLevelInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockLevel")).Return(nil).Once()

	// The caller's unit cost on an OUT move is ignored; cost follows the
	// running average.
	params := suite.moveParams(domain.MoveOut, "5", "99.00", moveDate)
	result, err := suite.service.ApplyMoveInTx(ctx, nil, params)

	suite.Require().NoError(err)
	suite.True(savedMove.UnitCostApplied.Equal(decimal.RequireFromString("4.00")))
	suite.True(savedMove.TotalCostApplied.Equal(decimal.RequireFromString("20.00")))
	suite.True(result.Level.QtyOnHand.Equal(decimal.NewFromInt(5)))
}

func (suite *InventoryServiceTestSuite) TestApplyMove_RejectsOverIssue() {
	ctx := context.Background()
	lastMove := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	moveDate := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	suite.expectOpenPeriod()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "4.00", lastMove), nil).Once()
	suite.mockInventoryRepo.On("NextMoveSeq", mock.Anything, mock.Anything, suite.tenantID).Return(int64(13), nil).Once()

	result, err := suite.service.ApplyMoveInTx(ctx, nil, suite.moveParams(domain.MoveOut, "15", "0", moveDate))

	suite.Nil(result)
	suite.ErrorIs(err, services.ErrInsufficientStock)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockInventoryRepo.AssertNotCalled(suite.T(), "SaveMoveInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InventoryServiceTestSuite) TestApplyMove_ClosedPeriodRejected() {
	ctx := context.Background()
	moveDate := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	suite.mockPeriodSvc.On("AssertOpen", mock.Anything, suite.tenantID, moveDate).
		Return(apperrors.NewPeriodClosedError(moveDate)).Once()

	result, err := suite.service.ApplyMoveInTx(ctx, nil, suite.moveParams(domain.MoveIn, "5", "4.00", moveDate))

	suite.Nil(result)
	suite.Error(err)
	suite.mockInventoryRepo.AssertNotCalled(suite.T(), "FindLevelForUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InventoryServiceTestSuite) TestApplyMove_BackdatedDefersToReplay() {
	ctx := context.Background()
	lastMove := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	backdated := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)

	suite.expectOpenPeriod()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "4.00", lastMove), nil).Once()
	suite.mockInventoryRepo.On("NextMoveSeq", mock.Anything, mock.Anything, suite.tenantID).Return(int64(14), nil).Once()
	suite.mockInventoryRepo.On("SaveMoveInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockMove")).Return(nil).Once()

	result, err := suite.service.ApplyMoveInTx(ctx, nil, suite.moveParams(domain.MoveIn, "10", "3.00", backdated))

	suite.Require().NoError(err)
	suite.Require().NotNil(result.RequiresRecalcFromDate)
	suite.Equal(backdated, *result.RequiresRecalcFromDate)
	// The in-place average would be wrong with later moves in between, so the
	// level stays untouched until the replay runs.
	suite.mockInventoryRepo.AssertNotCalled(suite.T(), "SaveLevelInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InventoryServiceTestSuite) TestRecalculateFrom_RewritesCostsOnly() {
	ctx := context.Background()
	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	firstIn := domain.StockMove{
		MoveID: uuid.NewString(), TenantID: suite.tenantID, LocationID: suite.locationID, ItemID: suite.itemID,
		MoveDate: d1, Seq: 1, Direction: domain.MoveIn,
		Quantity: decimal.NewFromInt(10), UnitCostApplied: decimal.RequireFromString("5.00"), TotalCostApplied: decimal.RequireFromString("50.00"),
	}
	backdatedIn := domain.StockMove{
		MoveID: uuid.NewString(), TenantID: suite.tenantID, LocationID: suite.locationID, ItemID: suite.itemID,
		MoveDate: d2, Seq: 3, Direction: domain.MoveIn,
		Quantity: decimal.NewFromInt(10), UnitCostApplied: decimal.RequireFromString("3.00"), TotalCostApplied: decimal.RequireFromString("30.00"),
	}
	// Issued before the backdated receipt existed, so its stored cost carries
	// the old 5.00 average.
	staleOut := domain.StockMove{
		MoveID: uuid.NewString(), TenantID: suite.tenantID, LocationID: suite.locationID, ItemID: suite.itemID,
		MoveDate: d3, Seq: 2, Direction: domain.MoveOut,
		Quantity: decimal.NewFromInt(5), UnitCostApplied: decimal.RequireFromString("5.00"), TotalCostApplied: decimal.RequireFromString("25.00"),
	}

	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("15", "5.00", d3), nil).Once()
	suite.mockInventoryRepo.On("ListMovesFrom", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID, time.Time{}).
		Return([]domain.StockMove{firstIn, backdatedIn, staleOut}, nil).Once()

	var rewrittenID string
	var rewrittenUnit, rewrittenTotal decimal.Decimal
	suite.mockInventoryRepo.On("UpdateMoveCostsInTx", mock.Anything, mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			rewrittenID = args.Get(2).(string)
			rewrittenUnit = args.Get(3).(decimal.Decimal)
			rewrittenTotal = args.Get(4).(decimal.Decimal)
		}).
		Return(nil).Once()

	var savedLevel domain.StockLevel
	suite.mockInventoryRepo.On("SaveLevelInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockLevel")).
		Run(func(args mock.Arguments) { savedLevel = args.Get(2).(domain.StockLevel) }).
		Return(nil).Once()

	level, err := suite.service.RecalculateFromInTx(ctx, nil, suite.tenantID, suite.locationID, suite.itemID, d2, suite.userID)

	suite.Require().NoError(err)
	// Replay from zero: 10@5.00 then 10@3.00 averages 4.00, the issue costs
	// out at that average. Only the issue's costs changed, so only its row is
	// rewritten; quantities, dates, and the receipts stay as recorded.
	suite.Equal(staleOut.MoveID, rewrittenID)
	suite.True(rewrittenUnit.Equal(decimal.RequireFromString("4.00")))
	suite.True(rewrittenTotal.Equal(decimal.RequireFromString("20.00")))
	suite.True(savedLevel.QtyOnHand.Equal(decimal.NewFromInt(15)))
	suite.True(savedLevel.AvgUnitCost.Equal(decimal.RequireFromString("4.00")))
	suite.Equal(d3, savedLevel.LastMoveAt)
	suite.True(level.AvgUnitCost.Equal(decimal.RequireFromString("4.00")))
	suite.mockInventoryRepo.AssertNumberOfCalls(suite.T(), "UpdateMoveCostsInTx", 1)
	suite.mockInventoryRepo.AssertNotCalled(suite.T(), "SaveMoveInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InventoryServiceTestSuite) TestAdjustValue_CapitalizesIntoAverage() {
	ctx := context.Background()
	lastMove := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	adjDate := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	inventoryAccountID := uuid.NewString()
	offsetAccountID := uuid.NewString()

	suite.mockIdempotency.On("RunOnce", mock.Anything, suite.tenantID, suite.cmdKey, "AdjustInventoryValue").Return(nil, false, nil).Once()
	suite.expectOpenPeriod()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "4.00", lastMove), nil).Once()
	suite.mockInventoryRepo.On("NextMoveSeq", mock.Anything, mock.Anything, suite.tenantID).Return(int64(15), nil).Once()

	var savedMove domain.StockMove
	suite.mockInventoryRepo.On("SaveMoveInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockMove")).
		Run(func(args mock.Arguments) { savedMove = args.Get(2).(domain.StockMove) }).
		Return(nil).Once()
	suite.mockInventoryRepo.On("SaveLevelInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockLevel")).Return(nil).Once()

	var postedParams domain.PostEntryParams
	suite.mockLedgerSvc.On("PostEntryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.PostEntryParams")).
		Run(func(args mock.Arguments) { postedParams = args.Get(2).(domain.PostEntryParams) }).
		Return(&domain.JournalEntry{EntryID: uuid.NewString(), Status: domain.EntryPosted}, nil).Once()
	suite.mockOutboxRepo.On("EmitInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	level, err := suite.service.AdjustValue(ctx, suite.tenantID, suite.cmdKey, dto.ValueAdjustmentRequest{
		ItemID:             suite.itemID,
		LocationID:         suite.locationID,
		Date:               adjDate,
		ValueDelta:         decimal.RequireFromString("10.00"),
		InventoryAccountID: inventoryAccountID,
		OffsetAccountID:    offsetAccountID,
	}, suite.userID)

	suite.Require().NoError(err)
	// 10 on hand at 4.00 plus 10.00 of landed cost averages 5.00.
	suite.True(level.AvgUnitCost.Equal(decimal.RequireFromString("5.00")))
	suite.True(level.QtyOnHand.Equal(decimal.NewFromInt(10)))

	suite.Equal(domain.MoveValueAdj, savedMove.Direction)
	suite.Equal("ADJUSTMENT", savedMove.ReferenceType)
	suite.True(savedMove.TotalCostApplied.Equal(decimal.RequireFromString("10.00")))

	suite.Require().Len(postedParams.Lines, 2)
	suite.Equal(inventoryAccountID, postedParams.Lines[0].AccountID)
	suite.True(postedParams.Lines[0].Debit.Equal(decimal.RequireFromString("10.00")))
	suite.Equal(offsetAccountID, postedParams.Lines[1].AccountID)
	suite.True(postedParams.Lines[1].Credit.Equal(decimal.RequireFromString("10.00")))
}

func (suite *InventoryServiceTestSuite) TestAdjustValue_NegativeDeltaFlipsPosting() {
	ctx := context.Background()
	lastMove := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	inventoryAccountID := uuid.NewString()
	offsetAccountID := uuid.NewString()

	suite.mockIdempotency.On("RunOnce", mock.Anything, suite.tenantID, suite.cmdKey, "AdjustInventoryValue").Return(nil, false, nil).Once()
	suite.expectOpenPeriod()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "4.00", lastMove), nil).Once()
	suite.mockInventoryRepo.On("NextMoveSeq", mock.Anything, mock.Anything, suite.tenantID).Return(int64(16), nil).Once()
	suite.mockInventoryRepo.On("SaveMoveInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockMove")).Return(nil).Once()
	suite.mockInventoryRepo.On("SaveLevelInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.StockLevel")).Return(nil).Once()

	var postedParams domain.PostEntryParams
	suite.mockLedgerSvc.On("PostEntryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.PostEntryParams")).
		Run(func(args mock.Arguments) { postedParams = args.Get(2).(domain.PostEntryParams) }).
		Return(&domain.JournalEntry{EntryID: uuid.NewString(), Status: domain.EntryPosted}, nil).Once()
	suite.mockOutboxRepo.On("EmitInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	level, err := suite.service.AdjustValue(ctx, suite.tenantID, suite.cmdKey, dto.ValueAdjustmentRequest{
		ItemID:             suite.itemID,
		LocationID:         suite.locationID,
		Date:               time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		ValueDelta:         decimal.RequireFromString("-10.00"),
		InventoryAccountID: inventoryAccountID,
		OffsetAccountID:    offsetAccountID,
	}, suite.userID)

	suite.Require().NoError(err)
	suite.True(level.AvgUnitCost.Equal(decimal.RequireFromString("3.00")))

	// A write-down credits inventory; both amounts stay positive.
	suite.Require().Len(postedParams.Lines, 2)
	suite.Equal(offsetAccountID, postedParams.Lines[0].AccountID)
	suite.True(postedParams.Lines[0].Debit.Equal(decimal.RequireFromString("10.00")))
	suite.Equal(inventoryAccountID, postedParams.Lines[1].AccountID)
	suite.True(postedParams.Lines[1].Credit.Equal(decimal.RequireFromString("10.00")))
}

func (suite *InventoryServiceTestSuite) TestAdjustValue_RejectsZeroDelta() {
	ctx := context.Background()

	level, err := suite.service.AdjustValue(ctx, suite.tenantID, suite.cmdKey, dto.ValueAdjustmentRequest{
		ItemID:             suite.itemID,
		LocationID:         suite.locationID,
		Date:               time.Now().UTC(),
		ValueDelta:         decimal.Zero,
		InventoryAccountID: uuid.NewString(),
		OffsetAccountID:    uuid.NewString(),
	}, suite.userID)

	suite.Nil(level)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockIdempotency.AssertNotCalled(suite.T(), "RunOnce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InventoryServiceTestSuite) TestAdjustValue_ReplayReadsCurrentLevel() {
	ctx := context.Background()

	stored, err := json.Marshal(dto.StockLevelResponse{ItemID: suite.itemID})
	suite.Require().NoError(err)
	suite.mockIdempotency.On("RunOnce", mock.Anything, suite.tenantID, suite.cmdKey, "AdjustInventoryValue").
		Return(stored, true, nil).Once()
	suite.mockInventoryRepo.On("FindLevelForUpdate", mock.Anything, mock.Anything, suite.tenantID, suite.locationID, suite.itemID).
		Return(suite.levelAt("10", "5.00", time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)), nil).Once()

	level, err := suite.service.AdjustValue(ctx, suite.tenantID, suite.cmdKey, dto.ValueAdjustmentRequest{
		ItemID:             suite.itemID,
		LocationID:         suite.locationID,
		Date:               time.Now().UTC(),
		ValueDelta:         decimal.RequireFromString("10.00"),
		InventoryAccountID: uuid.NewString(),
		OffsetAccountID:    uuid.NewString(),
	}, suite.userID)

	suite.Require().NoError(err)
	suite.True(level.AvgUnitCost.Equal(decimal.RequireFromString("5.00")))
	// No second move, posting, or event on the replayed command.
	suite.mockInventoryRepo.AssertNotCalled(suite.T(), "SaveMoveInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "PostEntryInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockOutboxRepo.AssertNotCalled(suite.T(), "EmitInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}
