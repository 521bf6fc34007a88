package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
)

// --- Mock JournalRepository ---
type MockJournalRepository struct {
	mock.Mock
}

// Ensure MockJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockJournalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockJournalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// RunInTx executes fn with a nil transaction; the mocked repositories ignore
// the tx argument so the service's tx plumbing can be exercised without a
// database.
func (m *MockJournalRepository) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (m *MockJournalRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, tx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken, includeReversals)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.JournalEntry), returnedNextToken, args.Error(2)
}

func (m *MockJournalRepository) ListLinesByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	args := m.Called(ctx, tenantID, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.JournalLine), returnedNextToken, args.Error(2)
}

func (m *MockJournalRepository) MarkEntryReversedInTx(ctx context.Context, tx pgx.Tx, entryID, reversedByEntryID, userID string, at time.Time) error {
	args := m.Called(ctx, tx, entryID, reversedByEntryID, userID, at)
	return args.Error(0)
}

func (m *MockJournalRepository) SetLastAdjustmentInTx(ctx context.Context, tx pgx.Tx, entryID string, adjustmentEntryID *string, userID string, at time.Time) error {
	args := m.Called(ctx, tx, entryID, adjustmentEntryID, userID, at)
	return args.Error(0)
}

func (m *MockJournalRepository) MarkEntryVoidedInTx(ctx context.Context, tx pgx.Tx, entryID, reason, userID string, at time.Time) error {
	args := m.Called(ctx, tx, entryID, reason, userID, at)
	return args.Error(0)
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, tenantID, accountID, userID string, at time.Time) error {
	args := m.Called(ctx, tenantID, accountID, userID, at)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, at time.Time) error {
	args := m.Called(ctx, tx, deltas, userID, at)
	return args.Error(0)
}

// --- Mock SequenceRepository ---
type MockSequenceRepository struct {
	mock.Mock
}

var _ portsrepo.SequenceRepositoryFacade = (*MockSequenceRepository)(nil)

func (m *MockSequenceRepository) NextNumberInTx(ctx context.Context, tx pgx.Tx, tenantID, key string) (int64, error) {
	args := m.Called(ctx, tx, tenantID, key)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock PeriodRepository ---
type MockPeriodRepository struct {
	mock.Mock
}

var _ portsrepo.PeriodRepositoryFacade = (*MockPeriodRepository)(nil)

func (m *MockPeriodRepository) SavePeriodCloseInTx(ctx context.Context, tx pgx.Tx, close domain.PeriodClose) error {
	args := m.Called(ctx, tx, close)
	return args.Error(0)
}

func (m *MockPeriodRepository) LatestCloseDate(ctx context.Context, tenantID string) (*time.Time, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockPeriodRepository) ListPeriodCloses(ctx context.Context, tenantID string) ([]domain.PeriodClose, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodClose), args.Error(1)
}

// --- Mock ForecastRepository ---
type MockForecastRepository struct {
	mock.Mock
}

var _ portsrepo.ForecastRepositoryFacade = (*MockForecastRepository)(nil)

func (m *MockForecastRepository) OpeningCash(ctx context.Context, tenantID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockForecastRepository) ListRecurringItems(ctx context.Context, tenantID string) ([]domain.RecurringItem, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringItem), args.Error(1)
}

func (m *MockForecastRepository) SaveRecurringItem(ctx context.Context, item domain.RecurringItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// --- Mock DocumentRepository ---
type MockDocumentRepository struct {
	mock.Mock
}

var _ portsrepo.DocumentRepositoryFacade = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) SaveDocumentInTx(ctx context.Context, tx pgx.Tx, doc domain.Document, lines []domain.DocumentLine) error {
	args := m.Called(ctx, tx, doc, lines)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindLinesByDocumentID(ctx context.Context, documentID string) ([]domain.DocumentLine, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentLine), args.Error(1)
}

func (m *MockDocumentRepository) ListDocuments(ctx context.Context, tenantID string, docType *domain.DocumentType, limit int, nextToken *string) ([]domain.Document, *string, error) {
	args := m.Called(ctx, tenantID, docType, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Document), returnedNextToken, args.Error(2)
}

func (m *MockDocumentRepository) FindDocumentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, tx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateDocumentStatusInTx(ctx context.Context, tx pgx.Tx, documentID string, status domain.DocumentStatus, paidAmount decimal.Decimal, userID string, at time.Time) error {
	args := m.Called(ctx, tx, documentID, status, paidAmount, userID, at)
	return args.Error(0)
}

func (m *MockDocumentRepository) LinkJournalEntryInTx(ctx context.Context, tx pgx.Tx, documentID, entryID string, userID string, at time.Time) error {
	args := m.Called(ctx, tx, documentID, entryID, userID, at)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateDocumentAmountsInTx(ctx context.Context, tx pgx.Tx, documentID string, total decimal.Decimal, lines []domain.DocumentLine, userID string, at time.Time) error {
	args := m.Called(ctx, tx, documentID, total, lines, userID, at)
	return args.Error(0)
}

func (m *MockDocumentRepository) MarkDocumentVoidInTx(ctx context.Context, tx pgx.Tx, documentID, reason, userID string, at time.Time) error {
	args := m.Called(ctx, tx, documentID, reason, userID, at)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListOpenItems(ctx context.Context, tenantID string, asOf time.Time) ([]domain.OpenItem, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OpenItem), args.Error(1)
}

// --- Mock CurrencyService ---
type MockCurrencyService struct {
	mock.Mock
}

var _ portssvc.CurrencySvcFacade = (*MockCurrencyService)(nil)

func (m *MockCurrencyService) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)

func (m *MockPeriodService) AssertOpen(ctx context.Context, tenantID string, transactionDate time.Time) error {
	args := m.Called(ctx, tenantID, transactionDate)
	return args.Error(0)
}

func (m *MockPeriodService) ClosePeriod(ctx context.Context, tenantID, idempotencyKey string, toDate time.Time, notes, userID string) (*domain.PeriodClose, error) {
	args := m.Called(ctx, tenantID, idempotencyKey, toDate, notes, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodClose), args.Error(1)
}

func (m *MockPeriodService) ListCloses(ctx context.Context, tenantID string) ([]domain.PeriodClose, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodClose), args.Error(1)
}

// --- Mock IdempotencyService ---
// A Return(nil, false, nil) expectation executes the work closure with a nil
// transaction, mirroring how MockJournalRepository.RunInTx drives fn. Returning
// a stored result simulates a replay without executing work.
type MockIdempotencyService struct {
	mock.Mock
}

var _ portssvc.IdempotencySvcFacade = (*MockIdempotencyService)(nil)

func (m *MockIdempotencyService) RunOnce(ctx context.Context, tenantID, key, commandName string, work portssvc.IdempotentWork) ([]byte, bool, error) {
	args := m.Called(ctx, tenantID, key, commandName)
	if args.Error(2) != nil {
		return nil, false, args.Error(2)
	}
	if args.Get(0) != nil {
		return args.Get(0).([]byte), args.Bool(1), nil
	}
	result, err := work(ctx, nil)
	return result, false, err
}

func (m *MockIdempotencyService) RunOnceForEvent(ctx context.Context, tenantID, eventID, handlerName string, work portssvc.IdempotentWork) error {
	args := m.Called(ctx, tenantID, eventID, handlerName)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	_, err := work(ctx, nil)
	return err
}

// --- Mock OutboxRepository ---
type MockOutboxRepository struct {
	mock.Mock
}

var _ portsrepo.OutboxRepositoryFacade = (*MockOutboxRepository)(nil)

func (m *MockOutboxRepository) EmitInTx(ctx context.Context, tx pgx.Tx, events ...domain.OutboxEvent) error {
	args := m.Called(ctx, tx, events)
	return args.Error(0)
}

func (m *MockOutboxRepository) ClaimDue(ctx context.Context, tx pgx.Tx, due time.Time, limit int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, tx, due, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublishedInTx(ctx context.Context, tx pgx.Tx, eventID string, at time.Time) error {
	args := m.Called(ctx, tx, eventID, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailedInTx(ctx context.Context, tx pgx.Tx, eventID string, attempt int, nextAttemptAt time.Time, publishErr string) error {
	args := m.Called(ctx, tx, eventID, attempt, nextAttemptAt, publishErr)
	return args.Error(0)
}

func (m *MockOutboxRepository) FindByID(ctx context.Context, eventID string) (*domain.OutboxEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEvent), args.Error(1)
}

// --- Mock OutboxPublisher ---
type MockOutboxPublisher struct {
	mock.Mock
}

var _ portssvc.OutboxPublisherSvc = (*MockOutboxPublisher)(nil)

func (m *MockOutboxPublisher) PublishEvent(ctx context.Context, eventID string) {
	m.Called(ctx, eventID)
}

func (m *MockOutboxPublisher) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockOutboxPublisher) Run(ctx context.Context) {
	m.Called(ctx)
}

// --- Mock InventoryRepository ---
type MockInventoryRepository struct {
	mock.Mock
}

var _ portsrepo.InventoryRepositoryFacade = (*MockInventoryRepository)(nil)

func (m *MockInventoryRepository) FindLevelForUpdate(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string) (*domain.StockLevel, error) {
	args := m.Called(ctx, tx, tenantID, locationID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLevel), args.Error(1)
}

func (m *MockInventoryRepository) SaveMoveInTx(ctx context.Context, tx pgx.Tx, move domain.StockMove) error {
	args := m.Called(ctx, tx, move)
	return args.Error(0)
}

func (m *MockInventoryRepository) SaveLevelInTx(ctx context.Context, tx pgx.Tx, level domain.StockLevel) error {
	args := m.Called(ctx, tx, level)
	return args.Error(0)
}

func (m *MockInventoryRepository) ListMovesFrom(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string, fromDate time.Time) ([]domain.StockMove, error) {
	args := m.Called(ctx, tx, tenantID, locationID, itemID, fromDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockMove), args.Error(1)
}

func (m *MockInventoryRepository) UpdateMoveCostsInTx(ctx context.Context, tx pgx.Tx, moveID string, unitCost, totalCost decimal.Decimal) error {
	args := m.Called(ctx, tx, moveID, unitCost, totalCost)
	return args.Error(0)
}

func (m *MockInventoryRepository) ListMovesByReference(ctx context.Context, tenantID, referenceType, referenceID string) ([]domain.StockMove, error) {
	args := m.Called(ctx, tenantID, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockMove), args.Error(1)
}

func (m *MockInventoryRepository) NextMoveSeq(ctx context.Context, tx pgx.Tx, tenantID string) (int64, error) {
	args := m.Called(ctx, tx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) GetEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockLedgerService) CreateEntry(ctx context.Context, tenantID, idempotencyKey string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, idempotencyKey, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) PostEntryInTx(ctx context.Context, tx pgx.Tx, params domain.PostEntryParams) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ReverseEntry(ctx context.Context, tenantID, idempotencyKey, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, idempotencyKey, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ReverseEntryInTx(ctx context.Context, tx pgx.Tx, tenantID, entryID, reason string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, tenantID, entryID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) AdjustEntryInTx(ctx context.Context, tx pgx.Tx, params domain.AdjustEntryParams) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

// --- Mock InventoryService ---
type MockInventoryService struct {
	mock.Mock
}

var _ portssvc.InventorySvcFacade = (*MockInventoryService)(nil)

func (m *MockInventoryService) ApplyMoveInTx(ctx context.Context, tx pgx.Tx, params portssvc.ApplyMoveParams) (*domain.MoveResult, error) {
	args := m.Called(ctx, tx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MoveResult), args.Error(1)
}

func (m *MockInventoryService) RecalculateFromInTx(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string, fromDate time.Time, userID string) (*domain.StockLevel, error) {
	args := m.Called(ctx, tx, tenantID, locationID, itemID, fromDate, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLevel), args.Error(1)
}

func (m *MockInventoryService) AdjustValue(ctx context.Context, tenantID, idempotencyKey string, req dto.ValueAdjustmentRequest, userID string) (*domain.StockLevel, error) {
	args := m.Called(ctx, tenantID, idempotencyKey, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLevel), args.Error(1)
}

func (m *MockInventoryService) GetLevel(ctx context.Context, tenantID, locationID, itemID string) (*domain.StockLevel, error) {
	args := m.Called(ctx, tenantID, locationID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLevel), args.Error(1)
}

// --- Mock IdempotencyRepository ---
type MockIdempotencyRepository struct {
	mock.Mock
}

var _ portsrepo.IdempotencyRepositoryFacade = (*MockIdempotencyRepository)(nil)

func (m *MockIdempotencyRepository) InsertRecordInTx(ctx context.Context, tx pgx.Tx, record domain.IdempotencyRecord) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) StoreResultInTx(ctx context.Context, tx pgx.Tx, tenantID, key string, result []byte) error {
	args := m.Called(ctx, tx, tenantID, key, result)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) FindRecord(ctx context.Context, tenantID, key string) (*domain.IdempotencyRecord, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdempotencyRecord), args.Error(1)
}
