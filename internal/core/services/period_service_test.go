package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/core/services"
)

func TestAssertOpen_NoCloseExists(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("LatestCloseDate", ctx, tenantID).Return(nil, nil).Once()

	svc := services.NewPeriodService(mockRepo, new(MockIdempotencyService))
	err := svc.AssertOpen(ctx, tenantID, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAssertOpen_Boundary(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()
	closedThrough := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("LatestCloseDate", ctx, tenantID).Return(&closedThrough, nil)
	svc := services.NewPeriodService(mockRepo, new(MockIdempotencyService))

	t.Run("date before boundary rejected", func(t *testing.T) {
		err := svc.AssertOpen(ctx, tenantID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, apperrors.ErrPeriodClosed)
	})

	t.Run("date exactly on boundary rejected", func(t *testing.T) {
		err := svc.AssertOpen(ctx, tenantID, time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC))
		require.Error(t, err)

		var pce *apperrors.PeriodClosedError
		require.ErrorAs(t, err, &pce)
		assert.True(t, pce.ClosedThroughDate.Equal(closedThrough))
	})

	t.Run("day after boundary accepted", func(t *testing.T) {
		err := svc.AssertOpen(ctx, tenantID, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
	})
}

func TestAssertOpen_RepoError(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()
	repoErr := errors.New("connection lost")

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("LatestCloseDate", ctx, tenantID).Return(nil, repoErr).Once()

	svc := services.NewPeriodService(mockRepo, new(MockIdempotencyService))
	err := svc.AssertOpen(ctx, tenantID, time.Now().UTC())

	assert.ErrorIs(t, err, repoErr)
	assert.NotErrorIs(t, err, apperrors.ErrPeriodClosed)
}

func TestClosePeriod_Success(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()
	userID := uuid.NewString()
	key := uuid.NewString()

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("LatestCloseDate", ctx, tenantID).Return(nil, nil).Once()
	mockRepo.On("SavePeriodCloseInTx", ctx, mock.Anything, mock.AnythingOfType("domain.PeriodClose")).Return(nil).Once()

	mockIdem := new(MockIdempotencyService)
	mockIdem.On("RunOnce", ctx, tenantID, key, "ClosePeriod").Return(nil, false, nil).Once()

	svc := services.NewPeriodService(mockRepo, mockIdem)
	// Time-of-day must not survive into the stored boundary.
	pc, err := svc.ClosePeriod(ctx, tenantID, key, time.Date(2026, 3, 31, 17, 45, 0, 0, time.UTC), "Q1 close", userID)

	require.NoError(t, err)
	require.NotNil(t, pc)
	assert.NotEmpty(t, pc.PeriodCloseID)
	assert.Equal(t, tenantID, pc.TenantID)
	assert.True(t, pc.ToDate.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Q1 close", pc.Notes)
	assert.Equal(t, userID, pc.CreatedBy)
	mockRepo.AssertExpectations(t)
}

func TestClosePeriod_RejectsNonAdvancingBoundary(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()
	latest := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("LatestCloseDate", ctx, tenantID).Return(&latest, nil)
	svc := services.NewPeriodService(mockRepo, new(MockIdempotencyService))

	for _, toDate := range []time.Time{
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), // earlier
		latest, // same day
	} {
		pc, err := svc.ClosePeriod(ctx, tenantID, uuid.NewString(), toDate, "", uuid.NewString())
		assert.Nil(t, pc)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
	mockRepo.AssertNotCalled(t, "SavePeriodCloseInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestClosePeriod_ReplayReturnsStoredClose(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()
	key := uuid.NewString()
	toDate := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	stored, err := json.Marshal(domain.PeriodClose{
		PeriodCloseID: uuid.NewString(),
		TenantID:      tenantID,
		ToDate:        toDate,
		Notes:         "Q1 close",
	})
	require.NoError(t, err)

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("LatestCloseDate", ctx, tenantID).Return(nil, nil).Once()

	mockIdem := new(MockIdempotencyService)
	mockIdem.On("RunOnce", ctx, tenantID, key, "ClosePeriod").Return(stored, true, nil).Once()

	svc := services.NewPeriodService(mockRepo, mockIdem)
	pc, err := svc.ClosePeriod(ctx, tenantID, key, toDate, "Q1 close", uuid.NewString())

	require.NoError(t, err)
	require.NotNil(t, pc)
	assert.Equal(t, tenantID, pc.TenantID)
	assert.True(t, pc.ToDate.Equal(toDate))
	// The stored result is returned without writing a second close row.
	mockRepo.AssertNotCalled(t, "SavePeriodCloseInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestListCloses(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.NewString()
	closes := []domain.PeriodClose{
		{PeriodCloseID: uuid.NewString(), TenantID: tenantID, ToDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)},
	}

	mockRepo := new(MockPeriodRepository)
	mockRepo.On("ListPeriodCloses", ctx, tenantID).Return(closes, nil).Once()

	svc := services.NewPeriodService(mockRepo, new(MockIdempotencyService))
	got, err := svc.ListCloses(ctx, tenantID)

	require.NoError(t, err)
	assert.Equal(t, closes, got)
}
