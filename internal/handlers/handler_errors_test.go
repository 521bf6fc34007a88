package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/services"
)

func TestRespondErrorMapsServiceSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unbalanced entry", services.ErrEntryUnbalanced, http.StatusBadRequest},
		{"currency mismatch", services.ErrCurrencyMismatch, http.StatusBadRequest},
		{"payment exceeds balance", services.ErrPaymentExceeds, http.StatusBadRequest},
		{"invalid stock move", services.ErrInvalidMove, http.StatusBadRequest},
		{"already reversed", services.ErrAlreadyReversed, http.StatusConflict},
		{"reversal of reversal", services.ErrReversalOfReversal, http.StatusConflict},
		{"document not payable", services.ErrDocumentNotPayable, http.StatusConflict},
		{"document has payment", services.ErrDocumentHasPayment, http.StatusConflict},
		{"invalid status transition", services.ErrInvalidTransition, http.StatusConflict},
		{"insufficient stock", services.ErrInsufficientStock, http.StatusConflict},
		{"closed period", apperrors.NewPeriodClosedError(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)), http.StatusUnprocessableEntity},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound},
		{"duplicate", apperrors.ErrDuplicate, http.StatusConflict},
		{"resource busy", apperrors.ErrResourceBusy, http.StatusConflict},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"unknown error", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, logger, tt.err, "Request failed")

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRespondErrorClosedPeriodCarriesBoundary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, logger, apperrors.NewPeriodClosedError(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)), "Request failed")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"closedThroughDate":"2026-03-31"`)
}

func TestIdempotencyKeyHeaderRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/journal-entries", nil)

	key, ok := idempotencyKey(c)

	assert.False(t, ok)
	assert.Empty(t, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/journal-entries", nil)
	c.Request.Header.Set("Idempotency-Key", "cmd-123")

	key, ok = idempotencyKey(c)

	assert.True(t, ok)
	assert.Equal(t, "cmd-123", key)
}
