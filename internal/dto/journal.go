package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// CreateEntryLineRequest is one line of a manual journal entry.
// Exactly one of Debit/Credit must be positive.
type CreateEntryLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
}

// CreateEntryRequest posts a manual balanced journal entry.
type CreateEntryRequest struct {
	Date        time.Time                `json:"date" binding:"required"`
	Description string                   `json:"description" binding:"required"`
	Lines       []CreateEntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ReverseEntryRequest reverses a posted entry.
type ReverseEntryRequest struct {
	Reason string     `json:"reason" binding:"required"`
	Date   *time.Time `json:"date"`
}

// EntryLineResponse is the API shape of a journal line.
type EntryLineResponse struct {
	LineID    string          `json:"lineID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
}

// EntryResponse is the API shape of a journal entry.
type EntryResponse struct {
	EntryID           string              `json:"entryID"`
	EntryNumber       string              `json:"entryNumber"`
	Date              time.Time           `json:"date"`
	Description       string              `json:"description"`
	CurrencyCode      string              `json:"currencyCode"`
	Status            string              `json:"status"`
	ReversalOfEntryID *string             `json:"reversalOfEntryID,omitempty"`
	Lines             []EntryLineResponse `json:"lines,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
}

// ListEntriesParams carries pagination for entry listing.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
}

// ListEntriesResponse is a page of journal entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain entry to its API shape.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:           e.EntryID,
		EntryNumber:       e.EntryNumber,
		Date:              e.EntryDate,
		Description:       e.Description,
		CurrencyCode:      e.CurrencyCode,
		Status:            string(e.Status),
		ReversalOfEntryID: e.ReversalOfEntryID,
		CreatedAt:         e.CreatedAt,
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, EntryLineResponse{
			LineID:    l.LineID,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		})
	}
	return resp
}
