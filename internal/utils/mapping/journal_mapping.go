package mapping

import (
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to its model row.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:               d.EntryID,
		TenantID:              d.TenantID,
		EntryNumber:           d.EntryNumber,
		EntryDate:             d.EntryDate,
		Description:           d.Description,
		CurrencyCode:          d.CurrencyCode,
		Status:                models.EntryStatus(d.Status),
		ReversalOfEntryID:     d.ReversalOfEntryID,
		ReversedByEntryID:     d.ReversedByEntryID,
		LastAdjustmentEntryID: d.LastAdjustmentEntryID,
		VoidedAt:              d.VoidedAt,
		VoidReason:            d.VoidReason,
		AuditFields:           ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model row to a domain JournalEntry.
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:               m.EntryID,
		TenantID:              m.TenantID,
		EntryNumber:           m.EntryNumber,
		EntryDate:             m.EntryDate,
		Description:           m.Description,
		CurrencyCode:          m.CurrencyCode,
		Status:                domain.EntryStatus(m.Status),
		ReversalOfEntryID:     m.ReversalOfEntryID,
		ReversedByEntryID:     m.ReversedByEntryID,
		LastAdjustmentEntryID: m.LastAdjustmentEntryID,
		VoidedAt:              m.VoidedAt,
		VoidReason:            m.VoidReason,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to its model row.
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		AccountID:   d.AccountID,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Memo:        d.Memo,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalLine converts a model row to a domain JournalLine.
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Memo:        m.Memo,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainJournalLineSlice converts model rows to domain lines.
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	out := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		out[i] = ToDomainJournalLine(m)
	}
	return out
}
