package accounting

import (
	"fmt"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RoundMinor rounds an amount to the currency's minor-unit precision using
// round-half-away-from-zero. Every amount is rounded before it is summed or
// compared; caller-supplied totals are never trusted.
func RoundMinor(amount decimal.Decimal, precision int32) decimal.Decimal {
	return amount.Round(precision)
}

// SignedAmount applies the accounting convention sign to a journal line for an
// account of the given type:
// DEBIT to ASSET/EXPENSE is positive, CREDIT negative; the inverse holds for
// LIABILITY/EQUITY/INCOME.
func SignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	net := line.Net() // Debit - Credit
	switch accountType {
	case domain.Asset, domain.Expense:
		return net, nil
	case domain.Liability, domain.Equity, domain.Income:
		return net.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type %q for account %s", accountType, line.AccountID)
	}
}

// EntrySums recomputes the debit and credit totals of an entry from its rounded
// line amounts.
func EntrySums(lines []domain.JournalLine, precision int32) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(RoundMinor(l.Debit, precision))
		credits = credits.Add(RoundMinor(l.Credit, precision))
	}
	return debits, credits
}

// ValidateEntryLines checks the structural line invariants: at least two lines,
// no negative amounts, and exactly one of debit/credit nonzero per line.
func ValidateEntryLines(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal entry must have at least two lines")
	}
	for _, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("line amounts must not be negative for account %s", l.AccountID)
		}
		debitSet := l.Debit.IsPositive()
		creditSet := l.Credit.IsPositive()
		if debitSet == creditSet {
			return fmt.Errorf("exactly one of debit/credit must be set for account %s", l.AccountID)
		}
	}
	return nil
}

// ValidateEntryBalance requires the recomputed debit and credit sums to be
// exactly equal at minor-unit precision.
func ValidateEntryBalance(lines []domain.JournalLine, precision int32) error {
	if err := ValidateEntryLines(lines); err != nil {
		return err
	}
	debits, credits := EntrySums(lines, precision)
	if !debits.Equal(credits) {
		return fmt.Errorf("journal entry does not balance: debits %s, credits %s", debits.String(), credits.String())
	}
	return nil
}

// NetPerAccount folds an entry's lines into per-account net (debit - credit)
// balances. Used by the adjustment engine to compute deltas.
func NetPerAccount(lines []domain.JournalLine) map[string]decimal.Decimal {
	nets := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		nets[l.AccountID] = nets[l.AccountID].Add(l.Net())
	}
	return nets
}
