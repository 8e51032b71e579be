package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculator derives commission ledger entries from disbursement events.
// The default rate is injected once from configuration; call sites never
// re-declare it.
type Calculator struct {
	defaultRate decimal.Decimal
}

// NewCalculator creates a calculator with the configured fallback rate
// (percent, e.g. 1.5).
func NewCalculator(defaultRate decimal.Decimal) *Calculator {
	return &Calculator{defaultRate: defaultRate}
}

// DefaultRate returns the configured fallback commission rate.
func (c *Calculator) DefaultRate() decimal.Decimal {
	return c.defaultRate
}

// IdempotencyKey identifies a disbursement event. A second entry for the
// same key is rejected instead of silently duplicated.
func IdempotencyKey(loanFileID string, disbursedDate time.Time) string {
	return loanFileID + ":" + disbursedDate.UTC().Format("2006-01-02")
}

// Calculate produces the ledger entry for a disbursement. rate is the
// client-specific commission rate in percent; pass nil to fall back to the
// configured default. Negative rates yield Payin entries with a negative
// payout amount.
func (c *Calculator) Calculate(loanFileID, clientID string, disbursedAmount decimal.Decimal, disbursedDate time.Time, rate *decimal.Decimal, createdBy string) *Entry {
	r := c.defaultRate
	if rate != nil {
		r = *rate
	}
	commission := disbursedAmount.Mul(r).Div(decimal.NewFromInt(100))

	entryType := EntryTypePayout
	if commission.IsNegative() {
		entryType = EntryTypePayin
	}

	now := time.Now().UTC()
	return &Entry{
		ID:              uuid.New(),
		ClientID:        clientID,
		LoanFileID:      loanFileID,
		Date:            disbursedDate,
		DisbursedAmount: &disbursedAmount,
		CommissionRate:  &r,
		PayoutAmount:    commission,
		EntryType:       entryType,
		Description: fmt.Sprintf("%s of %s on disbursement of %s at %s%%",
			entryType, commission.StringFixed(2), disbursedAmount.StringFixed(2), r.String()),
		State:          EntryStatePending,
		DisputeStatus:  DisputeNone,
		PayoutStatus:   PayoutNone,
		IdempotencyKey: IdempotencyKey(loanFileID, disbursedDate),
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewManualEntry creates a correction entry with an explicit signed amount
// and no disbursement linkage.
func NewManualEntry(clientID, loanFileID string, amount decimal.Decimal, description, createdBy string) *Entry {
	entryType := EntryTypePayout
	if amount.IsNegative() {
		entryType = EntryTypePayin
	}
	now := time.Now().UTC()
	return &Entry{
		ID:            uuid.New(),
		ClientID:      clientID,
		LoanFileID:    loanFileID,
		Date:          now,
		PayoutAmount:  amount,
		EntryType:     entryType,
		Description:   description,
		State:         EntryStateConfirmed,
		DisputeStatus: DisputeNone,
		PayoutStatus:  PayoutNone,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
