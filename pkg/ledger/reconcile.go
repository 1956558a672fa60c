package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPaymentDate means a payment predates the item's pledge date.
	ErrInvalidPaymentDate = errors.New("invalid payment date")
	// ErrEmptyPayment means a payment carries no positive allocation.
	ErrEmptyPayment = errors.New("empty payment")
	// ErrOverpayment means principal allocations would drive the remaining
	// balance negative.
	ErrOverpayment = errors.New("overpayment detected")
	// ErrAmountMismatch means a supplied total disagrees with the
	// principal/interest split.
	ErrAmountMismatch = errors.New("amount mismatch")
	// ErrNegativeAmount means an allocation is negative.
	ErrNegativeAmount = errors.New("negative amount")
)

// PaymentInput is what a caller submits to record a new payment. Amount may
// be zero, in which case it is derived from the two allocations.
type PaymentInput struct {
	Amount          decimal.Decimal  `json:"amount"`
	PrincipalAmount *decimal.Decimal `json:"principalAmount"`
	InterestAmount  *decimal.Decimal `json:"interestAmount"`
	PaymentDate     models.Date      `json:"paymentDate"`
	Notes           string           `json:"notes"`
}

// sortedByDate returns a copy of payments in (paymentDate, seq) order. The
// input slice is never reordered so recomputation stays idempotent.
func sortedByDate(payments []*models.Payment) []*models.Payment {
	out := make([]*models.Payment, len(payments))
	copy(out, payments)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate.Time) {
			return out[i].PaymentDate.Before(out[j].PaymentDate.Time)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// ComputeCurrentStatus derives an item's outstanding balance view from its
// terms and full payment history. The remaining amount is the original
// principal minus every principal allocation; interestPaidTill is the latest
// payment date that settled any interest, defaulting to the pledge date.
func ComputeCurrentStatus(item *models.Item, payments []*models.Payment) (models.CurrentStatus, error) {
	remaining := item.Amount
	totalPaid := decimal.Zero
	paidTill := item.PledgedAt

	for _, p := range sortedByDate(payments) {
		remaining = remaining.Sub(p.Principal())
		totalPaid = totalPaid.Add(p.Amount)
		if p.Interest().IsPositive() && p.PaymentDate.After(paidTill.Time) {
			paidTill = p.PaymentDate
		}
	}

	if remaining.IsNegative() {
		return models.CurrentStatus{}, fmt.Errorf(
			"%w: principal allocations exceed original amount %s by %s",
			ErrOverpayment, item.Amount, remaining.Neg())
	}

	return models.CurrentStatus{
		OriginalAmount:      item.Amount,
		RemainingAmount:     remaining,
		TotalPaid:           totalPaid,
		InterestPaidTill:    paidTill,
		MonthlyInterestRate: item.Percentage,
	}, nil
}

// ComputeSummary sums paid totals across the history. Order-independent.
func ComputeSummary(payments []*models.Payment) models.PaymentSummary {
	summary := models.PaymentSummary{
		TotalAmountPaid:    decimal.Zero,
		TotalInterestPaid:  decimal.Zero,
		TotalPrincipalPaid: decimal.Zero,
	}
	for _, p := range payments {
		summary.TotalAmountPaid = summary.TotalAmountPaid.Add(p.Amount)
		summary.TotalInterestPaid = summary.TotalInterestPaid.Add(p.Interest())
		summary.TotalPrincipalPaid = summary.TotalPrincipalPaid.Add(p.Principal())
	}
	return summary
}

// RecordPayment validates in against the item terms and existing history,
// builds the new payment and returns it together with the extended history
// and the freshly derived status. On any validation failure the history is
// returned untouched and nothing is assigned.
//
// The payment type is always derived from which allocations are positive;
// a caller-supplied total must match the split or is rejected.
func RecordPayment(item *models.Item, payments []*models.Payment, in PaymentInput) (*models.Payment, []*models.Payment, models.CurrentStatus, error) {
	var zero models.CurrentStatus

	principal := decimal.Zero
	if in.PrincipalAmount != nil {
		principal = *in.PrincipalAmount
	}
	interest := decimal.Zero
	if in.InterestAmount != nil {
		interest = *in.InterestAmount
	}

	if principal.IsNegative() {
		return nil, payments, zero, fmt.Errorf("%w: principalAmount %s", ErrNegativeAmount, principal)
	}
	if interest.IsNegative() {
		return nil, payments, zero, fmt.Errorf("%w: interestAmount %s", ErrNegativeAmount, interest)
	}
	if !principal.IsPositive() && !interest.IsPositive() {
		return nil, payments, zero, fmt.Errorf("%w: at least one of principalAmount or interestAmount must be positive", ErrEmptyPayment)
	}
	if in.PaymentDate.IsZero() {
		return nil, payments, zero, fmt.Errorf("%w: paymentDate is required", ErrInvalidPaymentDate)
	}
	if in.PaymentDate.Before(item.PledgedAt.Time) {
		return nil, payments, zero, fmt.Errorf("%w: paymentDate %s precedes pledge date %s",
			ErrInvalidPaymentDate, in.PaymentDate, item.PledgedAt)
	}

	total := principal.Add(interest)
	if !in.Amount.IsZero() && !in.Amount.Equal(total) {
		return nil, payments, zero, fmt.Errorf("%w: amount %s does not equal principal %s + interest %s",
			ErrAmountMismatch, in.Amount, principal, interest)
	}

	paymentType := models.PaymentTypeBoth
	switch {
	case !interest.IsPositive():
		paymentType = models.PaymentTypePrincipal
	case !principal.IsPositive():
		paymentType = models.PaymentTypeInterest
	}

	var seq int64
	for _, p := range payments {
		if p.Seq > seq {
			seq = p.Seq
		}
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		ItemID:      item.ID,
		Amount:      total,
		PaymentDate: in.PaymentDate,
		PaymentType: paymentType,
		Notes:       in.Notes,
		Seq:         seq + 1,
		CreatedAt:   time.Now(),
	}
	if in.PrincipalAmount != nil {
		v := principal
		payment.PrincipalAmount = &v
	}
	if in.InterestAmount != nil {
		v := interest
		payment.InterestAmount = &v
	}

	updated := make([]*models.Payment, len(payments), len(payments)+1)
	copy(updated, payments)
	updated = append(updated, payment)

	status, err := ComputeCurrentStatus(item, updated)
	if err != nil {
		return nil, payments, zero, err
	}
	return payment, updated, status, nil
}
