package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func testItem(principal int64) *models.Item {
	return &models.Item{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Name:       "gold chain",
		Category:   models.CategoryGold,
		Amount:     dec(principal),
		Percentage: dec(2),
		PledgedAt:  models.NewDate(2024, time.January, 1),
	}
}

func testPayment(item *models.Item, seq int64, principal, interestAmt *decimal.Decimal, date models.Date) *models.Payment {
	amount := decimal.Zero
	if principal != nil {
		amount = amount.Add(*principal)
	}
	if interestAmt != nil {
		amount = amount.Add(*interestAmt)
	}
	return &models.Payment{
		ID:              uuid.New(),
		ItemID:          item.ID,
		Amount:          amount,
		PrincipalAmount: principal,
		InterestAmount:  interestAmt,
		PaymentDate:     date,
		Seq:             seq,
	}
}

func TestComputeCurrentStatus(t *testing.T) {
	item := testItem(50000)
	payments := []*models.Payment{
		testPayment(item, 1, decPtr(10000), decPtr(1000), models.NewDate(2024, time.February, 1)),
	}

	status, err := ComputeCurrentStatus(item, payments)
	if err != nil {
		t.Fatalf("ComputeCurrentStatus failed: %v", err)
	}

	if !status.RemainingAmount.Equal(dec(40000)) {
		t.Errorf("Expected remaining 40000, got %s", status.RemainingAmount)
	}
	if status.InterestPaidTill.String() != "2024-02-01" {
		t.Errorf("Expected interestPaidTill 2024-02-01, got %s", status.InterestPaidTill)
	}
	if !status.TotalPaid.Equal(dec(11000)) {
		t.Errorf("Expected totalPaid 11000, got %s", status.TotalPaid)
	}
	if !status.MonthlyInterestRate.Equal(item.Percentage) {
		t.Errorf("Expected rate %s, got %s", item.Percentage, status.MonthlyInterestRate)
	}
}

func TestComputeCurrentStatusNoPayments(t *testing.T) {
	item := testItem(50000)
	status, err := ComputeCurrentStatus(item, nil)
	if err != nil {
		t.Fatalf("ComputeCurrentStatus failed: %v", err)
	}

	if !status.RemainingAmount.Equal(item.Amount) {
		t.Errorf("Expected remaining %s, got %s", item.Amount, status.RemainingAmount)
	}
	if !status.InterestPaidTill.Equal(item.PledgedAt.Time) {
		t.Errorf("Expected interestPaidTill %s, got %s", item.PledgedAt, status.InterestPaidTill)
	}
	if !status.TotalPaid.IsZero() {
		t.Errorf("Expected totalPaid 0, got %s", status.TotalPaid)
	}
}

func TestComputeCurrentStatusOrderIndependent(t *testing.T) {
	item := testItem(50000)
	p1 := testPayment(item, 1, decPtr(5000), decPtr(500), models.NewDate(2024, time.February, 1))
	p2 := testPayment(item, 2, decPtr(10000), nil, models.NewDate(2024, time.March, 1))
	p3 := testPayment(item, 3, nil, decPtr(700), models.NewDate(2024, time.April, 1))

	forward, err := ComputeCurrentStatus(item, []*models.Payment{p1, p2, p3})
	if err != nil {
		t.Fatalf("ComputeCurrentStatus failed: %v", err)
	}
	reversed, err := ComputeCurrentStatus(item, []*models.Payment{p3, p2, p1})
	if err != nil {
		t.Fatalf("ComputeCurrentStatus failed: %v", err)
	}

	if !forward.RemainingAmount.Equal(reversed.RemainingAmount) {
		t.Errorf("Remaining differs by order: %s vs %s", forward.RemainingAmount, reversed.RemainingAmount)
	}
	if !forward.TotalPaid.Equal(reversed.TotalPaid) {
		t.Errorf("TotalPaid differs by order: %s vs %s", forward.TotalPaid, reversed.TotalPaid)
	}
	if !forward.InterestPaidTill.Equal(reversed.InterestPaidTill.Time) {
		t.Errorf("InterestPaidTill differs by order: %s vs %s", forward.InterestPaidTill, reversed.InterestPaidTill)
	}
	if forward.InterestPaidTill.String() != "2024-04-01" {
		t.Errorf("Expected interestPaidTill 2024-04-01, got %s", forward.InterestPaidTill)
	}
}

func TestComputeCurrentStatusDoesNotMutateInput(t *testing.T) {
	item := testItem(50000)
	p1 := testPayment(item, 1, decPtr(5000), nil, models.NewDate(2024, time.March, 1))
	p2 := testPayment(item, 2, decPtr(5000), nil, models.NewDate(2024, time.February, 1))
	payments := []*models.Payment{p1, p2}

	first, err := ComputeCurrentStatus(item, payments)
	if err != nil {
		t.Fatalf("ComputeCurrentStatus failed: %v", err)
	}
	second, err := ComputeCurrentStatus(item, payments)
	if err != nil {
		t.Fatalf("ComputeCurrentStatus failed: %v", err)
	}

	if payments[0] != p1 || payments[1] != p2 {
		t.Error("Input slice was reordered")
	}
	if !first.RemainingAmount.Equal(second.RemainingAmount) || !first.TotalPaid.Equal(second.TotalPaid) {
		t.Error("Repeated computation gave different results")
	}
}

func TestComputeCurrentStatusOverpayment(t *testing.T) {
	item := testItem(10000)
	payments := []*models.Payment{
		testPayment(item, 1, decPtr(10001), nil, models.NewDate(2024, time.February, 1)),
	}

	_, err := ComputeCurrentStatus(item, payments)
	if !errors.Is(err, ErrOverpayment) {
		t.Errorf("Expected ErrOverpayment, got %v", err)
	}
}

func TestComputeSummary(t *testing.T) {
	item := testItem(50000)
	payments := []*models.Payment{
		testPayment(item, 1, decPtr(10000), decPtr(1000), models.NewDate(2024, time.February, 1)),
		testPayment(item, 2, nil, decPtr(800), models.NewDate(2024, time.March, 1)),
	}

	summary := ComputeSummary(payments)
	if !summary.TotalAmountPaid.Equal(dec(11800)) {
		t.Errorf("Expected totalAmountPaid 11800, got %s", summary.TotalAmountPaid)
	}
	if !summary.TotalInterestPaid.Equal(dec(1800)) {
		t.Errorf("Expected totalInterestPaid 1800, got %s", summary.TotalInterestPaid)
	}
	if !summary.TotalPrincipalPaid.Equal(dec(10000)) {
		t.Errorf("Expected totalPrincipalPaid 10000, got %s", summary.TotalPrincipalPaid)
	}
}

func TestRecordPayment(t *testing.T) {
	item := testItem(50000)

	payment, updated, status, err := RecordPayment(item, nil, PaymentInput{
		PrincipalAmount: decPtr(10000),
		InterestAmount:  decPtr(1000),
		PaymentDate:     models.NewDate(2024, time.February, 1),
	})
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	if !payment.Amount.Equal(dec(11000)) {
		t.Errorf("Expected derived amount 11000, got %s", payment.Amount)
	}
	if payment.PaymentType != models.PaymentTypeBoth {
		t.Errorf("Expected type both, got %s", payment.PaymentType)
	}
	if payment.Seq != 1 {
		t.Errorf("Expected seq 1, got %d", payment.Seq)
	}
	if len(updated) != 1 {
		t.Errorf("Expected 1 payment in history, got %d", len(updated))
	}
	if !status.RemainingAmount.Equal(dec(40000)) {
		t.Errorf("Expected remaining 40000, got %s", status.RemainingAmount)
	}
}

func TestRecordPaymentDerivesType(t *testing.T) {
	item := testItem(50000)
	date := models.NewDate(2024, time.February, 1)

	p, _, _, err := RecordPayment(item, nil, PaymentInput{PrincipalAmount: decPtr(500), PaymentDate: date})
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if p.PaymentType != models.PaymentTypePrincipal {
		t.Errorf("Expected type principal, got %s", p.PaymentType)
	}

	p, _, _, err = RecordPayment(item, nil, PaymentInput{InterestAmount: decPtr(500), PaymentDate: date})
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if p.PaymentType != models.PaymentTypeInterest {
		t.Errorf("Expected type interest, got %s", p.PaymentType)
	}
}

func TestRecordPaymentSeqIncrements(t *testing.T) {
	item := testItem(50000)
	history := []*models.Payment{
		testPayment(item, 4, decPtr(1000), nil, models.NewDate(2024, time.February, 1)),
	}

	p, _, _, err := RecordPayment(item, history, PaymentInput{
		InterestAmount: decPtr(200),
		PaymentDate:    models.NewDate(2024, time.February, 1),
	})
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if p.Seq != 5 {
		t.Errorf("Expected seq 5, got %d", p.Seq)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	item := testItem(10000)
	date := models.NewDate(2024, time.February, 1)

	cases := []struct {
		name string
		in   PaymentInput
		want error
	}{
		{"empty", PaymentInput{PaymentDate: date}, ErrEmptyPayment},
		{"zero allocations", PaymentInput{PrincipalAmount: decPtr(0), InterestAmount: decPtr(0), PaymentDate: date}, ErrEmptyPayment},
		{"negative principal", PaymentInput{PrincipalAmount: decPtr(-5), PaymentDate: date}, ErrNegativeAmount},
		{"before pledge", PaymentInput{PrincipalAmount: decPtr(100), PaymentDate: models.NewDate(2023, time.December, 31)}, ErrInvalidPaymentDate},
		{"missing date", PaymentInput{PrincipalAmount: decPtr(100)}, ErrInvalidPaymentDate},
		{"amount mismatch", PaymentInput{Amount: dec(150), PrincipalAmount: decPtr(100), PaymentDate: date}, ErrAmountMismatch},
		{"overpayment", PaymentInput{PrincipalAmount: decPtr(10001), PaymentDate: date}, ErrOverpayment},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, updated, _, err := RecordPayment(item, nil, tc.in)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if len(updated) != 0 {
				t.Errorf("History should be unchanged on failure, got %d payments", len(updated))
			}
		})
	}
}
