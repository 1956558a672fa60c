package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Relation classifies a customer's guardian relationship.
type Relation string

const (
	RelationFather   Relation = "father"
	RelationMother   Relation = "mother"
	RelationWife     Relation = "wife"
	RelationHusband  Relation = "husband"
	RelationSon      Relation = "son"
	RelationDaughter Relation = "daughter"
	RelationOther    Relation = "other"
)

// Valid reports whether r is one of the known relations.
func (r Relation) Valid() bool {
	switch r {
	case RelationFather, RelationMother, RelationWife, RelationHusband,
		RelationSon, RelationDaughter, RelationOther:
		return true
	}
	return false
}

type Customer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	GuardianName string    `json:"guardianName"`
	Relation     Relation  `json:"relation"`
	Address      string    `json:"address"`
	AadharNumber string    `json:"aadharNumber,omitempty"` // 12 digits when set
	MobileNumber string    `json:"mobileNumber,omitempty"` // up to 10 digits
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Category of a pledged item.
type Category string

const (
	CategoryGold   Category = "gold"
	CategorySilver Category = "silver"
)

func (c Category) Valid() bool {
	return c == CategoryGold || c == CategorySilver
}

// Item is a pledged item together with its loan terms. Amount (the
// principal), Percentage (monthly interest rate) and PledgedAt (origination
// date) are fixed once the item is created; updates touch catalog fields
// only.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customerId"`
	OrderID     string          `json:"orderId"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	ItemWeight  string          `json:"itemWeight"`
	Description string          `json:"description,omitempty"`
	ImagePath   string          `json:"imagePath,omitempty"`
	Amount      decimal.Decimal `json:"amount"`     // principal lent against the item
	Percentage  decimal.Decimal `json:"percentage"` // interest rate in % per 30-day month
	PledgedAt   Date            `json:"pledgedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PaymentType classifies what a payment was allocated to.
type PaymentType string

const (
	PaymentTypeInterest  PaymentType = "interest"
	PaymentTypePrincipal PaymentType = "principal"
	PaymentTypeBoth      PaymentType = "both"
)

// Payment is one recorded transaction against an item. Payments are
// append-only: never mutated after creation, removed only by explicit
// deletion. Seq is a per-item monotonic sequence used to break same-day
// ordering ties deterministically.
type Payment struct {
	ID              uuid.UUID        `json:"id"`
	ItemID          uuid.UUID        `json:"itemId"`
	Amount          decimal.Decimal  `json:"amount"`
	PrincipalAmount *decimal.Decimal `json:"principalAmount,omitempty"`
	InterestAmount  *decimal.Decimal `json:"interestAmount,omitempty"`
	PaymentDate     Date             `json:"paymentDate"`
	PaymentType     PaymentType      `json:"paymentType"`
	Notes           string           `json:"notes,omitempty"`
	Seq             int64            `json:"seq"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Principal returns the principal allocation, zero when absent.
func (p *Payment) Principal() decimal.Decimal {
	if p.PrincipalAmount == nil {
		return decimal.Zero
	}
	return *p.PrincipalAmount
}

// Interest returns the interest allocation, zero when absent.
func (p *Payment) Interest() decimal.Decimal {
	if p.InterestAmount == nil {
		return decimal.Zero
	}
	return *p.InterestAmount
}

// CurrentStatus is the derived view of an item's outstanding balance. It is
// recomputed from the item terms plus the full payment history and never
// stored.
type CurrentStatus struct {
	OriginalAmount      decimal.Decimal `json:"originalAmount"`
	RemainingAmount     decimal.Decimal `json:"remainingAmount"`
	TotalPaid           decimal.Decimal `json:"totalPaid"`
	InterestPaidTill    Date            `json:"interestPaidTill"`
	MonthlyInterestRate decimal.Decimal `json:"monthlyInterestRate"`
}

// PaymentSummary aggregates paid totals across a payment history.
type PaymentSummary struct {
	TotalAmountPaid    decimal.Decimal `json:"totalAmountPaid"`
	TotalInterestPaid  decimal.Decimal `json:"totalInterestPaid"`
	TotalPrincipalPaid decimal.Decimal `json:"totalPrincipalPaid"`
}

// Calculation is the result of a simple-interest computation.
type Calculation struct {
	Amount         decimal.Decimal `json:"amount"`
	MonthlyRate    decimal.Decimal `json:"monthlyRate"`
	StartDate      Date            `json:"startDate"`
	EndDate        Date            `json:"endDate"`
	DaysCalculated int             `json:"daysCalculated"`
	Interest       decimal.Decimal `json:"interest"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// ItemPaymentDetails bundles everything the payment screen needs for one
// item.
type ItemPaymentDetails struct {
	ItemID        uuid.UUID      `json:"itemId"`
	CurrentStatus CurrentStatus  `json:"currentStatus"`
	Summary       PaymentSummary `json:"summary"`
	Payments      []*Payment     `json:"payments"`
}

// DashboardStats are the aggregate figures shown on the dashboard.
type DashboardStats struct {
	TotalCustomers       int             `json:"totalCustomers"`
	TotalItems           int             `json:"totalItems"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	TotalPaidAmount      decimal.Decimal `json:"totalPaidAmount"`
	TotalRemainingAmount decimal.Decimal `json:"totalRemainingAmount"`
	TotalInterest        decimal.Decimal `json:"totalInterest"`
	AverageInterestRate  decimal.Decimal `json:"averageInterestRate"`
}
