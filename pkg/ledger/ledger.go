// Package ledger holds the bookkeeping core: the payment reconciliation
// functions in reconcile.go and the storage-backed service that the API
// layer drives.
package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/interest"
	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks rejected customer/item fields.
var ErrInvalidInput = errors.New("invalid input")

var (
	aadharPattern = regexp.MustCompile(`^\d{12}$`)
	mobilePattern = regexp.MustCompile(`^\d{1,10}$`)

	maxPercentage = decimal.NewFromInt(100)
)

// Ledger handles the business logic for customers, items and payments.
type Ledger struct {
	storage store.Storage
	log     zerolog.Logger
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{
		storage: s,
		log:     log.With().Str("component", "ledger").Logger(),
	}
}

// CustomerInput carries the editable fields of a customer.
type CustomerInput struct {
	Name         string          `json:"name"`
	GuardianName string          `json:"guardianName"`
	Relation     models.Relation `json:"relation"`
	Address      string          `json:"address"`
	AadharNumber string          `json:"aadharNumber"`
	MobileNumber string          `json:"mobileNumber"`
}

func (in CustomerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.GuardianName) == "" {
		return fmt.Errorf("%w: guardianName is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if !in.Relation.Valid() {
		return fmt.Errorf("%w: relation %q is not recognized", ErrInvalidInput, in.Relation)
	}
	if in.AadharNumber != "" && !aadharPattern.MatchString(in.AadharNumber) {
		return fmt.Errorf("%w: aadharNumber must be 12 digits", ErrInvalidInput)
	}
	if in.MobileNumber != "" && !mobilePattern.MatchString(in.MobileNumber) {
		return fmt.Errorf("%w: mobileNumber must be up to 10 digits", ErrInvalidInput)
	}
	return nil
}

// CreateCustomer registers a new customer.
func (l *Ledger) CreateCustomer(in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	customer := &models.Customer{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		GuardianName: strings.TrimSpace(in.GuardianName),
		Relation:     in.Relation,
		Address:      strings.TrimSpace(in.Address),
		AadharNumber: in.AadharNumber,
		MobileNumber: in.MobileNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.storage.CreateCustomer(customer); err != nil {
		return nil, fmt.Errorf("failed to store customer: %w", err)
	}
	l.log.Info().Str("customer_id", customer.ID.String()).Msg("customer created")
	return customer, nil
}

// GetCustomer retrieves a customer by its ID.
func (l *Ledger) GetCustomer(id uuid.UUID) (*models.Customer, error) {
	return l.storage.GetCustomer(id)
}

// ListCustomers returns a filtered page of customers and the total count.
func (l *Ledger) ListCustomers(f store.CustomerFilter) ([]*models.Customer, int, error) {
	return l.storage.ListCustomers(f)
}

// UpdateCustomer replaces the editable fields of an existing customer.
func (l *Ledger) UpdateCustomer(id uuid.UUID, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	customer, err := l.storage.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	customer.Name = strings.TrimSpace(in.Name)
	customer.GuardianName = strings.TrimSpace(in.GuardianName)
	customer.Relation = in.Relation
	customer.Address = strings.TrimSpace(in.Address)
	customer.AadharNumber = in.AadharNumber
	customer.MobileNumber = in.MobileNumber
	customer.UpdatedAt = time.Now()
	if err := l.storage.UpdateCustomer(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes a customer and everything pledged under it.
func (l *Ledger) DeleteCustomer(id uuid.UUID) error {
	return l.storage.DeleteCustomer(id)
}

// ItemInput carries the fields submitted when pledging an item. Amount,
// Percentage and PledgedAt are loan terms and only honored at creation.
type ItemInput struct {
	CustomerID  uuid.UUID       `json:"customerId"`
	OrderID     string          `json:"orderId"`
	Name        string          `json:"name"`
	Category    models.Category `json:"category"`
	ItemWeight  string          `json:"itemWeight"`
	Description string          `json:"description"`
	ImagePath   string          `json:"imagePath"`
	Amount      decimal.Decimal `json:"amount"`
	Percentage  decimal.Decimal `json:"percentage"`
	PledgedAt   models.Date     `json:"pledgedAt"`
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: category must be gold or silver", ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if in.Percentage.IsNegative() || in.Percentage.GreaterThan(maxPercentage) {
		return fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidInput)
	}
	return nil
}

// CreateItem pledges a new item for a customer. A blank order id gets an
// auto-generated one; a zero pledge date defaults to today.
func (l *Ledger) CreateItem(in ItemInput) (*models.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := l.storage.GetCustomer(in.CustomerID); err != nil {
		return nil, err
	}

	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		orderID = "ORD-" + strings.ToUpper(uuid.New().String()[:8])
	}
	pledgedAt := in.PledgedAt
	if pledgedAt.IsZero() {
		pledgedAt = models.Today()
	}

	now := time.Now()
	item := &models.Item{
		ID:          uuid.New(),
		CustomerID:  in.CustomerID,
		OrderID:     orderID,
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		ItemWeight:  in.ItemWeight,
		Description: in.Description,
		ImagePath:   in.ImagePath,
		Amount:      in.Amount,
		Percentage:  in.Percentage,
		PledgedAt:   pledgedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.storage.CreateItem(item); err != nil {
		return nil, fmt.Errorf("failed to store item: %w", err)
	}
	l.log.Info().
		Str("item_id", item.ID.String()).
		Str("customer_id", item.CustomerID.String()).
		Str("amount", item.Amount.StringFixed(2)).
		Msg("item pledged")
	return item, nil
}

// GetItem retrieves an item by its ID.
func (l *Ledger) GetItem(id uuid.UUID) (*models.Item, error) {
	return l.storage.GetItem(id)
}

// ListItems returns a filtered page of items and the total count.
func (l *Ledger) ListItems(f store.ItemFilter) ([]*models.Item, int, error) {
	return l.storage.ListItems(f)
}

// UpdateItem replaces an item's catalog fields. Loan terms are immutable;
// submitted amount/percentage/pledge date are ignored.
func (l *Ledger) UpdateItem(id uuid.UUID, in ItemInput) (*models.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: category must be gold or silver", ErrInvalidInput)
	}
	item, err := l.storage.GetItem(id)
	if err != nil {
		return nil, err
	}
	if in.OrderID != "" {
		item.OrderID = in.OrderID
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Category = in.Category
	item.ItemWeight = in.ItemWeight
	item.Description = in.Description
	item.ImagePath = in.ImagePath
	item.UpdatedAt = time.Now()
	if err := l.storage.UpdateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item and its payment history.
func (l *Ledger) DeleteItem(id uuid.UUID) error {
	return l.storage.DeleteItem(id)
}

// AddPayment records a payment against an item and returns the stored
// payment with the freshly derived status. Validation failures leave the
// ledger untouched.
func (l *Ledger) AddPayment(itemID uuid.UUID, in PaymentInput) (*models.Payment, models.CurrentStatus, error) {
	var zero models.CurrentStatus

	item, err := l.storage.GetItem(itemID)
	if err != nil {
		return nil, zero, err
	}
	history, err := l.storage.GetPaymentsForItem(itemID)
	if err != nil {
		return nil, zero, err
	}

	payment, _, status, err := RecordPayment(item, history, in)
	if err != nil {
		return nil, zero, err
	}
	if err := l.storage.CreatePayment(payment); err != nil {
		return nil, zero, fmt.Errorf("failed to store payment: %w", err)
	}

	l.log.Info().
		Str("item_id", itemID.String()).
		Str("payment_id", payment.ID.String()).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("type", string(payment.PaymentType)).
		Msg("payment recorded")
	return payment, status, nil
}

// PaymentDetails assembles the current status, summary and ordered history
// for one item.
func (l *Ledger) PaymentDetails(itemID uuid.UUID) (*models.ItemPaymentDetails, error) {
	item, err := l.storage.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetPaymentsForItem(itemID)
	if err != nil {
		return nil, err
	}
	status, err := ComputeCurrentStatus(item, payments)
	if err != nil {
		return nil, err
	}
	return &models.ItemPaymentDetails{
		ItemID:        itemID,
		CurrentStatus: status,
		Summary:       ComputeSummary(payments),
		Payments:      payments,
	}, nil
}

// DeletePayment removes a single payment from an item's history.
func (l *Ledger) DeletePayment(id uuid.UUID) error {
	if err := l.storage.DeletePayment(id); err != nil {
		return err
	}
	l.log.Info().Str("payment_id", id.String()).Msg("payment deleted")
	return nil
}

// PaymentHistory returns a filtered page of payments and the total count.
func (l *Ledger) PaymentHistory(f store.PaymentFilter) ([]*models.Payment, int, error) {
	return l.storage.ListPayments(f)
}

// InterestDue computes the interest owed on an item as of the given date:
// the remaining principal accrues from the interest-paid-through date to
// asOf at the item's monthly rate.
func (l *Ledger) InterestDue(itemID uuid.UUID, asOf models.Date) (models.Calculation, error) {
	item, err := l.storage.GetItem(itemID)
	if err != nil {
		return models.Calculation{}, err
	}
	payments, err := l.storage.GetPaymentsForItem(itemID)
	if err != nil {
		return models.Calculation{}, err
	}
	status, err := ComputeCurrentStatus(item, payments)
	if err != nil {
		return models.Calculation{}, err
	}
	return interest.Calculate(status.RemainingAmount, status.MonthlyInterestRate, status.InterestPaidTill, asOf)
}

// Dashboard folds every item and payment into the aggregate figures. Sums
// are done here in decimal rather than in SQL so TEXT-stored amounts never
// pass through floats.
func (l *Ledger) Dashboard() (*models.DashboardStats, error) {
	customers, err := l.storage.CountCustomers()
	if err != nil {
		return nil, err
	}
	items, err := l.storage.GetAllItems()
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalCustomers:       customers,
		TotalItems:           len(items),
		TotalAmount:          decimal.Zero,
		TotalPaidAmount:      decimal.Zero,
		TotalRemainingAmount: decimal.Zero,
		TotalInterest:        decimal.Zero,
		AverageInterestRate:  decimal.Zero,
	}

	rateSum := decimal.Zero
	for _, item := range items {
		stats.TotalAmount = stats.TotalAmount.Add(item.Amount)
		rateSum = rateSum.Add(item.Percentage)
	}
	if len(items) > 0 {
		stats.AverageInterestRate = rateSum.Div(decimal.NewFromInt(int64(len(items)))).Round(2)
	}

	principalPaid := decimal.Zero
	for _, p := range payments {
		stats.TotalPaidAmount = stats.TotalPaidAmount.Add(p.Amount)
		stats.TotalInterest = stats.TotalInterest.Add(p.Interest())
		principalPaid = principalPaid.Add(p.Principal())
	}
	stats.TotalRemainingAmount = stats.TotalAmount.Sub(principalPaid)

	return stats, nil
}
