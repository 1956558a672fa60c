package store

import (
	"errors"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CustomerFilter narrows and pages a customer listing. Zero-value fields are
// ignored.
type CustomerFilter struct {
	Name         string
	GuardianName string
	Address      string
	Page         int
	Limit        int
	SortBy       string // name, created_at, updated_at
	SortOrder    string // asc or desc
}

// ItemFilter narrows and pages an item listing.
type ItemFilter struct {
	CustomerID uuid.UUID
	Name       string
	Category   models.Category
	Page       int
	Limit      int
	SortBy     string // name, amount, pledged_at, created_at
	SortOrder  string
}

// PaymentFilter narrows and pages a payment history listing.
type PaymentFilter struct {
	ItemID     uuid.UUID
	CustomerID uuid.UUID
	StartDate  models.Date
	EndDate    models.Date
	Page       int
	Limit      int
	SortBy     string // payment_date, amount, created_at
	SortOrder  string
}

// Storage defines the database operations for customers, items and payments.
type Storage interface {
	CreateCustomer(c *models.Customer) error
	GetCustomer(id uuid.UUID) (*models.Customer, error)
	UpdateCustomer(c *models.Customer) error
	DeleteCustomer(id uuid.UUID) error
	ListCustomers(f CustomerFilter) ([]*models.Customer, int, error)
	CountCustomers() (int, error)

	CreateItem(item *models.Item) error
	GetItem(id uuid.UUID) (*models.Item, error)
	UpdateItem(item *models.Item) error
	DeleteItem(id uuid.UUID) error
	ListItems(f ItemFilter) ([]*models.Item, int, error)
	GetAllItems() ([]*models.Item, error)

	CreatePayment(p *models.Payment) error
	GetPayment(id uuid.UUID) (*models.Payment, error)
	DeletePayment(id uuid.UUID) error
	// GetPaymentsForItem returns the full history for one item ordered by
	// (payment_date, seq) ascending.
	GetPaymentsForItem(itemID uuid.UUID) ([]*models.Payment, error)
	ListPayments(f PaymentFilter) ([]*models.Payment, int, error)
	GetAllPayments() ([]*models.Payment, error)

	Close() error
}
