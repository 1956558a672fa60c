package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// We use TEXT for decimal fields in SQLite to ensure no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		guardian_name TEXT NOT NULL,
		relation TEXT NOT NULL,
		address TEXT NOT NULL,
		aadhar_number TEXT NOT NULL DEFAULT '',
		mobile_number TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		item_weight TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		percentage TEXT NOT NULL,
		pledged_at TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(customer_id) REFERENCES customers(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		principal_amount TEXT,
		interest_amount TEXT,
		payment_date TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		seq INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(item_id) REFERENCES items(id)
	);
	CREATE INDEX IF NOT EXISTS idx_items_customer ON items(customer_id);
	CREATE INDEX IF NOT EXISTS idx_payments_item ON payments(item_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// nullDecimal converts an optional decimal for storage.
func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// orderClause builds an ORDER BY from a whitelisted sort column.
func orderClause(sortBy, sortOrder, fallback string, allowed map[string]string) string {
	col, ok := allowed[sortBy]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir)
}

// limitOffset normalizes pagination inputs into a LIMIT/OFFSET pair.
func limitOffset(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// CreateCustomer inserts a new customer into the database.
func (s *SQLiteStore) CreateCustomer(c *models.Customer) error {
	_, err := s.db.Exec(
		`INSERT INTO customers (id, name, guardian_name, relation, address, aadhar_number, mobile_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.GuardianName, string(c.Relation), c.Address, c.AadharNumber, c.MobileNumber, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetCustomer retrieves a customer by its ID.
func (s *SQLiteStore) GetCustomer(id uuid.UUID) (*models.Customer, error) {
	row := s.db.QueryRow(
		`SELECT id, name, guardian_name, relation, address, aadhar_number, mobile_number, created_at, updated_at
		FROM customers WHERE id = ?`, id.String())
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// UpdateCustomer updates an existing customer in the database.
func (s *SQLiteStore) UpdateCustomer(c *models.Customer) error {
	result, err := s.db.Exec(
		`UPDATE customers SET name = ?, guardian_name = ?, relation = ?, address = ?, aadhar_number = ?, mobile_number = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.GuardianName, string(c.Relation), c.Address, c.AadharNumber, c.MobileNumber, c.UpdatedAt, c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return checkAffected(result, "customer")
}

// DeleteCustomer removes a customer together with its items and their
// payments inside a single transaction.
func (s *SQLiteStore) DeleteCustomer(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM payments WHERE item_id IN (SELECT id FROM items WHERE customer_id = ?)`, id.String()); err != nil {
		return fmt.Errorf("failed to delete customer payments: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items WHERE customer_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete customer items: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM customers WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if err := checkAffected(result, "customer"); err != nil {
		return err
	}
	return tx.Commit()
}

// ListCustomers returns a filtered, paginated page of customers plus the
// total match count.
func (s *SQLiteStore) ListCustomers(f CustomerFilter) ([]*models.Customer, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Name != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.GuardianName != "" {
		where = append(where, "guardian_name LIKE ?")
		args = append(args, "%"+f.GuardianName+"%")
	}
	if f.Address != "" {
		where = append(where, "address LIKE ?")
		args = append(args, "%"+f.Address+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM customers WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	order := orderClause(f.SortBy, f.SortOrder, "created_at", map[string]string{
		"name":       "name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	})
	limit, offset := limitOffset(f.Page, f.Limit)

	rows, err := s.db.Query(
		`SELECT id, name, guardian_name, relation, address, aadhar_number, mobile_number, created_at, updated_at
		FROM customers WHERE `+cond+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during rows iteration: %w", err)
	}
	return customers, total, nil
}

// CountCustomers returns the total number of customers.
func (s *SQLiteStore) CountCustomers() (int, error) {
	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return total, nil
}

// CreateItem inserts a new item into the database.
func (s *SQLiteStore) CreateItem(item *models.Item) error {
	_, err := s.db.Exec(
		`INSERT INTO items (id, customer_id, order_id, name, category, item_weight, description, image_path, amount, percentage, pledged_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.CustomerID.String(), item.OrderID, item.Name, string(item.Category), item.ItemWeight,
		item.Description, item.ImagePath, item.Amount, item.Percentage, item.PledgedAt, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by its ID.
func (s *SQLiteStore) GetItem(id uuid.UUID) (*models.Item, error) {
	row := s.db.QueryRow(itemSelect+` WHERE id = ?`, id.String())
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// UpdateItem updates an item's catalog fields. The loan terms (amount,
// percentage, pledged_at) are immutable and deliberately not part of the
// statement.
func (s *SQLiteStore) UpdateItem(item *models.Item) error {
	result, err := s.db.Exec(
		`UPDATE items SET order_id = ?, name = ?, category = ?, item_weight = ?, description = ?, image_path = ?, updated_at = ?
		WHERE id = ?`,
		item.OrderID, item.Name, string(item.Category), item.ItemWeight, item.Description, item.ImagePath, item.UpdatedAt, item.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return checkAffected(result, "item")
}

// DeleteItem removes an item and its payments within a transaction.
func (s *SQLiteStore) DeleteItem(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM payments WHERE item_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete associated payments: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if err := checkAffected(result, "item"); err != nil {
		return err
	}
	return tx.Commit()
}

// ListItems returns a filtered, paginated page of items plus the total match
// count.
func (s *SQLiteStore) ListItems(f ItemFilter) ([]*models.Item, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.CustomerID != uuid.Nil {
		where = append(where, "customer_id = ?")
		args = append(args, f.CustomerID.String())
	}
	if f.Name != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	order := orderClause(f.SortBy, f.SortOrder, "created_at", map[string]string{
		"name":       "name",
		"amount":     "CAST(amount AS REAL)",
		"pledged_at": "pledged_at",
		"created_at": "created_at",
	})
	limit, offset := limitOffset(f.Page, f.Limit)

	rows, err := s.db.Query(itemSelect+` WHERE `+cond+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetAllItems retrieves every item; used for dashboard aggregation.
func (s *SQLiteStore) GetAllItems() ([]*models.Item, error) {
	rows, err := s.db.Query(itemSelect)
	if err != nil {
		return nil, fmt.Errorf("failed to get all items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// CreatePayment inserts a new payment into the database.
func (s *SQLiteStore) CreatePayment(p *models.Payment) error {
	_, err := s.db.Exec(
		`INSERT INTO payments (id, item_id, amount, principal_amount, interest_amount, payment_date, payment_type, notes, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.ItemID.String(), p.Amount, nullDecimal(p.PrincipalAmount), nullDecimal(p.InterestAmount),
		p.PaymentDate, string(p.PaymentType), p.Notes, p.Seq, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by its ID.
func (s *SQLiteStore) GetPayment(id uuid.UUID) (*models.Payment, error) {
	row := s.db.QueryRow(paymentSelect+` WHERE p.id = ?`, id.String())
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// DeletePayment removes a single payment.
func (s *SQLiteStore) DeletePayment(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM payments WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return checkAffected(result, "payment")
}

// GetPaymentsForItem retrieves all payments for a given item ordered by
// payment date, then by the per-item sequence number.
func (s *SQLiteStore) GetPaymentsForItem(itemID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.db.Query(paymentSelect+` WHERE p.item_id = ? ORDER BY p.payment_date ASC, p.seq ASC`, itemID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for item %s: %w", itemID, err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

// ListPayments returns a filtered, paginated payment history plus the total
// match count. Filtering by customer joins through items.
func (s *SQLiteStore) ListPayments(f PaymentFilter) ([]*models.Payment, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.ItemID != uuid.Nil {
		where = append(where, "p.item_id = ?")
		args = append(args, f.ItemID.String())
	}
	if f.CustomerID != uuid.Nil {
		where = append(where, "i.customer_id = ?")
		args = append(args, f.CustomerID.String())
	}
	if !f.StartDate.IsZero() {
		where = append(where, "p.payment_date >= ?")
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		where = append(where, "p.payment_date <= ?")
		args = append(args, f.EndDate.String())
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM payments p JOIN items i ON p.item_id = i.id WHERE "+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	order := orderClause(f.SortBy, f.SortOrder, "p.payment_date", map[string]string{
		"payment_date": "p.payment_date",
		"amount":       "CAST(p.amount AS REAL)",
		"created_at":   "p.created_at",
	})
	limit, offset := limitOffset(f.Page, f.Limit)

	rows, err := s.db.Query(paymentSelect+` WHERE `+cond+order+`, p.seq ASC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// GetAllPayments retrieves every payment; used for dashboard aggregation.
func (s *SQLiteStore) GetAllPayments() ([]*models.Payment, error) {
	rows, err := s.db.Query(paymentSelect)
	if err != nil {
		return nil, fmt.Errorf("failed to get all payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const itemSelect = `SELECT id, customer_id, order_id, name, category, item_weight, description, image_path, amount, percentage, pledged_at, created_at, updated_at FROM items`

const paymentSelect = `SELECT p.id, p.item_id, p.amount, p.principal_amount, p.interest_amount, p.payment_date, p.payment_type, p.notes, p.seq, p.created_at FROM payments p JOIN items i ON p.item_id = i.id`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(sc scanner) (*models.Customer, error) {
	var c models.Customer
	var idStr, relation string
	var created, updated time.Time
	if err := sc.Scan(&idStr, &c.Name, &c.GuardianName, &relation, &c.Address, &c.AadharNumber, &c.MobileNumber, &created, &updated); err != nil {
		return nil, err
	}
	c.ID = uuid.MustParse(idStr)
	c.Relation = models.Relation(relation)
	c.CreatedAt = created
	c.UpdatedAt = updated
	return &c, nil
}

func scanItem(sc scanner) (*models.Item, error) {
	var item models.Item
	var idStr, customerIDStr, category string
	var created, updated time.Time
	if err := sc.Scan(&idStr, &customerIDStr, &item.OrderID, &item.Name, &category, &item.ItemWeight, &item.Description,
		&item.ImagePath, &item.Amount, &item.Percentage, &item.PledgedAt, &created, &updated); err != nil {
		return nil, err
	}
	item.ID = uuid.MustParse(idStr)
	item.CustomerID = uuid.MustParse(customerIDStr)
	item.Category = models.Category(category)
	item.CreatedAt = created
	item.UpdatedAt = updated
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*models.Item, error) {
	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return items, nil
}

func scanPayment(sc scanner) (*models.Payment, error) {
	var p models.Payment
	var idStr, itemIDStr, paymentType string
	var principal, interest decimal.NullDecimal
	var created time.Time
	if err := sc.Scan(&idStr, &itemIDStr, &p.Amount, &principal, &interest, &p.PaymentDate, &paymentType, &p.Notes, &p.Seq, &created); err != nil {
		return nil, err
	}
	p.ID = uuid.MustParse(idStr)
	p.ItemID = uuid.MustParse(itemIDStr)
	p.PaymentType = models.PaymentType(paymentType)
	p.CreatedAt = created
	if principal.Valid {
		v := principal.Decimal
		p.PrincipalAmount = &v
	}
	if interest.Valid {
		v := interest.Decimal
		p.InterestAmount = &v
	}
	return &p, nil
}

func scanPayments(rows *sql.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return payments, nil
}

func checkAffected(result sql.Result, kind string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	return nil
}
