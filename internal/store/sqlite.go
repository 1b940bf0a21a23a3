package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite is a SQLite-backed store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		contact_email TEXT NOT NULL DEFAULT '',
		payment_terms_days INTEGER NOT NULL DEFAULT 30
	);
	CREATE INDEX IF NOT EXISTS idx_suppliers_tenant ON suppliers(tenant_id, name);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		supplier_id TEXT NOT NULL DEFAULT '',
		number TEXT NOT NULL DEFAULT '',
		issue_date TEXT NOT NULL,
		due_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		total REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_tenant ON invoices(tenant_id, issue_date);
	CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(tenant_id, status, due_date);

	CREATE TABLE IF NOT EXISTS invoice_line_items (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL,
		description TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		quantity REAL NOT NULL DEFAULT 0,
		unit_price REAL NOT NULL DEFAULT 0,
		total REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON invoice_line_items(invoice_id);

	CREATE TABLE IF NOT EXISTS revenue_entries (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		date TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'dine_in',
		gross REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_revenue_tenant ON revenue_entries(tenant_id, date);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_expenses_tenant ON expenses(tenant_id, date);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		sale_price REAL NOT NULL DEFAULT 0,
		unit_cost REAL NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_products_tenant ON products(tenant_id, name);

	CREATE TABLE IF NOT EXISTS ingredients (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		supplier_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		cost_per_unit REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_ingredients_tenant ON ingredients(tenant_id, name);

	CREATE TABLE IF NOT EXISTS fixed_costs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		monthly_amount REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_fixed_costs_tenant ON fixed_costs(tenant_id);

	CREATE TABLE IF NOT EXISTS scheduled_payments (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		invoice_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		amount REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_payments_tenant ON scheduled_payments(tenant_id, due_date);

	CREATE TABLE IF NOT EXISTS alert_rules (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		metric TEXT NOT NULL,
		threshold REAL NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alert_rules_tenant ON alert_rules(tenant_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ListInvoices returns invoices for the tenant, newest issue date first by
// default, narrowed by the filter.
func (s *SQLite) ListInvoices(ctx context.Context, tenantID string, f InvoiceFilter) ([]Invoice, error) {
	query := `SELECT i.id, i.tenant_id, i.supplier_id, COALESCE(sup.name, ''), i.number, i.issue_date, i.due_date, i.status, i.total
		FROM invoices i
		LEFT JOIN suppliers sup ON sup.id = i.supplier_id AND sup.tenant_id = i.tenant_id
		WHERE i.tenant_id = ?`
	args := []interface{}{tenantID}

	if f.Status != "" {
		query += " AND i.status = ?"
		args = append(args, f.Status)
	}
	if f.SupplierLike != "" {
		query += " AND sup.name LIKE ?"
		args = append(args, "%"+f.SupplierLike+"%")
	}
	if f.FromDate != "" {
		query += " AND i.issue_date >= ?"
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		query += " AND i.issue_date <= ?"
		args = append(args, f.ToDate)
	}
	if f.DueBefore != "" {
		query += " AND i.due_date != '' AND i.due_date < ?"
		args = append(args, f.DueBefore)
	}
	if f.MinTotal > 0 {
		query += " AND i.total >= ?"
		args = append(args, f.MinTotal)
	}

	query += " ORDER BY " + invoiceSortColumn(f.SortBy) + " " + sortDirection(f.SortDir)
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.TenantID, &inv.SupplierID, &inv.SupplierName, &inv.Number, &inv.IssueDate, &inv.DueDate, &inv.Status, &inv.Total); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// InvoiceLineItems returns the line items of one invoice, tenant-checked
// through the owning invoice.
func (s *SQLite) InvoiceLineItems(ctx context.Context, tenantID, invoiceID string) ([]LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT li.id, li.invoice_id, li.description, li.unit, li.quantity, li.unit_price, li.total
		FROM invoice_line_items li
		JOIN invoices i ON i.id = li.invoice_id
		WHERE i.tenant_id = ? AND li.invoice_id = ?
		ORDER BY li.rowid`, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Description, &li.Unit, &li.Quantity, &li.UnitPrice, &li.Total); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// RevenueEntries returns the tenant's revenue rows inside [from, to].
func (s *SQLite) RevenueEntries(ctx context.Context, tenantID, from, to string) ([]RevenueEntry, error) {
	query := `SELECT id, tenant_id, date, source, gross FROM revenue_entries WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if from != "" {
		query += " AND date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list revenue: %w", err)
	}
	defer rows.Close()

	var out []RevenueEntry
	for rows.Next() {
		var e RevenueEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Date, &e.Source, &e.Gross); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListExpenses returns the tenant's expenses narrowed by the filter.
func (s *SQLite) ListExpenses(ctx context.Context, tenantID string, f ExpenseFilter) ([]Expense, error) {
	query := `SELECT id, tenant_id, date, category, description, amount FROM expenses WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Like != "" {
		query += " AND description LIKE ?"
		args = append(args, "%"+f.Like+"%")
	}
	if f.FromDate != "" {
		query += " AND date >= ?"
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		query += " AND date <= ?"
		args = append(args, f.ToDate)
	}
	if f.MinAmount > 0 {
		query += " AND amount >= ?"
		args = append(args, f.MinAmount)
	}
	query += " ORDER BY date DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Date, &e.Category, &e.Description, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSuppliers returns the tenant's suppliers, optionally matching nameLike.
func (s *SQLite) ListSuppliers(ctx context.Context, tenantID, nameLike string, limit int) ([]Supplier, error) {
	query := `SELECT id, tenant_id, name, contact_email, payment_terms_days FROM suppliers WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if nameLike != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+nameLike+"%")
	}
	query += " ORDER BY name"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(&sup.ID, &sup.TenantID, &sup.Name, &sup.ContactEmail, &sup.PaymentTermsDays); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

// ListProducts returns the tenant's menu products narrowed by the filter.
func (s *SQLite) ListProducts(ctx context.Context, tenantID string, f ProductFilter) ([]Product, error) {
	query := `SELECT id, tenant_id, name, category, sale_price, unit_cost, active FROM products WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.NameLike != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+f.NameLike+"%")
	}
	if f.OnlyActive {
		query += " AND active = 1"
	}
	query += " ORDER BY name"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Category, &p.SalePrice, &p.UnitCost, &p.Active); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListIngredients returns the tenant's ingredients, optionally matching nameLike.
func (s *SQLite) ListIngredients(ctx context.Context, tenantID, nameLike string, limit int) ([]Ingredient, error) {
	query := `SELECT id, tenant_id, supplier_id, name, unit, cost_per_unit FROM ingredients WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if nameLike != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+nameLike+"%")
	}
	query += " ORDER BY name"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.TenantID, &ing.SupplierID, &ing.Name, &ing.Unit, &ing.CostPerUnit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// ListFixedCosts returns all recurring costs of the tenant.
func (s *SQLite) ListFixedCosts(ctx context.Context, tenantID string) ([]FixedCost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, name, category, start_date, monthly_amount
		FROM fixed_costs WHERE tenant_id = ? ORDER BY monthly_amount DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	defer rows.Close()

	var out []FixedCost
	for rows.Next() {
		var fc FixedCost
		if err := rows.Scan(&fc.ID, &fc.TenantID, &fc.Name, &fc.Category, &fc.StartDate, &fc.MonthlyAmount); err != nil {
			return nil, fmt.Errorf("scan fixed cost: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

// ListScheduledPayments returns upcoming payments narrowed by the filter.
func (s *SQLite) ListScheduledPayments(ctx context.Context, tenantID string, f PaymentFilter) ([]ScheduledPayment, error) {
	query := `SELECT id, tenant_id, invoice_id, description, due_date, status, amount FROM scheduled_payments WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.DueBefore != "" {
		query += " AND due_date < ?"
		args = append(args, f.DueBefore)
	}
	if f.DueAfter != "" {
		query += " AND due_date >= ?"
		args = append(args, f.DueAfter)
	}
	query += " ORDER BY due_date"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scheduled payments: %w", err)
	}
	defer rows.Close()

	var out []ScheduledPayment
	for rows.Next() {
		var p ScheduledPayment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.InvoiceID, &p.Description, &p.DueDate, &p.Status, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan scheduled payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAlertRules returns the tenant's alert rules.
func (s *SQLite) ListAlertRules(ctx context.Context, tenantID string) ([]AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, name, metric, threshold, active, created_at
		FROM alert_rules WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list alert rules: %w", err)
	}
	defer rows.Close()

	var out []AlertRule
	for rows.Next() {
		var r AlertRule
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Name, &r.Metric, &r.Threshold, &r.Active, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateInvoiceStatus sets the status of one tenant-owned invoice and
// returns the updated row.
func (s *SQLite) UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID, status string) (Invoice, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE invoices SET status = ? WHERE id = ? AND tenant_id = ?`, status, invoiceID, tenantID)
	if err != nil {
		return Invoice{}, fmt.Errorf("update invoice status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Invoice{}, fmt.Errorf("update invoice status: %w", err)
	}
	if affected == 0 {
		return Invoice{}, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT i.id, i.tenant_id, i.supplier_id, COALESCE(sup.name, ''), i.number, i.issue_date, i.due_date, i.status, i.total
		FROM invoices i
		LEFT JOIN suppliers sup ON sup.id = i.supplier_id AND sup.tenant_id = i.tenant_id
		WHERE i.id = ? AND i.tenant_id = ?`, invoiceID, tenantID)
	var inv Invoice
	if err := row.Scan(&inv.ID, &inv.TenantID, &inv.SupplierID, &inv.SupplierName, &inv.Number, &inv.IssueDate, &inv.DueDate, &inv.Status, &inv.Total); err != nil {
		return Invoice{}, fmt.Errorf("reload invoice: %w", err)
	}
	return inv, nil
}

// CreateAlertRule inserts a new alert rule and returns it with its id.
func (s *SQLite) CreateAlertRule(ctx context.Context, tenantID string, rule AlertRule) (AlertRule, error) {
	rule.ID = uuid.NewString()
	rule.TenantID = tenantID
	if rule.CreatedAt == "" {
		rule.CreatedAt = time.Now().UTC().Format("2006-01-02")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO alert_rules (id, tenant_id, name, metric, threshold, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.TenantID, rule.Name, rule.Metric, rule.Threshold, rule.Active, rule.CreatedAt)
	if err != nil {
		return AlertRule{}, fmt.Errorf("create alert rule: %w", err)
	}
	return rule, nil
}

// CreateFixedCost inserts a new recurring cost and returns it with its id.
func (s *SQLite) CreateFixedCost(ctx context.Context, tenantID string, fc FixedCost) (FixedCost, error) {
	fc.ID = uuid.NewString()
	fc.TenantID = tenantID
	_, err := s.db.ExecContext(ctx, `INSERT INTO fixed_costs (id, tenant_id, name, category, start_date, monthly_amount)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fc.ID, fc.TenantID, fc.Name, fc.Category, fc.StartDate, fc.MonthlyAmount)
	if err != nil {
		return FixedCost{}, fmt.Errorf("create fixed cost: %w", err)
	}
	return fc, nil
}

func invoiceSortColumn(sortBy string) string {
	switch sortBy {
	case "due_date":
		return "i.due_date"
	case "total":
		return "i.total"
	case "status":
		return "i.status"
	default:
		return "i.issue_date"
	}
}

func sortDirection(dir string) string {
	if strings.EqualFold(dir, "asc") {
		return "ASC"
	}
	return "DESC"
}
