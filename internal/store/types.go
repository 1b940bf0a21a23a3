// Package store provides tenant-scoped access to the restaurant back-office
// data. Every query is filtered by tenant id; dates travel as ISO strings
// (YYYY-MM-DD) so range filters compare lexicographically in SQL.
package store

import "errors"

// ErrNotFound is returned when a scoped lookup matches no row.
var ErrNotFound = errors.New("not found")

// Invoice is a supplier invoice. SupplierName is resolved via join.
type Invoice struct {
	ID           string
	TenantID     string
	SupplierID   string
	SupplierName string
	Number       string
	IssueDate    string
	DueDate      string
	Status       string // pending, paid, overdue, cancelled
	Total        float64
}

// LineItem is one line of an invoice.
type LineItem struct {
	ID          string
	InvoiceID   string
	Description string
	Unit        string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

// RevenueEntry is one day's gross revenue from a single source.
type RevenueEntry struct {
	ID       string
	TenantID string
	Date     string
	Source   string // dine_in, delivery, takeaway
	Gross    float64
}

// Expense is a one-off operating expense.
type Expense struct {
	ID          string
	TenantID    string
	Date        string
	Category    string
	Description string
	Amount      float64
}

// Supplier is a vendor the restaurant buys from.
type Supplier struct {
	ID               string
	TenantID         string
	Name             string
	ContactEmail     string
	PaymentTermsDays int
}

// Product is a menu item with its sale price and unit cost.
type Product struct {
	ID        string
	TenantID  string
	Name      string
	Category  string
	SalePrice float64
	UnitCost  float64
	Active    bool
}

// Ingredient is a purchasable ingredient with its current cost.
type Ingredient struct {
	ID          string
	TenantID    string
	SupplierID  string
	Name        string
	Unit        string
	CostPerUnit float64
}

// FixedCost is a recurring monthly cost (rent, insurance, salaries).
type FixedCost struct {
	ID            string
	TenantID      string
	Name          string
	Category      string
	StartDate     string
	MonthlyAmount float64
}

// ScheduledPayment is an upcoming outgoing payment.
type ScheduledPayment struct {
	ID          string
	TenantID    string
	InvoiceID   string
	Description string
	DueDate     string
	Status      string // scheduled, paid
	Amount      float64
}

// AlertRule is a user-defined alerting threshold.
type AlertRule struct {
	ID        string
	TenantID  string
	Name      string
	Metric    string // cash_below, expense_above, invoice_overdue
	Threshold float64
	Active    bool
	CreatedAt string
}

// InvoiceFilter narrows invoice queries. Zero values mean "no filter".
type InvoiceFilter struct {
	Status       string
	SupplierLike string
	FromDate     string
	ToDate       string
	DueBefore    string
	MinTotal     float64
	SortBy       string // issue_date, due_date, total, status
	SortDir      string // asc, desc
	Limit        int
}

// ExpenseFilter narrows expense queries.
type ExpenseFilter struct {
	Category  string
	Like      string
	FromDate  string
	ToDate    string
	MinAmount float64
	Limit     int
}

// ProductFilter narrows product queries.
type ProductFilter struct {
	Category   string
	NameLike   string
	OnlyActive bool
	Limit      int
}

// PaymentFilter narrows scheduled payment queries.
type PaymentFilter struct {
	Status    string
	DueBefore string
	DueAfter  string
	Limit     int
}
