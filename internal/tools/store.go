package tools

import (
	"context"

	"github.com/contact4labs-eng/costwise/internal/store"
)

// Store is the data access surface the tool handlers depend on. It is
// satisfied by *store.SQLite and by the test fake.
type Store interface {
	ListInvoices(ctx context.Context, tenantID string, f store.InvoiceFilter) ([]store.Invoice, error)
	InvoiceLineItems(ctx context.Context, tenantID, invoiceID string) ([]store.LineItem, error)
	RevenueEntries(ctx context.Context, tenantID, from, to string) ([]store.RevenueEntry, error)
	ListExpenses(ctx context.Context, tenantID string, f store.ExpenseFilter) ([]store.Expense, error)
	ListSuppliers(ctx context.Context, tenantID, nameLike string, limit int) ([]store.Supplier, error)
	ListProducts(ctx context.Context, tenantID string, f store.ProductFilter) ([]store.Product, error)
	ListIngredients(ctx context.Context, tenantID, nameLike string, limit int) ([]store.Ingredient, error)
	ListFixedCosts(ctx context.Context, tenantID string) ([]store.FixedCost, error)
	ListScheduledPayments(ctx context.Context, tenantID string, f store.PaymentFilter) ([]store.ScheduledPayment, error)
	ListAlertRules(ctx context.Context, tenantID string) ([]store.AlertRule, error)
	UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID, status string) (store.Invoice, error)
	CreateAlertRule(ctx context.Context, tenantID string, rule store.AlertRule) (store.AlertRule, error)
	CreateFixedCost(ctx context.Context, tenantID string, fc store.FixedCost) (store.FixedCost, error)
}
