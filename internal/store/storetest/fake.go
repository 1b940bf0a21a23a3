// Package storetest provides a seedable in-memory store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/contact4labs-eng/costwise/internal/store"
)

// Fake is an in-memory stand-in for the SQLite store. Seed the exported
// slices directly; methods apply the same tenant scoping and filters.
type Fake struct {
	mu sync.Mutex

	Invoices          []store.Invoice
	LineItems         []store.LineItem
	Revenue           []store.RevenueEntry
	Expenses          []store.Expense
	Suppliers         []store.Supplier
	Products          []store.Product
	Ingredients       []store.Ingredient
	FixedCosts        []store.FixedCost
	ScheduledPayments []store.ScheduledPayment
	AlertRules        []store.AlertRule

	// Err, when set, is returned by every method.
	Err error
}

func (f *Fake) ListInvoices(ctx context.Context, tenantID string, filter store.InvoiceFilter) ([]store.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.Invoice
	for _, inv := range f.Invoices {
		if inv.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.SupplierLike != "" && !strings.Contains(strings.ToLower(inv.SupplierName), strings.ToLower(filter.SupplierLike)) {
			continue
		}
		if filter.FromDate != "" && inv.IssueDate < filter.FromDate {
			continue
		}
		if filter.ToDate != "" && inv.IssueDate > filter.ToDate {
			continue
		}
		if filter.DueBefore != "" && (inv.DueDate == "" || inv.DueDate >= filter.DueBefore) {
			continue
		}
		if filter.MinTotal > 0 && inv.Total < filter.MinTotal {
			continue
		}
		out = append(out, inv)
	}

	asc := strings.EqualFold(filter.SortDir, "asc")
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case "due_date":
			less = out[i].DueDate < out[j].DueDate
		case "total":
			less = out[i].Total < out[j].Total
		case "status":
			less = out[i].Status < out[j].Status
		default:
			less = out[i].IssueDate < out[j].IssueDate
		}
		if asc {
			return less
		}
		return !less
	})

	return applyLimit(out, filter.Limit), nil
}

func (f *Fake) InvoiceLineItems(ctx context.Context, tenantID, invoiceID string) ([]store.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	owned := false
	for _, inv := range f.Invoices {
		if inv.ID == invoiceID && inv.TenantID == tenantID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, nil
	}

	var out []store.LineItem
	for _, li := range f.LineItems {
		if li.InvoiceID == invoiceID {
			out = append(out, li)
		}
	}
	return out, nil
}

func (f *Fake) RevenueEntries(ctx context.Context, tenantID, from, to string) ([]store.RevenueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.RevenueEntry
	for _, e := range f.Revenue {
		if e.TenantID != tenantID {
			continue
		}
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *Fake) ListExpenses(ctx context.Context, tenantID string, filter store.ExpenseFilter) ([]store.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.Expense
	for _, e := range f.Expenses {
		if e.TenantID != tenantID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Like != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(filter.Like)) {
			continue
		}
		if filter.FromDate != "" && e.Date < filter.FromDate {
			continue
		}
		if filter.ToDate != "" && e.Date > filter.ToDate {
			continue
		}
		if filter.MinAmount > 0 && e.Amount < filter.MinAmount {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return applyLimit(out, filter.Limit), nil
}

func (f *Fake) ListSuppliers(ctx context.Context, tenantID, nameLike string, limit int) ([]store.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.Supplier
	for _, s := range f.Suppliers {
		if s.TenantID != tenantID {
			continue
		}
		if nameLike != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(nameLike)) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return applyLimit(out, limit), nil
}

func (f *Fake) ListProducts(ctx context.Context, tenantID string, filter store.ProductFilter) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.Product
	for _, p := range f.Products {
		if p.TenantID != tenantID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.NameLike != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.NameLike)) {
			continue
		}
		if filter.OnlyActive && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return applyLimit(out, filter.Limit), nil
}

func (f *Fake) ListIngredients(ctx context.Context, tenantID, nameLike string, limit int) ([]store.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.Ingredient
	for _, ing := range f.Ingredients {
		if ing.TenantID != tenantID {
			continue
		}
		if nameLike != "" && !strings.Contains(strings.ToLower(ing.Name), strings.ToLower(nameLike)) {
			continue
		}
		out = append(out, ing)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return applyLimit(out, limit), nil
}

func (f *Fake) ListFixedCosts(ctx context.Context, tenantID string) ([]store.FixedCost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.FixedCost
	for _, fc := range f.FixedCosts {
		if fc.TenantID == tenantID {
			out = append(out, fc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MonthlyAmount > out[j].MonthlyAmount })
	return out, nil
}

func (f *Fake) ListScheduledPayments(ctx context.Context, tenantID string, filter store.PaymentFilter) ([]store.ScheduledPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.ScheduledPayment
	for _, p := range f.ScheduledPayments {
		if p.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.DueBefore != "" && p.DueDate >= filter.DueBefore {
			continue
		}
		if filter.DueAfter != "" && p.DueDate < filter.DueAfter {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return applyLimit(out, filter.Limit), nil
}

func (f *Fake) ListAlertRules(ctx context.Context, tenantID string) ([]store.AlertRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	var out []store.AlertRule
	for _, r := range f.AlertRules {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (f *Fake) UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID, status string) (store.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return store.Invoice{}, f.Err
	}

	for i := range f.Invoices {
		if f.Invoices[i].ID == invoiceID && f.Invoices[i].TenantID == tenantID {
			f.Invoices[i].Status = status
			return f.Invoices[i], nil
		}
	}
	return store.Invoice{}, store.ErrNotFound
}

func (f *Fake) CreateAlertRule(ctx context.Context, tenantID string, rule store.AlertRule) (store.AlertRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return store.AlertRule{}, f.Err
	}

	rule.ID = fmt.Sprintf("rule-%d", len(f.AlertRules)+1)
	rule.TenantID = tenantID
	if rule.CreatedAt == "" {
		rule.CreatedAt = time.Now().UTC().Format("2006-01-02")
	}
	f.AlertRules = append(f.AlertRules, rule)
	return rule, nil
}

func (f *Fake) CreateFixedCost(ctx context.Context, tenantID string, fc store.FixedCost) (store.FixedCost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return store.FixedCost{}, f.Err
	}

	fc.ID = fmt.Sprintf("fc-%d", len(f.FixedCosts)+1)
	fc.TenantID = tenantID
	f.FixedCosts = append(f.FixedCosts, fc)
	return fc, nil
}

func applyLimit[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
