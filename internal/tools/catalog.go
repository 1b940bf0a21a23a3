package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contact4labs-eng/costwise/internal/store"
)

// Catalog builds the full tool set over a store. Now supplies "today" for
// overdue checks and default periods; tests pin it.
type Catalog struct {
	Store Store
	Now   func() time.Time
}

func (c *Catalog) today() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().UTC().Format(dateLayout)
}

// Descriptors returns every tool in the catalog.
func (c *Catalog) Descriptors() []Descriptor {
	return []Descriptor{
		c.queryInvoices(),
		c.getInvoiceLineItems(),
		c.queryRevenue(),
		c.queryExpenses(),
		c.querySuppliers(),
		c.getSupplierSpend(),
		c.queryProducts(),
		c.queryIngredients(),
		c.getFinancialSummary(),
		c.getCashPosition(),
		c.queryFixedCosts(),
		c.getOverdueInvoices(),
		c.queryScheduledPayments(),
		c.queryAlerts(),
		c.updateInvoiceStatus(),
		c.createAlertRule(),
		c.createFixedCost(),
	}
}

type invoiceRow struct {
	ID       string `json:"id"`
	Supplier string `json:"supplier"`
	Number   string `json:"number"`
	Issued   string `json:"issue_date"`
	Due      string `json:"due_date,omitempty"`
	Status   string `json:"status"`
	Total    string `json:"total"`
}

func invoiceRows(invoices []store.Invoice) []invoiceRow {
	rows := make([]invoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, invoiceRow{
			ID:       inv.ID,
			Supplier: inv.SupplierName,
			Number:   inv.Number,
			Issued:   inv.IssueDate,
			Due:      inv.DueDate,
			Status:   inv.Status,
			Total:    money(inv.Total),
		})
	}
	return rows
}

func sumInvoices(invoices []store.Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		total += inv.Total
	}
	return total
}

func (c *Catalog) queryInvoices() Descriptor {
	return Descriptor{
		Name: "query_invoices",
		Description: "Search supplier invoices. Filter by status (pending, paid, overdue, cancelled), " +
			"supplier name fragment, issue date range, due-before date, or minimum total. " +
			"Returns a bounded list plus the count and sum over all matches.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"status": {"type": "string", "enum": ["pending", "paid", "overdue", "cancelled"]},
				"supplier": {"type": "string", "description": "Supplier name fragment, case-insensitive"},
				"from_date": {"type": "string", "description": "Earliest issue date, YYYY-MM-DD"},
				"to_date": {"type": "string", "description": "Latest issue date, YYYY-MM-DD"},
				"due_before": {"type": "string", "description": "Only invoices due strictly before this date"},
				"min_total": {"type": "number", "minimum": 0},
				"sort_by": {"type": "string", "enum": ["issue_date", "due_date", "total", "status"]},
				"sort_dir": {"type": "string", "enum": ["asc", "desc"]},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Rows to include in the response, default 20; count and totals always cover all matches"}
			},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Status    string  `json:"status"`
				Supplier  string  `json:"supplier"`
				FromDate  string  `json:"from_date"`
				ToDate    string  `json:"to_date"`
				DueBefore string  `json:"due_before"`
				MinTotal  float64 `json:"min_total"`
				SortBy    string  `json:"sort_by"`
				SortDir   string  `json:"sort_dir"`
				Limit     int     `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			invoices, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{
				Status:       args.Status,
				SupplierLike: args.Supplier,
				FromDate:     args.FromDate,
				ToDate:       args.ToDate,
				DueBefore:    args.DueBefore,
				MinTotal:     args.MinTotal,
				SortBy:       args.SortBy,
				SortDir:      args.SortDir,
			})
			if err != nil {
				return nil, err
			}

			rows, truncated := capRows(invoiceRows(invoices), args.Limit)
			return map[string]interface{}{
				"count":        len(invoices),
				"total_amount": money(sumInvoices(invoices)),
				"invoices":     rows,
				"truncated":    truncated,
			}, nil
		},
	}
}

func (c *Catalog) getInvoiceLineItems() Descriptor {
	return Descriptor{
		Name:        "get_invoice_line_items",
		Description: "Get the line items of one invoice by its id.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"invoice_id": {"type": "string", "minLength": 1}
			},
			"required": ["invoice_id"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				InvoiceID string `json:"invoice_id"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			items, err := c.Store.InvoiceLineItems(ctx, tenantID, args.InvoiceID)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, fmt.Errorf("invoice %s not found or has no line items", args.InvoiceID)
			}

			type lineRow struct {
				Description string  `json:"description"`
				Unit        string  `json:"unit,omitempty"`
				Quantity    float64 `json:"quantity"`
				UnitPrice   string  `json:"unit_price"`
				Total       string  `json:"total"`
			}
			var total float64
			rows := make([]lineRow, 0, len(items))
			for _, li := range items {
				total += li.Total
				rows = append(rows, lineRow{
					Description: li.Description,
					Unit:        li.Unit,
					Quantity:    li.Quantity,
					UnitPrice:   money(li.UnitPrice),
					Total:       money(li.Total),
				})
			}
			return map[string]interface{}{
				"invoice_id": args.InvoiceID,
				"items":      rows,
				"total":      money(total),
			}, nil
		},
	}
}

func (c *Catalog) queryRevenue() Descriptor {
	return Descriptor{
		Name: "query_revenue",
		Description: "Summarize gross revenue over a date range: total, per-source breakdown, " +
			"daily average, and change versus the preceding period of equal length.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"from_date": {"type": "string", "description": "Start date, YYYY-MM-DD"},
				"to_date": {"type": "string", "description": "End date, YYYY-MM-DD"}
			},
			"required": ["from_date", "to_date"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				FromDate string `json:"from_date"`
				ToDate   string `json:"to_date"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			prevFrom, prevTo, err := mirrorPeriod(args.FromDate, args.ToDate)
			if err != nil {
				return nil, err
			}

			entries, err := c.Store.RevenueEntries(ctx, tenantID, args.FromDate, args.ToDate)
			if err != nil {
				return nil, err
			}
			prev, err := c.Store.RevenueEntries(ctx, tenantID, prevFrom, prevTo)
			if err != nil {
				return nil, err
			}

			var total, prevTotal float64
			bySource := map[string]float64{}
			for _, e := range entries {
				total += e.Gross
				bySource[e.Source] += e.Gross
			}
			for _, e := range prev {
				prevTotal += e.Gross
			}

			sources := map[string]string{}
			for source, amount := range bySource {
				sources[source] = money(amount)
			}

			days := daysBetween(args.FromDate, args.ToDate)
			dailyAvg := 0.0
			if days > 0 {
				dailyAvg = total / float64(days)
			}

			return map[string]interface{}{
				"from_date":        args.FromDate,
				"to_date":          args.ToDate,
				"total":            money(total),
				"by_source":        sources,
				"daily_average":    money(dailyAvg),
				"entry_count":      len(entries),
				"vs_prior_period":  pctChange(total, prevTotal),
				"prior_period":     fmt.Sprintf("%s to %s", prevFrom, prevTo),
			}, nil
		},
	}
}

func (c *Catalog) queryExpenses() Descriptor {
	return Descriptor{
		Name: "query_expenses",
		Description: "Search one-off operating expenses. Filter by category, description fragment, " +
			"date range, or minimum amount. Returns a bounded list plus per-category totals.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"category": {"type": "string"},
				"search": {"type": "string", "description": "Description fragment, case-insensitive"},
				"from_date": {"type": "string"},
				"to_date": {"type": "string"},
				"min_amount": {"type": "number", "minimum": 0},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Rows to include in the response, default 20; count and totals always cover all matches"}
			},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Category  string  `json:"category"`
				Search    string  `json:"search"`
				FromDate  string  `json:"from_date"`
				ToDate    string  `json:"to_date"`
				MinAmount float64 `json:"min_amount"`
				Limit     int     `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			expenses, err := c.Store.ListExpenses(ctx, tenantID, store.ExpenseFilter{
				Category:  args.Category,
				Like:      args.Search,
				FromDate:  args.FromDate,
				ToDate:    args.ToDate,
				MinAmount: args.MinAmount,
			})
			if err != nil {
				return nil, err
			}

			type expenseRow struct {
				Date        string `json:"date"`
				Category    string `json:"category"`
				Description string `json:"description"`
				Amount      string `json:"amount"`
			}
			var total float64
			byCategory := map[string]float64{}
			rows := make([]expenseRow, 0, len(expenses))
			for _, e := range expenses {
				total += e.Amount
				byCategory[e.Category] += e.Amount
				rows = append(rows, expenseRow{
					Date:        e.Date,
					Category:    e.Category,
					Description: e.Description,
					Amount:      money(e.Amount),
				})
			}
			categories := map[string]string{}
			for cat, amount := range byCategory {
				categories[cat] = money(amount)
			}

			capped, truncated := capRows(rows, args.Limit)
			return map[string]interface{}{
				"count":       len(expenses),
				"total":       money(total),
				"by_category": categories,
				"expenses":    capped,
				"truncated":   truncated,
			}, nil
		},
	}
}

func (c *Catalog) querySuppliers() Descriptor {
	return Descriptor{
		Name:        "query_suppliers",
		Description: "List suppliers, optionally filtered by a name fragment.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Name fragment, case-insensitive"},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Rows to include in the response, default 20; count and totals always cover all matches"}
			},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Name  string `json:"name"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			suppliers, err := c.Store.ListSuppliers(ctx, tenantID, args.Name, 0)
			if err != nil {
				return nil, err
			}

			type supplierRow struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				ContactEmail string `json:"contact_email,omitempty"`
				PaymentTerms int    `json:"payment_terms_days"`
			}
			rows := make([]supplierRow, 0, len(suppliers))
			for _, s := range suppliers {
				rows = append(rows, supplierRow{
					ID:           s.ID,
					Name:         s.Name,
					ContactEmail: s.ContactEmail,
					PaymentTerms: s.PaymentTermsDays,
				})
			}
			capped, truncated := capRows(rows, args.Limit)
			return map[string]interface{}{
				"count":     len(suppliers),
				"suppliers": capped,
				"truncated": truncated,
			}, nil
		},
	}
}

func (c *Catalog) getSupplierSpend() Descriptor {
	return Descriptor{
		Name: "get_supplier_spend",
		Description: "Total invoiced spend with one supplier over a date range, " +
			"with invoice count and change versus the preceding period of equal length.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"supplier": {"type": "string", "minLength": 1, "description": "Supplier name or fragment"},
				"from_date": {"type": "string"},
				"to_date": {"type": "string"}
			},
			"required": ["supplier", "from_date", "to_date"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Supplier string `json:"supplier"`
				FromDate string `json:"from_date"`
				ToDate   string `json:"to_date"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			prevFrom, prevTo, err := mirrorPeriod(args.FromDate, args.ToDate)
			if err != nil {
				return nil, err
			}

			invoices, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{
				SupplierLike: args.Supplier,
				FromDate:     args.FromDate,
				ToDate:       args.ToDate,
			})
			if err != nil {
				return nil, err
			}
			prev, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{
				SupplierLike: args.Supplier,
				FromDate:     prevFrom,
				ToDate:       prevTo,
			})
			if err != nil {
				return nil, err
			}

			total := sumInvoices(invoices)
			return map[string]interface{}{
				"supplier":        args.Supplier,
				"from_date":       args.FromDate,
				"to_date":         args.ToDate,
				"invoice_count":   len(invoices),
				"total":           money(total),
				"vs_prior_period": pctChange(total, sumInvoices(prev)),
			}, nil
		},
	}
}

func (c *Catalog) queryProducts() Descriptor {
	return Descriptor{
		Name: "query_products",
		Description: "List menu products with sale price, unit cost, and gross margin. " +
			"Filter by category, name fragment, or active only.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"category": {"type": "string"},
				"name": {"type": "string"},
				"only_active": {"type": "boolean"},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Rows to include in the response, default 20; count and totals always cover all matches"}
			},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Category   string `json:"category"`
				Name       string `json:"name"`
				OnlyActive bool   `json:"only_active"`
				Limit      int    `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			products, err := c.Store.ListProducts(ctx, tenantID, store.ProductFilter{
				Category:   args.Category,
				NameLike:   args.Name,
				OnlyActive: args.OnlyActive,
			})
			if err != nil {
				return nil, err
			}

			type productRow struct {
				Name      string `json:"name"`
				Category  string `json:"category,omitempty"`
				SalePrice string `json:"sale_price"`
				UnitCost  string `json:"unit_cost"`
				Margin    string `json:"margin"`
				Active    bool   `json:"active"`
			}
			rows := make([]productRow, 0, len(products))
			for _, p := range products {
				rows = append(rows, productRow{
					Name:      p.Name,
					Category:  p.Category,
					SalePrice: money(p.SalePrice),
					UnitCost:  money(p.UnitCost),
					Margin:    marginPct(p.SalePrice, p.UnitCost),
					Active:    p.Active,
				})
			}
			capped, truncated := capRows(rows, args.Limit)
			return map[string]interface{}{
				"count":     len(products),
				"products":  capped,
				"truncated": truncated,
			}, nil
		},
	}
}

func (c *Catalog) queryIngredients() Descriptor {
	return Descriptor{
		Name:        "query_ingredients",
		Description: "List purchasable ingredients with their current unit cost, optionally filtered by a name fragment.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Rows to include in the response, default 20; count and totals always cover all matches"}
			},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Name  string `json:"name"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			ingredients, err := c.Store.ListIngredients(ctx, tenantID, args.Name, 0)
			if err != nil {
				return nil, err
			}

			type ingredientRow struct {
				Name        string `json:"name"`
				Unit        string `json:"unit,omitempty"`
				CostPerUnit string `json:"cost_per_unit"`
			}
			rows := make([]ingredientRow, 0, len(ingredients))
			for _, ing := range ingredients {
				rows = append(rows, ingredientRow{
					Name:        ing.Name,
					Unit:        ing.Unit,
					CostPerUnit: money(ing.CostPerUnit),
				})
			}
			capped, truncated := capRows(rows, args.Limit)
			return map[string]interface{}{
				"count":       len(ingredients),
				"ingredients": capped,
				"truncated":   truncated,
			}, nil
		},
	}
}

func (c *Catalog) getFinancialSummary() Descriptor {
	return Descriptor{
		Name: "get_financial_summary",
		Description: "Profit and loss overview for a date range: revenue, expenses, invoiced costs, " +
			"pro-rated fixed costs, the resulting net, and change versus the preceding period of equal length.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"from_date": {"type": "string"},
				"to_date": {"type": "string"}
			},
			"required": ["from_date", "to_date"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				FromDate string `json:"from_date"`
				ToDate   string `json:"to_date"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}
			days := daysBetween(args.FromDate, args.ToDate)
			if days == 0 {
				return nil, fmt.Errorf("invalid period %q to %q", args.FromDate, args.ToDate)
			}
			prevFrom, prevTo, err := mirrorPeriod(args.FromDate, args.ToDate)
			if err != nil {
				return nil, err
			}

			revenue, err := c.Store.RevenueEntries(ctx, tenantID, args.FromDate, args.ToDate)
			if err != nil {
				return nil, err
			}
			prevRevenue, err := c.Store.RevenueEntries(ctx, tenantID, prevFrom, prevTo)
			if err != nil {
				return nil, err
			}
			expenses, err := c.Store.ListExpenses(ctx, tenantID, store.ExpenseFilter{
				FromDate: args.FromDate, ToDate: args.ToDate,
			})
			if err != nil {
				return nil, err
			}
			prevExpenses, err := c.Store.ListExpenses(ctx, tenantID, store.ExpenseFilter{
				FromDate: prevFrom, ToDate: prevTo,
			})
			if err != nil {
				return nil, err
			}
			invoices, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{
				FromDate: args.FromDate, ToDate: args.ToDate,
			})
			if err != nil {
				return nil, err
			}
			fixedCosts, err := c.Store.ListFixedCosts(ctx, tenantID)
			if err != nil {
				return nil, err
			}

			var revenueTotal, expenseTotal, monthlyFixed float64
			var prevRevenueTotal, prevExpenseTotal float64
			for _, r := range revenue {
				revenueTotal += r.Gross
			}
			for _, r := range prevRevenue {
				prevRevenueTotal += r.Gross
			}
			for _, e := range expenses {
				expenseTotal += e.Amount
			}
			for _, e := range prevExpenses {
				prevExpenseTotal += e.Amount
			}
			for _, fc := range fixedCosts {
				monthlyFixed += fc.MonthlyAmount
			}
			invoiced := sumInvoices(invoices)
			// Fixed costs are monthly; pro-rate over a 30-day month.
			fixedShare := monthlyFixed / 30 * float64(days)
			net := revenueTotal - expenseTotal - invoiced - fixedShare

			return map[string]interface{}{
				"from_date":         args.FromDate,
				"to_date":           args.ToDate,
				"days":              days,
				"revenue":           money(revenueTotal),
				"revenue_change":    pctChange(revenueTotal, prevRevenueTotal),
				"expenses":          money(expenseTotal),
				"expense_change":    pctChange(expenseTotal, prevExpenseTotal),
				"invoiced_costs":    money(invoiced),
				"fixed_costs_share": money(fixedShare),
				"net":               money(net),
				"prior_period":      fmt.Sprintf("%s to %s", prevFrom, prevTo),
			}, nil
		},
	}
}

func (c *Catalog) getCashPosition() Descriptor {
	return Descriptor{
		Name: "get_cash_position",
		Description: "Current cash picture: all-time revenue minus expenses and paid invoices, " +
			"plus outstanding pending invoices and scheduled payments due in the next 30 days.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			today := c.today()

			revenue, err := c.Store.RevenueEntries(ctx, tenantID, "", "")
			if err != nil {
				return nil, err
			}
			expenses, err := c.Store.ListExpenses(ctx, tenantID, store.ExpenseFilter{})
			if err != nil {
				return nil, err
			}
			paid, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{Status: "paid"})
			if err != nil {
				return nil, err
			}
			pending, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{Status: "pending"})
			if err != nil {
				return nil, err
			}

			horizon, err := time.Parse(dateLayout, today)
			if err != nil {
				return nil, err
			}
			upcoming, err := c.Store.ListScheduledPayments(ctx, tenantID, store.PaymentFilter{
				Status:    "scheduled",
				DueAfter:  today,
				DueBefore: horizon.AddDate(0, 0, 30).Format(dateLayout),
			})
			if err != nil {
				return nil, err
			}

			var revenueTotal, expenseTotal, upcomingTotal float64
			for _, r := range revenue {
				revenueTotal += r.Gross
			}
			for _, e := range expenses {
				expenseTotal += e.Amount
			}
			for _, p := range upcoming {
				upcomingTotal += p.Amount
			}
			paidTotal := sumInvoices(paid)
			pendingTotal := sumInvoices(pending)
			cash := revenueTotal - expenseTotal - paidTotal

			return map[string]interface{}{
				"as_of":                    today,
				"cash":                     money(cash),
				"revenue_to_date":          money(revenueTotal),
				"expenses_to_date":         money(expenseTotal),
				"paid_invoices":            money(paidTotal),
				"pending_invoices":         money(pendingTotal),
				"pending_invoice_count":    len(pending),
				"payments_due_30_days":     money(upcomingTotal),
				"payments_due_30_days_num": len(upcoming),
			}, nil
		},
	}
}

func (c *Catalog) queryFixedCosts() Descriptor {
	return Descriptor{
		Name:        "query_fixed_costs",
		Description: "List recurring monthly costs (rent, insurance, salaries) with the monthly total.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			costs, err := c.Store.ListFixedCosts(ctx, tenantID)
			if err != nil {
				return nil, err
			}

			type costRow struct {
				Name          string `json:"name"`
				Category      string `json:"category,omitempty"`
				StartDate     string `json:"start_date,omitempty"`
				MonthlyAmount string `json:"monthly_amount"`
			}
			var total float64
			rows := make([]costRow, 0, len(costs))
			for _, fc := range costs {
				total += fc.MonthlyAmount
				rows = append(rows, costRow{
					Name:          fc.Name,
					Category:      fc.Category,
					StartDate:     fc.StartDate,
					MonthlyAmount: money(fc.MonthlyAmount),
				})
			}
			capped, truncated := capRows(rows, 0)
			return map[string]interface{}{
				"count":         len(costs),
				"monthly_total": money(total),
				"fixed_costs":   capped,
				"truncated":     truncated,
			}, nil
		},
	}
}

func (c *Catalog) getOverdueInvoices() Descriptor {
	return Descriptor{
		Name:        "get_overdue_invoices",
		Description: "List unpaid invoices whose due date has passed, oldest first.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			invoices, err := c.Store.ListInvoices(ctx, tenantID, store.InvoiceFilter{
				Status:    "pending",
				DueBefore: c.today(),
				SortBy:    "due_date",
				SortDir:   "asc",
			})
			if err != nil {
				return nil, err
			}

			rows, truncated := capRows(invoiceRows(invoices), 0)
			return map[string]interface{}{
				"as_of":        c.today(),
				"count":        len(invoices),
				"total_amount": money(sumInvoices(invoices)),
				"invoices":     rows,
				"truncated":    truncated,
			}, nil
		},
	}
}

func (c *Catalog) queryScheduledPayments() Descriptor {
	return Descriptor{
		Name:        "query_scheduled_payments",
		Description: "List scheduled outgoing payments, optionally filtered by status or due date window.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"status": {"type": "string", "enum": ["scheduled", "paid"]},
				"due_before": {"type": "string"},
				"due_after": {"type": "string"},
				"limit": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Rows to include in the response, default 20; count and totals always cover all matches"}
			},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Status    string `json:"status"`
				DueBefore string `json:"due_before"`
				DueAfter  string `json:"due_after"`
				Limit     int    `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			payments, err := c.Store.ListScheduledPayments(ctx, tenantID, store.PaymentFilter{
				Status:    args.Status,
				DueBefore: args.DueBefore,
				DueAfter:  args.DueAfter,
			})
			if err != nil {
				return nil, err
			}

			type paymentRow struct {
				Description string `json:"description"`
				DueDate     string `json:"due_date"`
				Status      string `json:"status"`
				Amount      string `json:"amount"`
			}
			var total float64
			rows := make([]paymentRow, 0, len(payments))
			for _, p := range payments {
				total += p.Amount
				rows = append(rows, paymentRow{
					Description: p.Description,
					DueDate:     p.DueDate,
					Status:      p.Status,
					Amount:      money(p.Amount),
				})
			}
			capped, truncated := capRows(rows, args.Limit)
			return map[string]interface{}{
				"count":     len(payments),
				"total":     money(total),
				"payments":  capped,
				"truncated": truncated,
			}, nil
		},
	}
}

func (c *Catalog) queryAlerts() Descriptor {
	return Descriptor{
		Name:        "query_alerts",
		Description: "List the configured alert rules and their thresholds.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			rules, err := c.Store.ListAlertRules(ctx, tenantID)
			if err != nil {
				return nil, err
			}

			type ruleRow struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Metric    string `json:"metric"`
				Threshold string `json:"threshold"`
				Active    bool   `json:"active"`
			}
			rows := make([]ruleRow, 0, len(rules))
			for _, r := range rules {
				rows = append(rows, ruleRow{
					ID:        r.ID,
					Name:      r.Name,
					Metric:    r.Metric,
					Threshold: money(r.Threshold),
					Active:    r.Active,
				})
			}
			return map[string]interface{}{
				"count": len(rules),
				"rules": rows,
			}, nil
		},
	}
}

func (c *Catalog) updateInvoiceStatus() Descriptor {
	return Descriptor{
		Name: "update_invoice_status",
		Description: "Set the status of one invoice. Only call this after the user has explicitly " +
			"confirmed the change in the conversation; never invoke it speculatively.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"invoice_id": {"type": "string", "minLength": 1},
				"status": {"type": "string", "enum": ["pending", "paid", "overdue", "cancelled"]}
			},
			"required": ["invoice_id", "status"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				InvoiceID string `json:"invoice_id"`
				Status    string `json:"status"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			inv, err := c.Store.UpdateInvoiceStatus(ctx, tenantID, args.InvoiceID, args.Status)
			if err != nil {
				if err == store.ErrNotFound {
					return nil, fmt.Errorf("invoice %s not found", args.InvoiceID)
				}
				return nil, err
			}
			return map[string]interface{}{
				"updated": true,
				"invoice": invoiceRows([]store.Invoice{inv})[0],
			}, nil
		},
	}
}

func (c *Catalog) createAlertRule() Descriptor {
	return Descriptor{
		Name: "create_alert_rule",
		Description: "Create an alert rule. Only call this after the user has explicitly confirmed " +
			"the rule in the conversation; never invoke it speculatively.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"metric": {"type": "string", "enum": ["cash_below", "expense_above", "invoice_overdue"]},
				"threshold": {"type": "number", "minimum": 0}
			},
			"required": ["name", "metric", "threshold"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Name      string  `json:"name"`
				Metric    string  `json:"metric"`
				Threshold float64 `json:"threshold"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			rule, err := c.Store.CreateAlertRule(ctx, tenantID, store.AlertRule{
				Name:      args.Name,
				Metric:    args.Metric,
				Threshold: args.Threshold,
				Active:    true,
			})
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"created":   true,
				"id":        rule.ID,
				"name":      rule.Name,
				"metric":    rule.Metric,
				"threshold": money(rule.Threshold),
			}, nil
		},
	}
}

func (c *Catalog) createFixedCost() Descriptor {
	return Descriptor{
		Name: "create_fixed_cost",
		Description: "Register a recurring monthly cost. Only call this after the user has explicitly " +
			"confirmed it in the conversation; never invoke it speculatively.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"category": {"type": "string"},
				"monthly_amount": {"type": "number", "minimum": 0},
				"start_date": {"type": "string"}
			},
			"required": ["name", "monthly_amount"],
			"additionalProperties": false
		}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			var args struct {
				Name          string  `json:"name"`
				Category      string  `json:"category"`
				MonthlyAmount float64 `json:"monthly_amount"`
				StartDate     string  `json:"start_date"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return nil, err
			}

			fc, err := c.Store.CreateFixedCost(ctx, tenantID, store.FixedCost{
				Name:          args.Name,
				Category:      args.Category,
				MonthlyAmount: args.MonthlyAmount,
				StartDate:     args.StartDate,
			})
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"created":        true,
				"id":             fc.ID,
				"name":           fc.Name,
				"monthly_amount": money(fc.MonthlyAmount),
			}, nil
		},
	}
}
