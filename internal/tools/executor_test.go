package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contact4labs-eng/costwise/internal/store"
	"github.com/contact4labs-eng/costwise/internal/store/storetest"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func newTestExecutor(t *testing.T, fake *storetest.Fake) *Executor {
	t.Helper()
	catalog := &Catalog{Store: fake, Now: fixedNow}
	registry, err := NewRegistry(catalog.Descriptors())
	require.NoError(t, err)
	return NewExecutor(registry, nil, nil)
}

func seededFake() *storetest.Fake {
	return &storetest.Fake{
		Suppliers: []store.Supplier{
			{ID: "sup-1", TenantID: "tenant-a", Name: "Metro Foods", PaymentTermsDays: 30},
		},
		Invoices: []store.Invoice{
			{ID: "inv-1", TenantID: "tenant-a", SupplierID: "sup-1", SupplierName: "Metro Foods",
				Number: "INV-001", IssueDate: "2024-02-10", DueDate: "2024-03-01", Status: "pending", Total: 450},
			{ID: "inv-2", TenantID: "tenant-a", SupplierID: "sup-1", SupplierName: "Metro Foods",
				Number: "INV-002", IssueDate: "2024-03-01", DueDate: "2024-04-01", Status: "pending", Total: 200},
			{ID: "inv-3", TenantID: "tenant-b", SupplierName: "Other Co",
				Number: "X-1", IssueDate: "2024-02-01", DueDate: "2024-02-20", Status: "pending", Total: 999},
		},
		Revenue: []store.RevenueEntry{
			{ID: "r-1", TenantID: "tenant-a", Date: "2024-01-10", Source: "dine_in", Gross: 1000},
			{ID: "r-2", TenantID: "tenant-a", Date: "2024-02-10", Source: "dine_in", Gross: 1200},
			{ID: "r-3", TenantID: "tenant-a", Date: "2024-02-20", Source: "delivery", Gross: 300},
		},
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := newTestExecutor(t, seededFake())

	res := e.Execute(context.Background(), "tenant-a", "does_not_exist", nil)
	require.True(t, res.IsError)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, "Unknown tool: does_not_exist", payload["error"])
}

func TestExecuteSchemaValidation(t *testing.T) {
	e := newTestExecutor(t, seededFake())

	// query_revenue requires from_date and to_date.
	res := e.Execute(context.Background(), "tenant-a", "query_revenue", json.RawMessage(`{}`))
	require.True(t, res.IsError)
	require.Contains(t, res.Content, "Invalid input for query_revenue")

	// Unknown property is rejected.
	res = e.Execute(context.Background(), "tenant-a", "query_invoices", json.RawMessage(`{"bogus": 1}`))
	require.True(t, res.IsError)

	// Malformed JSON is rejected before the handler runs.
	res = e.Execute(context.Background(), "tenant-a", "query_invoices", json.RawMessage(`{`))
	require.True(t, res.IsError)
	require.Contains(t, res.Content, "not valid JSON")
}

func TestExecuteQueryInvoices(t *testing.T) {
	e := newTestExecutor(t, seededFake())

	res := e.Execute(context.Background(), "tenant-a", "query_invoices", json.RawMessage(`{"status": "pending"}`))
	require.False(t, res.IsError)

	var payload struct {
		Count       int    `json:"count"`
		TotalAmount string `json:"total_amount"`
		Truncated   bool   `json:"truncated"`
		Invoices    []struct {
			Supplier string `json:"supplier"`
		} `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, 2, payload.Count)
	require.Equal(t, "650.00", payload.TotalAmount)
	require.False(t, payload.Truncated)
	require.Equal(t, "Metro Foods", payload.Invoices[0].Supplier)
}

// Aggregates must cover every matching invoice even when far more rows
// exist than the response carries; limit only bounds the displayed rows.
func TestExecuteQueryInvoicesAggregatesAllMatches(t *testing.T) {
	fake := &storetest.Fake{}
	for i := 0; i < 150; i++ {
		fake.Invoices = append(fake.Invoices, store.Invoice{
			ID: fmt.Sprintf("inv-%03d", i), TenantID: "tenant-a", SupplierName: "Metro Foods",
			Number: fmt.Sprintf("INV-%03d", i), IssueDate: "2024-02-10", DueDate: "2024-03-10",
			Status: "pending", Total: 10,
		})
	}
	e := newTestExecutor(t, fake)

	var payload struct {
		Count       int    `json:"count"`
		TotalAmount string `json:"total_amount"`
		Truncated   bool   `json:"truncated"`
		Invoices    []struct {
			ID string `json:"id"`
		} `json:"invoices"`
	}

	res := e.Execute(context.Background(), "tenant-a", "query_invoices", json.RawMessage(`{"status": "pending"}`))
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, 150, payload.Count)
	require.Equal(t, "1500.00", payload.TotalAmount)
	require.True(t, payload.Truncated)
	require.Len(t, payload.Invoices, 20)

	// An explicit limit widens the displayed window without touching the
	// aggregates.
	res = e.Execute(context.Background(), "tenant-a", "query_invoices", json.RawMessage(`{"status": "pending", "limit": 50}`))
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, 150, payload.Count)
	require.Equal(t, "1500.00", payload.TotalAmount)
	require.True(t, payload.Truncated)
	require.Len(t, payload.Invoices, 50)
}

func TestExecuteScopesToTenant(t *testing.T) {
	e := newTestExecutor(t, seededFake())

	res := e.Execute(context.Background(), "tenant-b", "query_invoices", json.RawMessage(`{}`))
	require.False(t, res.IsError)

	var payload struct {
		Count    int `json:"count"`
		Invoices []struct {
			ID string `json:"id"`
		} `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, 1, payload.Count)
	require.Equal(t, "inv-3", payload.Invoices[0].ID)
}

func TestExecuteQueryRevenue(t *testing.T) {
	e := newTestExecutor(t, seededFake())

	res := e.Execute(context.Background(), "tenant-a", "query_revenue",
		json.RawMessage(`{"from_date": "2024-02-01", "to_date": "2024-02-29"}`))
	require.False(t, res.IsError)

	var payload struct {
		Total         string            `json:"total"`
		BySource      map[string]string `json:"by_source"`
		VsPriorPeriod string            `json:"vs_prior_period"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, "1500.00", payload.Total)
	require.Equal(t, "1200.00", payload.BySource["dine_in"])
	require.Equal(t, "300.00", payload.BySource["delivery"])
	// Prior period (Jan 3 to Jan 31) holds the 1000 entry.
	require.Equal(t, "+50.0%", payload.VsPriorPeriod)
}

func TestExecuteFinancialSummaryZeroBaseline(t *testing.T) {
	// No revenue at all in the prior period: change must be the "N/A"
	// sentinel, never a division failure.
	fake := &storetest.Fake{
		Revenue: []store.RevenueEntry{
			{ID: "r-1", TenantID: "tenant-a", Date: "2024-02-10", Source: "dine_in", Gross: 500},
		},
	}
	e := newTestExecutor(t, fake)

	res := e.Execute(context.Background(), "tenant-a", "get_financial_summary",
		json.RawMessage(`{"from_date": "2024-02-01", "to_date": "2024-02-29"}`))
	require.False(t, res.IsError)

	var payload struct {
		Revenue       string `json:"revenue"`
		RevenueChange string `json:"revenue_change"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, "500.00", payload.Revenue)
	require.Equal(t, "N/A", payload.RevenueChange)
}

func TestExecuteOverdueInvoicesUsesPinnedClock(t *testing.T) {
	e := newTestExecutor(t, seededFake())

	// Today is 2024-03-15: inv-1 (due 2024-03-01) is overdue, inv-2 is not.
	res := e.Execute(context.Background(), "tenant-a", "get_overdue_invoices", json.RawMessage(`{}`))
	require.False(t, res.IsError)

	var payload struct {
		Count    int `json:"count"`
		Invoices []struct {
			ID string `json:"id"`
		} `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.Equal(t, 1, payload.Count)
	require.Equal(t, "inv-1", payload.Invoices[0].ID)
}

func TestExecuteUpdateInvoiceStatus(t *testing.T) {
	fake := seededFake()
	e := newTestExecutor(t, fake)

	res := e.Execute(context.Background(), "tenant-a", "update_invoice_status",
		json.RawMessage(`{"invoice_id": "inv-1", "status": "paid"}`))
	require.False(t, res.IsError)
	require.Equal(t, "paid", fake.Invoices[0].Status)

	// Another tenant's invoice is invisible.
	res = e.Execute(context.Background(), "tenant-a", "update_invoice_status",
		json.RawMessage(`{"invoice_id": "inv-3", "status": "paid"}`))
	require.True(t, res.IsError)
	require.Contains(t, res.Content, "not found")

	// Status outside the enum is a schema violation.
	res = e.Execute(context.Background(), "tenant-a", "update_invoice_status",
		json.RawMessage(`{"invoice_id": "inv-1", "status": "shredded"}`))
	require.True(t, res.IsError)
}

func TestExecuteStoreErrorBecomesErrorResult(t *testing.T) {
	fake := seededFake()
	fake.Err = context.DeadlineExceeded
	e := newTestExecutor(t, fake)

	res := e.Execute(context.Background(), "tenant-a", "query_invoices", json.RawMessage(`{}`))
	require.True(t, res.IsError)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.Content), &payload))
	require.NotEmpty(t, payload["error"])
}

func TestExecutePanicRecovery(t *testing.T) {
	registry, err := NewRegistry([]Descriptor{{
		Name:        "explode",
		Description: "always panics",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			panic("boom")
		},
	}})
	require.NoError(t, err)
	e := NewExecutor(registry, nil, nil)

	res := e.Execute(context.Background(), "tenant-a", "explode", json.RawMessage(`{}`))
	require.True(t, res.IsError)
	require.Contains(t, res.Content, "failed unexpectedly")
}

func TestRegistryToolDefs(t *testing.T) {
	catalog := &Catalog{Store: seededFake(), Now: fixedNow}
	registry, err := NewRegistry(catalog.Descriptors())
	require.NoError(t, err)

	defs := registry.ToolDefs()
	require.Len(t, defs, 17)
	names := make(map[string]bool, len(defs))
	for _, def := range defs {
		require.NotEmpty(t, def.Description)
		require.NotEmpty(t, def.InputSchema)
		names[def.Name] = true
	}
	require.True(t, names["query_invoices"])
	require.True(t, names["get_cash_position"])
	require.True(t, names["create_alert_rule"])
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	desc := Descriptor{
		Name:        "dup",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			return nil, nil
		},
	}
	_, err := NewRegistry([]Descriptor{desc, desc})
	require.Error(t, err)
}
