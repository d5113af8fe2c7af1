package scan

import (
	"context"

	"github.com/shopspring/decimal"

	"arb-profit-bot/internal/keepa"
)

// Worksheet identifies one tab of the operator's spreadsheet.
type Worksheet struct {
	Title string
	ID    int64
}

// RowResult is the set of computed values written back to one row.
type RowResult struct {
	SellPrice     decimal.Decimal
	ROI           decimal.Decimal
	Profit        decimal.Decimal
	MonthlySold   int
	Sellers       int
	MonthlyProfit decimal.Decimal
}

// Item is one product that crossed a profit threshold during a scan.
type Item struct {
	Sheet         string
	Row           int
	ASIN          string
	BuyPrice      decimal.Decimal
	SellPrice     decimal.Decimal
	Profit        decimal.Decimal
	ROI           decimal.Decimal
	Margin        decimal.Decimal
	MonthlySold   int
	Sellers       int
	MonthlyProfit decimal.Decimal
}

// Summary accumulates the outcome of one scan invocation.
type Summary struct {
	High          []Item
	Medium        []Item
	Low           []Item
	RowsProcessed int
	Completed     bool
}

// Fetcher looks up product snapshots for a batch of identifiers. A
// failed batch yields an empty map, never an error.
type Fetcher interface {
	FetchBatch(ctx context.Context, asins []string) map[string]*keepa.Product
}

// SheetService is the spreadsheet collaborator consumed by the
// orchestrator.
type SheetService interface {
	Worksheets(ctx context.Context) ([]Worksheet, error)
	ReadRows(ctx context.Context, sheetTitle string) ([][]interface{}, error)
	WriteRowResults(ctx context.Context, sheetTitle string, rowIndex int, r RowResult) error
	ApplyMarginFormatting(ctx context.Context, ws Worksheet) error
}

// Notifier delivers progress and alert messages. Delivery is
// fire-and-forget; implementations swallow their own failures.
type Notifier interface {
	Notify(ctx context.Context, message string, isError bool)
}
