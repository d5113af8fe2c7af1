// Package scan drives the end-to-end sheet scan: reading candidate
// rows, batching identifiers against the pricing API, evaluating
// offers, computing profitability, writing results back, and alerting
// on threshold crossings. Progress is persisted so an interrupted scan
// resumes at the batch it was working on.
package scan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"arb-profit-bot/internal/cursor"
	"arb-profit-bot/internal/evaluate"
	"arb-profit-bot/internal/keepa"
	"arb-profit-bot/internal/profit"
)

const (
	defaultBatchSize     = 10
	defaultMaxRowsPerRun = 50
	// headerRows is the number of leading sheet rows that carry no data.
	headerRows = 1
)

// Config tunes a scan run.
type Config struct {
	BatchSize     int
	MaxRowsPerRun int
	// HighOnly suppresses alerts for every tier but the high one.
	HighOnly bool
}

// Orchestrator runs sheet scans. One scan at a time; concurrency
// guarding happens at the command surface.
type Orchestrator struct {
	fetcher  Fetcher
	sheet    SheetService
	notifier Notifier
	budget   *keepa.TokenBudget
	cursor   *cursor.Store
	logger   zerolog.Logger
	cfg      Config
}

func New(fetcher Fetcher, sheet SheetService, notifier Notifier, budget *keepa.TokenBudget, store *cursor.Store, cfg Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxRowsPerRun <= 0 {
		cfg.MaxRowsPerRun = defaultMaxRowsPerRun
	}
	return &Orchestrator{
		fetcher:  fetcher,
		sheet:    sheet,
		notifier: notifier,
		budget:   budget,
		cursor:   store,
		logger:   log.Logger,
		cfg:      cfg,
	}
}

// ScanAll scans every worksheet in order. It stops early when a sheet
// run terminates on token exhaustion or cancellation, leaving the
// cursor in place for a later invocation.
func (o *Orchestrator) ScanAll(ctx context.Context) (*Summary, error) {
	worksheets, err := o.sheet.Worksheets(ctx)
	if err != nil {
		o.notifier.Notify(ctx, fmt.Sprintf("Failed to list worksheets: %v", err), true)
		return nil, fmt.Errorf("list worksheets: %w", err)
	}

	total := &Summary{Completed: true}
	for _, ws := range worksheets {
		summary, err := o.ScanSheet(ctx, ws)
		if summary != nil {
			total.High = append(total.High, summary.High...)
			total.Medium = append(total.Medium, summary.Medium...)
			total.Low = append(total.Low, summary.Low...)
			total.RowsProcessed += summary.RowsProcessed
		}
		if err != nil {
			total.Completed = false
			return total, err
		}
		if summary != nil && !summary.Completed {
			total.Completed = false
			break
		}
	}
	return total, nil
}

// ScanSheet scans one worksheet, resuming from the persisted cursor
// when it names this sheet.
func (o *Orchestrator) ScanSheet(ctx context.Context, ws Worksheet) (*Summary, error) {
	rows, err := o.sheet.ReadRows(ctx, ws.Title)
	if err != nil {
		o.notifier.Notify(ctx, fmt.Sprintf("Failed to read sheet %s: %v", ws.Title, err), true)
		return nil, fmt.Errorf("read sheet %s: %w", ws.Title, err)
	}

	if err := o.sheet.ApplyMarginFormatting(ctx, ws); err != nil {
		log.Warn().Err(err).Str("sheet", ws.Title).Msg("Failed to apply column formatting")
	}

	start := headerRows
	if cur, err := o.cursor.Load(); err != nil {
		log.Warn().Err(err).Msg("Failed to load scan cursor, starting from the top")
	} else if cur != nil && cur.Sheet == ws.Title && cur.Row > start {
		start = cur.Row
		o.notifier.Notify(ctx, fmt.Sprintf("Resuming scan of %s from row %d", ws.Title, start+1), false)
	}

	summary := &Summary{}
	rowsThisRun := 0

	for batchStart := start; batchStart < len(rows); {
		// Cancellation and pausing happen only between batches; an
		// in-flight batch always completes.
		if err := ctx.Err(); err != nil {
			o.notifier.Notify(context.Background(), fmt.Sprintf("Scan of %s stopped at row %d", ws.Title, batchStart+1), false)
			return summary, err
		}

		if rowsThisRun >= o.cfg.MaxRowsPerRun {
			o.notifier.Notify(ctx, fmt.Sprintf("Processed %d rows, pausing for token refill", rowsThisRun), false)
			if _, err := o.budget.WaitUntilReady(ctx); err != nil {
				return summary, err
			}
			if !o.budget.HasCapacity() {
				o.notifier.Notify(ctx, fmt.Sprintf("Token budget still empty, stopping early; scan of %s will resume at row %d", ws.Title, batchStart+1), false)
				return summary, nil
			}
			rowsThisRun = 0
		}

		batchEnd := batchStart + o.cfg.BatchSize
		if batchEnd > len(rows) {
			batchEnd = len(rows)
		}

		// Persisted before the fetch so a crash mid-batch resumes at
		// the batch start. Re-running a batch just re-fetches and
		// re-writes the same rows.
		if err := o.cursor.Save(ws.Title, batchStart); err != nil {
			log.Error().Err(err).Str("sheet", ws.Title).Int("row", batchStart).Msg("Failed to persist scan cursor")
		}

		batch := o.parseBatch(rows[batchStart:batchEnd], batchStart)
		products := map[string]*keepa.Product{}
		if ids := identifiers(batch); len(ids) > 0 {
			products = o.fetcher.FetchBatch(ctx, ids)
		}

		for _, row := range batch {
			o.processRow(ctx, ws, row, products[row.ASIN], summary)
		}

		rowsThisRun += batchEnd - batchStart
		summary.RowsProcessed += batchEnd - batchStart
		batchStart = batchEnd
	}

	if err := o.cursor.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear scan cursor")
	}
	summary.Completed = true
	o.notifier.Notify(ctx, fmt.Sprintf("Completed scan of %s: %d rows, %d high / %d medium / %d low profit items",
		ws.Title, summary.RowsProcessed, len(summary.High), len(summary.Medium), len(summary.Low)), false)

	log.Info().
		Str("sheet", ws.Title).
		Int("rows", summary.RowsProcessed).
		Int("high", len(summary.High)).
		Int("medium", len(summary.Medium)).
		Int("low", len(summary.Low)).
		Msg("Sheet scan complete")

	return summary, nil
}

type rowInput struct {
	Index    int // zero-based sheet row index
	ASIN     string
	BuyPrice decimal.Decimal
}

// parseBatch extracts the identifier and cost from each physical row.
// Rows with a blank identifier are skipped silently; rows with an
// unparsable cost are skipped with a log.
func (o *Orchestrator) parseBatch(rows [][]interface{}, offset int) []rowInput {
	var batch []rowInput
	for i, row := range rows {
		index := offset + i
		asin := ExtractASIN(cellString(row, 0))
		if asin == "" {
			continue
		}
		buy, err := ParseMoney(cellString(row, 2))
		if err != nil {
			log.Warn().Err(err).Int("row", index+1).Msg("Skipping row with unparsable buy price")
			continue
		}
		batch = append(batch, rowInput{Index: index, ASIN: asin, BuyPrice: buy})
	}
	return batch
}

func identifiers(batch []rowInput) []string {
	seen := make(map[string]struct{}, len(batch))
	var ids []string
	for _, row := range batch {
		if _, ok := seen[row.ASIN]; ok {
			continue
		}
		seen[row.ASIN] = struct{}{}
		ids = append(ids, row.ASIN)
	}
	return ids
}

// processRow evaluates one product and writes its results back. Every
// failure here is row-local: logged, and the scan moves on.
func (o *Orchestrator) processRow(ctx context.Context, ws Worksheet, row rowInput, product *keepa.Product, summary *Summary) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("asin", row.ASIN).
				Int("row", row.Index+1).
				Msg("Row processing panicked, continuing scan")
		}
	}()

	if product == nil {
		log.Debug().Str("asin", row.ASIN).Int("row", row.Index+1).Msg("No product data for row")
		return
	}

	sellPrice, sellers := evaluate.SellPrice(o.logger, product)
	result := profit.Calculate(row.BuyPrice, sellPrice, product.FBAFees)
	margin := profit.Margin(result.Profit, sellPrice)
	monthly := profit.Monthly(result.Profit, product.MonthlySold, sellers)

	log.Info().
		Str("asin", row.ASIN).
		Str("buy", row.BuyPrice.String()).
		Str("sell", sellPrice.String()).
		Str("profit", result.Profit.String()).
		Str("roi", result.ROI.String()).
		Str("margin", margin.String()).
		Int("sellers", sellers).
		Int("monthly_sold", product.MonthlySold).
		Msg("Row evaluated")

	writeErr := o.sheet.WriteRowResults(ctx, ws.Title, row.Index, RowResult{
		SellPrice:     sellPrice,
		ROI:           result.ROI,
		Profit:        result.Profit,
		MonthlySold:   product.MonthlySold,
		Sellers:       sellers,
		MonthlyProfit: monthly,
	})
	if writeErr != nil {
		log.Error().Err(writeErr).Str("asin", row.ASIN).Int("row", row.Index+1).Msg("Failed to write row results")
	}

	item := Item{
		Sheet:         ws.Title,
		Row:           row.Index,
		ASIN:          row.ASIN,
		BuyPrice:      row.BuyPrice,
		SellPrice:     sellPrice,
		Profit:        result.Profit,
		ROI:           result.ROI,
		Margin:        margin,
		MonthlySold:   product.MonthlySold,
		Sellers:       sellers,
		MonthlyProfit: monthly,
	}

	switch classify(margin, result.Profit) {
	case TierHigh:
		summary.High = append(summary.High, item)
		o.notifier.Notify(ctx, alertMessage("HIGH PROFIT", item), false)
	case TierMedium:
		summary.Medium = append(summary.Medium, item)
		if !o.cfg.HighOnly {
			o.notifier.Notify(ctx, alertMessage("MEDIUM PROFIT", item), false)
		}
	case TierLow:
		summary.Low = append(summary.Low, item)
		if !o.cfg.HighOnly {
			o.notifier.Notify(ctx, alertMessage("LOW PROFIT", item), false)
		}
	}
}

func alertMessage(label string, item Item) string {
	return fmt.Sprintf("%s: %s (%s row %d) buy £%s sell £%s profit £%s margin %s%% roi %s%%",
		label, item.ASIN, item.Sheet, item.Row+1,
		item.BuyPrice, item.SellPrice, item.Profit, item.Margin, item.ROI)
}
