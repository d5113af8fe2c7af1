package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"arb-profit-bot/internal/ratelimit"
	"arb-profit-bot/internal/retry"
	"arb-profit-bot/internal/scan"
)

// Result columns written back per row: D through I.
const resultColumns = "D%d:I%d"

// Spreadsheet binds a Client to one spreadsheet and rate-limits every
// call. It is the scan.SheetService used by the orchestrator.
type Spreadsheet struct {
	client  *Client
	id      string
	limiter *ratelimit.Keyed
}

func NewSpreadsheet(client *Client, spreadsheetID string, limiter *ratelimit.Keyed) *Spreadsheet {
	return &Spreadsheet{
		client:  client,
		id:      spreadsheetID,
		limiter: limiter,
	}
}

func (s *Spreadsheet) Worksheets(ctx context.Context) ([]scan.Worksheet, error) {
	if err := s.limiter.Throttle(ctx, ratelimit.ServiceSheets); err != nil {
		return nil, err
	}
	props, err := s.client.SheetTabs(ctx, s.id)
	if err != nil {
		return nil, err
	}
	worksheets := make([]scan.Worksheet, 0, len(props))
	for _, p := range props {
		worksheets = append(worksheets, scan.Worksheet{Title: p.Title, ID: p.SheetId})
	}
	log.Debug().Int("count", len(worksheets)).Msg("Listed worksheets")
	return worksheets, nil
}

func (s *Spreadsheet) ReadRows(ctx context.Context, sheetTitle string) ([][]interface{}, error) {
	if err := s.limiter.Throttle(ctx, ratelimit.ServiceSheets); err != nil {
		return nil, err
	}
	readRange := fmt.Sprintf("'%s'!A1:Z1000", sheetTitle)
	rows, err := s.client.ReadSheet(ctx, s.id, readRange)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("sheet", sheetTitle).Int("rows", len(rows)).Msg("Read sheet rows")
	return rows, nil
}

// WriteRowResults fills the result columns of one row. The write goes
// through the bounded retry profile for sheet writes.
func (s *Spreadsheet) WriteRowResults(ctx context.Context, sheetTitle string, rowIndex int, r scan.RowResult) error {
	if err := s.limiter.Throttle(ctx, ratelimit.ServiceSheets); err != nil {
		return err
	}

	// rowIndex is zero-based; A1 notation is one-based.
	rowNum := rowIndex + 1
	updateRange := fmt.Sprintf("'%s'!"+resultColumns, sheetTitle, rowNum, rowNum)
	values := [][]interface{}{{
		"£" + r.SellPrice.StringFixed(2),
		r.ROI.StringFixed(2) + "%",
		"£" + r.Profit.StringFixed(2),
		r.MonthlySold,
		r.Sellers,
		"£" + r.MonthlyProfit.StringFixed(2),
	}}

	_, err := retry.WithRetry(ctx, retry.SheetWrite, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.UpdateRange(ctx, s.id, updateRange, values)
	})
	if err != nil {
		return fmt.Errorf("write results for row %d: %w", rowNum, err)
	}
	return nil
}

// ApplyMarginFormatting replaces the conditional formatting of the ROI
// column with the tier color rules. Existing rules on the column are
// deleted in the same batch so repeated scans never accumulate
// duplicates.
func (s *Spreadsheet) ApplyMarginFormatting(ctx context.Context, ws scan.Worksheet) error {
	if err := s.limiter.Throttle(ctx, ratelimit.ServiceSheets); err != nil {
		return err
	}
	existing, err := s.client.ConditionalFormats(ctx, s.id, ws.ID)
	if err != nil {
		return err
	}
	requests := append(deleteFormatRequests(ws.ID, existing), marginFormatRequests(ws.ID)...)
	return s.client.BatchUpdate(ctx, s.id, requests)
}

// roiColumnIndex is the zero-based index of the ROI column (E).
const roiColumnIndex = 4

// deleteFormatRequests removes every existing rule that targets the ROI
// column. Deletions run highest-index first so the remaining indexes
// stay valid as the batch executes.
func deleteFormatRequests(sheetID int64, rules []*sheetsv4.ConditionalFormatRule) []*sheetsv4.Request {
	var requests []*sheetsv4.Request
	for i := len(rules) - 1; i >= 0; i-- {
		if !targetsROIColumn(rules[i]) {
			continue
		}
		requests = append(requests, &sheetsv4.Request{
			DeleteConditionalFormatRule: &sheetsv4.DeleteConditionalFormatRuleRequest{
				SheetId: sheetID,
				Index:   int64(i),
			},
		})
	}
	return requests
}

func targetsROIColumn(rule *sheetsv4.ConditionalFormatRule) bool {
	if rule == nil {
		return false
	}
	for _, r := range rule.Ranges {
		if r != nil && r.StartColumnIndex == roiColumnIndex && r.EndColumnIndex == roiColumnIndex+1 {
			return true
		}
	}
	return false
}

// marginFormatRequests builds the conditional format rules for the ROI
// column: green above the high threshold, yellow above the medium one.
// Values are percent strings, so the conditions strip the suffix.
func marginFormatRequests(sheetID int64) []*sheetsv4.Request {
	columnRange := &sheetsv4.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    1,
		StartColumnIndex: roiColumnIndex,
		EndColumnIndex:   roiColumnIndex + 1,
	}

	rule := func(formula string, color *sheetsv4.Color) *sheetsv4.Request {
		return &sheetsv4.Request{
			AddConditionalFormatRule: &sheetsv4.AddConditionalFormatRuleRequest{
				Index: 0,
				Rule: &sheetsv4.ConditionalFormatRule{
					Ranges: []*sheetsv4.GridRange{columnRange},
					BooleanRule: &sheetsv4.BooleanRule{
						Condition: &sheetsv4.BooleanCondition{
							Type:   "CUSTOM_FORMULA",
							Values: []*sheetsv4.ConditionValue{{UserEnteredValue: formula}},
						},
						Format: &sheetsv4.CellFormat{BackgroundColor: color},
					},
				},
			},
		}
	}

	green := &sheetsv4.Color{Red: 0.72, Green: 0.88, Blue: 0.8}
	yellow := &sheetsv4.Color{Red: 1, Green: 0.95, Blue: 0.8}

	// Higher-priority rule first: a value above 15 matches green before
	// the yellow rule is considered.
	return []*sheetsv4.Request{
		rule(`=VALUE(SUBSTITUTE(E2,"%",""))>15`, green),
		rule(`=VALUE(SUBSTITUTE(E2,"%",""))>10`, yellow),
	}
}
