// Package sheets wraps the Google Sheets service as the spreadsheet
// collaborator of the scan pipeline.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client struct {
	service *sheets.Service
}

func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{service: service}, nil
}

// ReadSheet returns all cell values in the given A1 range.
func (c *Client) ReadSheet(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return resp.Values, nil
}

// UpdateRange overwrites a contiguous cell range with the given values.
func (c *Client) UpdateRange(ctx context.Context, spreadsheetID, updateRange string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{Values: values}
	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, updateRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update range: %w", err)
	}
	return nil
}

// SheetTabs lists the worksheet tabs of the spreadsheet in order.
func (c *Client) SheetTabs(ctx context.Context, spreadsheetID string) ([]*sheets.SheetProperties, error) {
	resp, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	props := make([]*sheets.SheetProperties, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			props = append(props, s.Properties)
		}
	}
	return props, nil
}

// ConditionalFormats returns the existing conditional format rules of
// one worksheet, in rule-index order.
func (c *Client) ConditionalFormats(ctx context.Context, spreadsheetID string, sheetID int64) ([]*sheets.ConditionalFormatRule, error) {
	resp, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets(properties.sheetId,conditionalFormats)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get conditional formats: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.SheetId == sheetID {
			return s.ConditionalFormats, nil
		}
	}
	return nil, nil
}

// BatchUpdate applies structural requests (formatting and the like).
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to batch update: %w", err)
	}
	return nil
}
