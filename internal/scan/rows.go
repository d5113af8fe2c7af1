package scan

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// asinMarker is the URL path marker that precedes the catalog key in a
// product link cell.
const asinMarker = "/dp/"

// ExtractASIN isolates the catalog identifier from a product link cell:
// the path segment following the /dp/ marker. A cell holding a bare
// identifier with no URL structure is used as-is; a URL without the
// marker yields "".
func ExtractASIN(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ""
	}
	idx := strings.LastIndex(cell, asinMarker)
	if idx < 0 {
		if strings.Contains(cell, "/") {
			return ""
		}
		return cell
	}
	rest := cell[idx+len(asinMarker):]
	if end := strings.IndexAny(rest, "/?"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// ParseMoney parses a currency cell such as "£12.99" or "1,299.50".
func ParseMoney(cell string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(cell)
	cleaned = strings.ReplaceAll(cleaned, "£", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty price cell")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparsable price %q: %w", cell, err)
	}
	return d, nil
}

// cellString safely extracts a string cell at the given column index.
func cellString(row []interface{}, index int) string {
	if len(row) > index && row[index] != nil {
		return fmt.Sprintf("%v", row[index])
	}
	return ""
}
