package sheets

import (
	"testing"

	sheetsv4 "google.golang.org/api/sheets/v4"
)

func ruleOnColumn(col int64) *sheetsv4.ConditionalFormatRule {
	return &sheetsv4.ConditionalFormatRule{
		Ranges: []*sheetsv4.GridRange{{
			StartColumnIndex: col,
			EndColumnIndex:   col + 1,
		}},
	}
}

func TestDeleteFormatRequestsTargetsOnlyROIColumn(t *testing.T) {
	rules := []*sheetsv4.ConditionalFormatRule{
		ruleOnColumn(1),              // unrelated column, index 0
		ruleOnColumn(roiColumnIndex), // index 1
		ruleOnColumn(roiColumnIndex), // index 2
	}

	reqs := deleteFormatRequests(7, rules)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 delete requests, got %d", len(reqs))
	}

	// Highest index first so earlier deletions don't shift later ones.
	wantIndexes := []int64{2, 1}
	for i, req := range reqs {
		del := req.DeleteConditionalFormatRule
		if del == nil {
			t.Fatalf("request %d is not a DeleteConditionalFormatRule", i)
		}
		if del.SheetId != 7 {
			t.Errorf("request %d: SheetId = %d, want 7", i, del.SheetId)
		}
		if del.Index != wantIndexes[i] {
			t.Errorf("request %d: Index = %d, want %d", i, del.Index, wantIndexes[i])
		}
	}
}

func TestDeleteFormatRequestsEmptyWhenNoRules(t *testing.T) {
	if reqs := deleteFormatRequests(7, nil); len(reqs) != 0 {
		t.Errorf("expected no delete requests for a sheet without rules, got %d", len(reqs))
	}
}

func TestMarginFormatRequests(t *testing.T) {
	reqs := marginFormatRequests(42)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}

	for i, req := range reqs {
		add := req.AddConditionalFormatRule
		if add == nil {
			t.Fatalf("request %d is not an AddConditionalFormatRule", i)
		}
		rule := add.Rule
		if len(rule.Ranges) != 1 {
			t.Fatalf("request %d: expected 1 range, got %d", i, len(rule.Ranges))
		}
		gr := rule.Ranges[0]
		if gr.SheetId != 42 {
			t.Errorf("request %d: SheetId = %d, want 42", i, gr.SheetId)
		}
		if gr.StartColumnIndex != roiColumnIndex || gr.EndColumnIndex != roiColumnIndex+1 {
			t.Errorf("request %d: column range [%d,%d), want [%d,%d)",
				i, gr.StartColumnIndex, gr.EndColumnIndex, roiColumnIndex, roiColumnIndex+1)
		}
		if gr.StartRowIndex != 1 {
			t.Errorf("request %d: StartRowIndex = %d, want 1 (skip header)", i, gr.StartRowIndex)
		}
		cond := rule.BooleanRule.Condition
		if cond.Type != "CUSTOM_FORMULA" {
			t.Errorf("request %d: condition type %q", i, cond.Type)
		}
	}

	highFormula := reqs[0].AddConditionalFormatRule.Rule.BooleanRule.Condition.Values[0].UserEnteredValue
	mediumFormula := reqs[1].AddConditionalFormatRule.Rule.BooleanRule.Condition.Values[0].UserEnteredValue
	if highFormula == mediumFormula {
		t.Error("high and medium rules share the same formula")
	}
}
