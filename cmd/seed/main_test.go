package main

import (
	"testing"
	"unicode/utf8"
)

func TestSampleBooks_FitColumnLimits(t *testing.T) {
	rows := sampleBooks(50)
	if len(rows) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			t.Fatalf("row %d: expected 3 columns, got %d", i, len(row))
		}
		for col, limit := range []int{255, 255, 1000} {
			s, ok := row[col].(string)
			if !ok || s == "" && col < 2 {
				t.Fatalf("row %d col %d: expected non-empty string, got %#v", i, col, row[col])
			}
			if utf8.RuneCountInString(s) > limit {
				t.Fatalf("row %d col %d exceeds %d chars", i, col, limit)
			}
		}
	}
}
