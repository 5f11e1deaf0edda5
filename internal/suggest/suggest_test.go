package suggest

import "testing"

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"Totals", "Totls", 1},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClosest(t *testing.T) {
	methods := []string{"csv", "excel", "excel_parts", "excel_sheets", "json", "jsonl", "sqlite", "parquet"}
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"exel", "excel", true},
		{"PARQUET", "parquet", true},
		{"jsn", "json", true},
		{"xml", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Closest(tt.name, methods)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Closest(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHint(t *testing.T) {
	if got := Hint("Totls", []string{"Summary", "Totals"}); got != " (did you mean Totals?)" {
		t.Errorf("Hint = %q", got)
	}
	if got := Hint("zzz", []string{"Summary"}); got != "" {
		t.Errorf("Hint = %q, want empty", got)
	}
}
