package model

import (
	"testing"
	"time"
)

func TestParseDocumentDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "document with timestamp",
			in:   "ПОПО-000527 от 03.01.2026 19:00:00",
			want: "2026-01-03",
			ok:   true,
		},
		{
			name: "document without timestamp",
			in:   "Перемещение товаров ЛМ00-001234 от 25.01.2026",
			want: "2026-01-25",
			ok:   true,
		},
		{
			name: "single digit day and month",
			in:   "от 3.1.2026",
			want: "2026-01-03",
			ok:   true,
		},
		{
			name: "iso fallback",
			in:   "export 2026-02-10 rev2",
			want: "2026-02-10",
			ok:   true,
		},
		{
			name: "no date",
			in:   "Итого",
			ok:   false,
		},
		{
			name: "empty",
			in:   "   ",
			ok:   false,
		},
		{
			name: "impossible date",
			in:   "от 31.02.2026",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDocumentDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseDocumentDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDocumentDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
			}
			if h, m, s := got.Clock(); h != 0 || m != 0 || s != 0 {
				t.Errorf("date must be day precision, got %v", got)
			}
		})
	}
}

func TestNormalizeDocument(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ПОПО-000527 от 03.01.2026 19:00:00", "ПОПО-000527 от 03.01.2026"},
		{"ПОПО-000527 от 03.01.2026 19:00", "ПОПО-000527 от 03.01.2026"},
		{"ПОПО-000527 от 03.01.2026", "ПОПО-000527 от 03.01.2026"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDocument(tt.in); got != tt.want {
			t.Errorf("NormalizeDocument(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12", "12", true},
		{"12.5", "12.5", true},
		{"12,5", "12.5", true},
		{"1 200", "1200", true},
		{"-3", "-3", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseQuantity(tt.in)
		if ok != tt.ok {
			t.Fatalf("ParseQuantity(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if ok && got.String() != tt.want {
			t.Errorf("ParseQuantity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRecordKeyMergesTimestampVariants(t *testing.T) {
	d := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	a := FlowRecord{Date: d, Document: "ПОПО-01 от 03.01.2026 19:00:00", NormDocument: NormalizeDocument("ПОПО-01 от 03.01.2026 19:00:00"), Item: "Коробка"}
	b := FlowRecord{Date: d, Document: "ПОПО-01 от 03.01.2026", NormDocument: NormalizeDocument("ПОПО-01 от 03.01.2026"), Item: "Коробка"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %+v vs %+v", a.Key(), b.Key())
	}
}
