package ui

import "testing"

func TestListWindow(t *testing.T) {
	cases := []struct {
		name      string
		cursor    int
		total     int
		rows      int
		wantStart int
		wantEnd   int
	}{
		{"fits entirely", 3, 5, 20, 0, 5},
		{"cursor at top", 0, 100, 20, 0, 20},
		{"cursor centered", 50, 100, 20, 40, 60},
		{"cursor at bottom", 99, 100, 20, 80, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := listWindow(tc.cursor, tc.total, tc.rows)
			if start != tc.wantStart || end != tc.wantEnd {
				t.Fatalf("listWindow = (%d, %d), want (%d, %d)", start, end, tc.wantStart, tc.wantEnd)
			}
			if tc.cursor < start || tc.cursor >= end {
				t.Fatalf("cursor %d outside window (%d, %d)", tc.cursor, start, end)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q, want unchanged", got)
	}
	long := "aaaaaaaaaaaaaaaaaaaa"
	got := truncate(long, 10)
	if len([]rune(got)) != 11 {
		t.Fatalf("truncate length = %d, want 10 chars plus ellipsis", len([]rune(got)))
	}
}
