package rest

import (
	"net/url"
	"testing"
	"time"
)

func TestParseISO(t *testing.T) {
	tehran := time.FixedZone("", 3*3600+1800)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-15T09:25:00Z", time.Date(2025, 1, 15, 9, 25, 0, 0, time.UTC)},
		{"2025-01-15T09:25:00.5Z", time.Date(2025, 1, 15, 9, 25, 0, 500000000, time.UTC)},
		{"2025-01-15T12:55:00+03:30", time.Date(2025, 1, 15, 12, 55, 0, 0, tehran)},
		{"2025-01-15T09:25:00", time.Date(2025, 1, 15, 9, 25, 0, 0, time.UTC)},
		{"2025-01-15T09:25", time.Date(2025, 1, 15, 9, 25, 0, 0, time.UTC)},
		{"2025-01-15 09:25:00", time.Date(2025, 1, 15, 9, 25, 0, 0, time.UTC)},
		{"2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := parseISO(tt.in)
		if err != nil {
			t.Errorf("parseISO(%q) failed: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseISO(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "not-a-date", "2025-13-01", "15/01/2025", "2025-01-15T25:00:00Z"} {
		if _, err := parseISO(bad); err == nil {
			t.Errorf("parseISO(%q) should fail", bad)
		}
	}
}

func TestListFilterFromQuery(t *testing.T) {
	q := url.Values{
		"technology": {" LTE "},
		"start_date": {"2025-01-01"},
		"end_date":   {"2025-01-31T23:59:59Z"},
		"limit":      {"20"},
		"offset":     {"40"},
	}

	filter, err := listFilterFromQuery(q.Get)
	if err != nil {
		t.Fatalf("listFilterFromQuery failed: %v", err)
	}
	if filter.Technology != "LTE" {
		t.Errorf("expected technology LTE, got %q", filter.Technology)
	}
	if filter.StartDate == nil || !filter.StartDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %v", filter.StartDate)
	}
	if filter.EndDate == nil || !filter.EndDate.Equal(time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("unexpected end date %v", filter.EndDate)
	}
	if filter.Limit != 20 || filter.Offset != 40 {
		t.Errorf("expected limit 20 offset 40, got %d %d", filter.Limit, filter.Offset)
	}

	empty, err := listFilterFromQuery(url.Values{}.Get)
	if err != nil {
		t.Fatalf("empty query failed: %v", err)
	}
	if empty.Limit != 0 || empty.StartDate != nil || empty.EndDate != nil {
		t.Errorf("expected zero filter, got %+v", empty)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-1", "abc", "9223372036854775808"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) should fail", bad)
		}
	}
}
