package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// isoLayouts are tried in order. Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseISO parses an ISO-8601 date or date-time. A trailing Z or numeric
// offset is honoured; naive values are UTC.
func parseISO(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date-time", value)
}

// isoTime accepts the same forms as parseISO inside JSON bodies.
type isoTime time.Time

func (t *isoTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := parseISO(s)
	if err != nil {
		return err
	}
	*t = isoTime(parsed)
	return nil
}

// measurementRequest is the JSON body of a create. Unknown fields, id
// included, are ignored.
type measurementRequest struct {
	Timestamp  *isoTime `json:"timestamp"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Technology string   `json:"technology"`

	domain.NetworkContext
	domain.SignalQuality
	domain.Performance
}

func (req measurementRequest) toInput() domain.MeasurementInput {
	in := domain.MeasurementInput{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Technology:     req.Technology,
		NetworkContext: req.NetworkContext,
		SignalQuality:  req.SignalQuality,
		Performance:    req.Performance,
	}
	if req.Timestamp != nil {
		ts := time.Time(*req.Timestamp)
		in.Timestamp = &ts
	}
	return in
}

type bulkCreateRequest struct {
	Measurements []measurementRequest `json:"measurements"`
}

// listFilterFromQuery builds a filter from query parameters. An absent limit
// is left zero so the service applies its default.
func listFilterFromQuery(get func(string) string) (domain.ListFilter, error) {
	filter := domain.ListFilter{Technology: strings.TrimSpace(get("technology"))}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &filter.StartDate},
		{"end_date", &filter.EndDate},
	} {
		raw := get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseISO(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid %s: %w", p.name, err)
		}
		*p.dst = &t
	}

	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filter, fmt.Errorf("invalid limit: %q is not a positive integer", raw)
		}
		filter.Limit = n
	}

	if raw := get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid offset: %q is not a non-negative integer", raw)
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id: %q is not a positive integer", raw)
	}
	return id, nil
}
