package domain

import (
	"context"
	"time"
)

// Listing defaults and bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
	MaxBulkSize      = 1000
)

// ListFilter narrows a listing. Zero values mean "not filtered".
// StartDate and EndDate are inclusive bounds on Timestamp.
type ListFilter struct {
	Technology string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// Matches reports whether m passes the technology and date filters.
// Pagination is not considered.
func (f ListFilter) Matches(m *Measurement) bool {
	if f.Technology != "" && m.Technology != f.Technology {
		return false
	}
	if f.StartDate != nil && m.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && m.Timestamp.After(*f.EndDate) {
		return false
	}
	return true
}

// MeasurementRepository defines operations for storing/retrieving measurements
// This is a PORT - adapters (SQLite, Postgres, Memory) will implement it
type MeasurementRepository interface {
	// Create persists a measurement and sets its ID
	Create(ctx context.Context, m *Measurement) error

	// CreateBatch persists all measurements in one transaction.
	// On failure nothing is stored and the error is a *BulkCreateError.
	CreateBatch(ctx context.Context, ms []*Measurement) error

	// Get retrieves a specific measurement by ID
	Get(ctx context.Context, id int64) (*Measurement, error)

	// List returns one page ordered by timestamp descending, then ID descending,
	// together with the number of rows matching the filter before pagination.
	List(ctx context.Context, filter ListFilter) ([]*Measurement, int64, error)

	// Delete removes a measurement permanently
	Delete(ctx context.Context, id int64) error
}

// Page is one slice of a filtered listing.
type Page struct {
	Count   int64          `json:"count"`
	Results []*Measurement `json:"results"`
}

// BulkResult is the outcome of a successful batch insert.
type BulkResult struct {
	CreatedCount int            `json:"created_count"`
	Results      []*Measurement `json:"results"`
}

// MeasurementService describes the behaviour exposed to transport layers.
type MeasurementService interface {
	Create(ctx context.Context, in MeasurementInput) (*Measurement, error)
	Get(ctx context.Context, id int64) (*Measurement, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
	BulkCreate(ctx context.Context, inputs []MeasurementInput) (*BulkResult, error)
	Delete(ctx context.Context, id int64) error
}
