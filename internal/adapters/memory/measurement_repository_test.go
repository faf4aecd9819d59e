package memory

import (
	"context"
	"testing"
	"time"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

func makeMeasurement(tech string, ts time.Time) *domain.Measurement {
	return &domain.Measurement{
		Timestamp:  ts,
		Latitude:   35.7,
		Longitude:  51.4,
		Technology: tech,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewMeasurementRepository()
	ctx := context.Background()

	m := makeMeasurement("LTE", time.Now().UTC())
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID != 1 {
		t.Fatalf("expected first ID to be 1, got %d", m.ID)
	}

	got, err := repo.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Technology != "LTE" {
		t.Errorf("expected technology LTE, got %q", got.Technology)
	}

	got.Technology = "GSM"
	again, _ := repo.Get(ctx, m.ID)
	if again.Technology != "LTE" {
		t.Error("mutating a returned measurement changed the stored copy")
	}
}

func TestReturnedOptionalValuesAreCopies(t *testing.T) {
	repo := NewMeasurementRepository()
	ctx := context.Background()

	rsrp := -97.5
	m := makeMeasurement("LTE", time.Now().UTC())
	m.RSRP = &rsrp
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rsrp = -50
	got, err := repo.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if *got.RSRP != -97.5 {
		t.Fatalf("caller's value leaked into the store: %v", *got.RSRP)
	}

	*got.RSRP = -10
	listed, _, err := repo.List(ctx, domain.ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	*listed[0].RSRP = -20

	again, _ := repo.Get(ctx, m.ID)
	if *again.RSRP != -97.5 {
		t.Errorf("mutating a returned value changed the stored copy: %v", *again.RSRP)
	}
}

func TestList_OrderAndPagination(t *testing.T) {
	repo := NewMeasurementRepository()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_ = repo.Create(ctx, makeMeasurement("LTE", base.Add(time.Duration(i)*time.Hour)))
	}
	_ = repo.Create(ctx, makeMeasurement("GSM", base.Add(10*time.Hour)))

	page, total, err := repo.List(ctx, domain.ListFilter{Technology: "LTE", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page))
	}
	if !page[0].Timestamp.Equal(base.Add(3*time.Hour)) || !page[1].Timestamp.Equal(base.Add(2*time.Hour)) {
		t.Errorf("unexpected page order: %v, %v", page[0].Timestamp, page[1].Timestamp)
	}
}

func TestList_SameTimestampOrderedByID(t *testing.T) {
	repo := NewMeasurementRepository()
	ctx := context.Background()

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, makeMeasurement("LTE", ts))
	_ = repo.Create(ctx, makeMeasurement("LTE", ts))

	page, total, _ := repo.List(ctx, domain.ListFilter{Limit: 10})
	if total != 2 || len(page) != 2 {
		t.Fatalf("expected both measurements, got total=%d len=%d", total, len(page))
	}
	if page[0].ID != 2 || page[1].ID != 1 {
		t.Errorf("expected IDs [2 1], got [%d %d]", page[0].ID, page[1].ID)
	}
}

func TestDelete(t *testing.T) {
	repo := NewMeasurementRepository()
	ctx := context.Background()

	m := makeMeasurement("LTE", time.Now().UTC())
	_ = repo.Create(ctx, m)

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, m.ID); err != domain.ErrMeasurementNotFound {
		t.Errorf("expected ErrMeasurementNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, m.ID); err != domain.ErrMeasurementNotFound {
		t.Errorf("expected second delete to fail with ErrMeasurementNotFound, got %v", err)
	}

	_, total, _ := repo.List(ctx, domain.ListFilter{Limit: 10})
	if total != 0 {
		t.Errorf("expected deleted measurement to leave the index, total=%d", total)
	}
}

func TestCreateBatch_IDsAreNeverReused(t *testing.T) {
	repo := NewMeasurementRepository()
	ctx := context.Background()

	now := time.Now().UTC()
	first := makeMeasurement("LTE", now)
	_ = repo.Create(ctx, first)
	_ = repo.Delete(ctx, first.ID)

	batch := []*domain.Measurement{makeMeasurement("LTE", now), makeMeasurement("GSM", now)}
	if err := repo.CreateBatch(ctx, batch); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if batch[0].ID != 2 || batch[1].ID != 3 {
		t.Errorf("expected IDs 2 and 3, got %d and %d", batch[0].ID, batch[1].ID)
	}
}
