package memory

import (
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// entry orders measurements newest first, then by descending ID.
type entry struct {
	m *domain.Measurement
}

func (e entry) Less(than btree.Item) bool {
	o := than.(entry)
	if !e.m.Timestamp.Equal(o.m.Timestamp) {
		return e.m.Timestamp.After(o.m.Timestamp)
	}
	return e.m.ID > o.m.ID
}

// MeasurementRepository implements domain.MeasurementRepository with in-memory storage
// This is perfect for development - no database setup needed
type MeasurementRepository struct {
	mu     sync.RWMutex
	byID   map[int64]*domain.Measurement
	index  *btree.BTree
	nextID int64
}

// NewMeasurementRepository creates an empty in-memory repository
func NewMeasurementRepository() *MeasurementRepository {
	return &MeasurementRepository{
		byID:   make(map[int64]*domain.Measurement),
		index:  btree.New(16),
		nextID: 1,
	}
}

// Create stores a measurement in memory and assigns its ID
func (r *MeasurementRepository) Create(ctx context.Context, m *domain.Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insert(m)
	return nil
}

// CreateBatch stores all measurements under a single lock so readers never
// observe a partial batch.
func (r *MeasurementRepository) CreateBatch(ctx context.Context, ms []*domain.Measurement) error {
	if err := ctx.Err(); err != nil {
		return &domain.BulkCreateError{Index: -1, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range ms {
		r.insert(m)
	}
	return nil
}

func (r *MeasurementRepository) insert(m *domain.Measurement) {
	m.ID = r.nextID
	r.nextID++

	stored := m.Clone()
	r.byID[stored.ID] = stored
	r.index.ReplaceOrInsert(entry{m: stored})
}

// Get retrieves a measurement by ID
func (r *MeasurementRepository) Get(ctx context.Context, id int64) (*domain.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrMeasurementNotFound
	}

	return m.Clone(), nil
}

// List walks the index in display order, counting every match and keeping
// the ones inside the requested page.
func (r *MeasurementRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Measurement, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		total   int64
		results = make([]*domain.Measurement, 0)
	)

	r.index.Ascend(func(i btree.Item) bool {
		m := i.(entry).m
		if !filter.Matches(m) {
			return true
		}
		if total >= int64(filter.Offset) && len(results) < filter.Limit {
			results = append(results, m.Clone())
		}
		total++
		return true
	})

	return results, total, nil
}

// Delete removes a measurement by ID
func (r *MeasurementRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.byID[id]
	if !exists {
		return domain.ErrMeasurementNotFound
	}

	r.index.Delete(entry{m: m})
	delete(r.byID, id)
	return nil
}

// Close is a no-op for the in-memory store
func (r *MeasurementRepository) Close() error {
	return nil
}

var _ domain.MeasurementRepository = (*MeasurementRepository)(nil)
