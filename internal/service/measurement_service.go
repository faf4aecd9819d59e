package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/metrics"
)

// MeasurementService validates requests and maps them onto the repository.
// It holds no mutable state of its own.
type MeasurementService struct {
	repo         domain.MeasurementRepository
	metrics      *metrics.Metrics
	now          func() time.Time
	maxListLimit int
	maxBulkSize  int
}

// Option customises a MeasurementService.
type Option func(*MeasurementService)

// WithMetrics records domain events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *MeasurementService) { s.metrics = m }
}

// WithClock replaces time.Now for bookkeeping timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MeasurementService) { s.now = now }
}

// WithMaxListLimit caps the page size a caller may request.
func WithMaxListLimit(n int) Option {
	return func(s *MeasurementService) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithMaxBulkSize caps the number of measurements in one bulk create.
func WithMaxBulkSize(n int) Option {
	return func(s *MeasurementService) {
		if n > 0 {
			s.maxBulkSize = n
		}
	}
}

// NewMeasurementService creates the service on top of repo
func NewMeasurementService(repo domain.MeasurementRepository, opts ...Option) *MeasurementService {
	s := &MeasurementService{
		repo:         repo,
		now:          time.Now,
		maxListLimit: domain.MaxListLimit,
		maxBulkSize:  domain.MaxBulkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the bookkeeping time at the precision every store keeps.
func (s *MeasurementService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create validates and persists a single measurement
func (s *MeasurementService) Create(ctx context.Context, in domain.MeasurementInput) (*domain.Measurement, error) {
	logger := log.Ctx(ctx)

	m, err := domain.NewMeasurement(in, s.stamp())
	if err != nil {
		logger.Warn().Err(err).Msg("rejected invalid measurement")
		return nil, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.storageFailure(logger, "create", err).
			Str("technology", m.Technology).
			Time("timestamp", m.Timestamp).
			Msg("failed to create measurement")
		return nil, err
	}

	s.metrics.MeasurementsCreated(1)
	logger.Info().
		Int64("id", m.ID).
		Str("technology", m.Technology).
		Time("timestamp", m.Timestamp).
		Msg("created measurement")

	return m, nil
}

// Get returns the measurement with the given ID
func (s *MeasurementService) Get(ctx context.Context, id int64) (*domain.Measurement, error) {
	logger := log.Ctx(ctx)

	m, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrMeasurementNotFound) {
		logger.Warn().Int64("id", id).Msg("measurement not found")
		return nil, err
	}
	if err != nil {
		s.storageFailure(logger, "get", err).Int64("id", id).Msg("failed to get measurement")
		return nil, err
	}

	logger.Info().Int64("id", id).Msg("retrieved measurement")
	return m, nil
}

// List returns one page of measurements matching filter, newest first
func (s *MeasurementService) List(ctx context.Context, filter domain.ListFilter) (*domain.Page, error) {
	logger := log.Ctx(ctx)

	filter, err := s.normalizeFilter(filter)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected invalid list filter")
		return nil, err
	}

	results, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.storageFailure(logger, "list", err).
			Str("technology", filter.Technology).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to list measurements")
		return nil, err
	}

	logger.Info().
		Str("technology", filter.Technology).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Int("returned", len(results)).
		Int64("total", total).
		Msg("listed measurements")

	return &domain.Page{Count: total, Results: results}, nil
}

func (s *MeasurementService) normalizeFilter(filter domain.ListFilter) (domain.ListFilter, error) {
	filter.Technology = strings.TrimSpace(filter.Technology)

	if filter.Limit == 0 {
		filter.Limit = domain.DefaultListLimit
	}
	if filter.Limit < 1 || filter.Limit > s.maxListLimit {
		return filter, &domain.ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d", s.maxListLimit),
		}
	}
	if filter.Offset < 0 {
		return filter, &domain.ValidationError{Field: "offset", Reason: "must not be negative"}
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return filter, &domain.ValidationError{Field: "start_date", Reason: "must not be after end_date"}
	}

	return filter, nil
}

// BulkCreate persists all inputs atomically. Every input is validated before
// any write; a failure anywhere leaves the store untouched.
func (s *MeasurementService) BulkCreate(ctx context.Context, inputs []domain.MeasurementInput) (*domain.BulkResult, error) {
	logger := log.Ctx(ctx)

	if len(inputs) > s.maxBulkSize {
		err := &domain.BulkCreateError{
			Index: -1,
			Err: &domain.ValidationError{
				Field:  "measurements",
				Reason: fmt.Sprintf("must contain at most %d items", s.maxBulkSize),
			},
		}
		s.metrics.BulkCreateFailed()
		logger.Warn().Int("count", len(inputs)).Err(err).Msg("rejected oversized bulk create")
		return nil, err
	}

	now := s.stamp()
	ms := make([]*domain.Measurement, len(inputs))
	for i, in := range inputs {
		m, err := domain.NewMeasurement(in, now)
		if err != nil {
			s.metrics.BulkCreateFailed()
			logger.Warn().Int("index", i).Int("count", len(inputs)).Err(err).Msg("rejected invalid measurement in bulk create")
			return nil, &domain.BulkCreateError{Index: i, Err: err}
		}
		ms[i] = m
	}

	if len(ms) == 0 {
		logger.Info().Msg("bulk create called with no measurements")
		return &domain.BulkResult{CreatedCount: 0, Results: ms}, nil
	}

	if err := s.repo.CreateBatch(ctx, ms); err != nil {
		var bulkErr *domain.BulkCreateError
		if !errors.As(err, &bulkErr) {
			bulkErr = &domain.BulkCreateError{Index: -1, Err: err}
		}
		s.metrics.BulkCreateFailed()
		s.storageFailure(logger, "bulk_create", err).
			Int("index", bulkErr.Index).
			Int("count", len(ms)).
			Msg("bulk create rolled back")
		return nil, bulkErr
	}

	s.metrics.MeasurementsCreated(len(ms))
	logger.Info().Int("count", len(ms)).Msg("bulk created measurements")

	return &domain.BulkResult{CreatedCount: len(ms), Results: ms}, nil
}

// Delete removes the measurement with the given ID
func (s *MeasurementService) Delete(ctx context.Context, id int64) error {
	logger := log.Ctx(ctx)

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, domain.ErrMeasurementNotFound) {
		logger.Warn().Int64("id", id).Msg("measurement not found")
		return err
	}
	if err != nil {
		s.storageFailure(logger, "delete", err).Int64("id", id).Msg("failed to delete measurement")
		return err
	}

	s.metrics.MeasurementDeleted()
	logger.Info().Int64("id", id).Msg("deleted measurement")
	return nil
}

// storageFailure starts a log event for a repository error: rejected input is
// a warning, anything else is an error and is counted.
func (s *MeasurementService) storageFailure(logger *zerolog.Logger, op string, err error) *zerolog.Event {
	if errors.Is(err, domain.ErrInvalidInput) {
		return logger.Warn().Err(err).Str("operation", op)
	}
	s.metrics.StorageError(op)
	return logger.Error().Err(err).Str("operation", op)
}

var _ domain.MeasurementService = (*MeasurementService)(nil)
