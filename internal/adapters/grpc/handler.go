package grpc

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// bulkIndexTrailer carries the failing batch index of a rejected BulkCreate.
const bulkIndexTrailer = "x-bulk-index"

// MeasurementServiceHandler implements the gRPC MeasurementService
type MeasurementServiceHandler struct {
	service domain.MeasurementService
}

// NewMeasurementServiceHandler creates a new gRPC handler
func NewMeasurementServiceHandler(service domain.MeasurementService) *MeasurementServiceHandler {
	return &MeasurementServiceHandler{service: service}
}

// Create stores a single measurement
func (h *MeasurementServiceHandler) Create(ctx context.Context, req *CreateRequest) (*domain.Measurement, error) {
	m, err := h.service.Create(ctx, req.Measurement)
	if err != nil {
		return nil, toStatus(err)
	}
	return m, nil
}

// Get returns one measurement by ID
func (h *MeasurementServiceHandler) Get(ctx context.Context, req *GetRequest) (*domain.Measurement, error) {
	if req.ID < 1 {
		return nil, status.Error(codes.InvalidArgument, "id must be a positive integer")
	}

	m, err := h.service.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return m, nil
}

// List returns a filtered page, newest first
func (h *MeasurementServiceHandler) List(ctx context.Context, req *ListRequest) (*domain.Page, error) {
	page, err := h.service.List(ctx, domain.ListFilter{
		Technology: req.Technology,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return page, nil
}

// Delete removes one measurement by ID
func (h *MeasurementServiceHandler) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if req.ID < 1 {
		return nil, status.Error(codes.InvalidArgument, "id must be a positive integer")
	}

	if err := h.service.Delete(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteResponse{}, nil
}

// BulkCreate stores all measurements or none. On failure the failing index
// is sent in the x-bulk-index trailer.
func (h *MeasurementServiceHandler) BulkCreate(ctx context.Context, req *BulkCreateRequest) (*domain.BulkResult, error) {
	res, err := h.service.BulkCreate(ctx, req.Measurements)
	if err != nil {
		var bulkErr *domain.BulkCreateError
		if errors.As(err, &bulkErr) {
			if terr := grpc.SetTrailer(ctx, metadata.Pairs(bulkIndexTrailer, strconv.Itoa(bulkErr.Index))); terr != nil {
				log.Ctx(ctx).Warn().Err(terr).Msg("failed to set bulk index trailer")
			}
		}
		return nil, toStatus(err)
	}
	return res, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, domain.ErrMeasurementNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrStorage):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, domain.ErrBulkCreateFailed):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

var _ MeasurementServiceServer = (*MeasurementServiceHandler)(nil)
