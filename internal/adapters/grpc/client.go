package grpc

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// Client calls a remote MeasurementService. Status codes are mapped back to
// domain errors so callers can use errors.Is as with the local service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(codecName))
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) Create(ctx context.Context, in domain.MeasurementInput) (*domain.Measurement, error) {
	out := new(domain.Measurement)
	if err := c.invoke(ctx, "Create", &CreateRequest{Measurement: in}, out); err != nil {
		return nil, fromStatus(err)
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*domain.Measurement, error) {
	out := new(domain.Measurement)
	if err := c.invoke(ctx, "Get", &GetRequest{ID: id}, out); err != nil {
		return nil, fromStatus(err)
	}
	return out, nil
}

func (c *Client) List(ctx context.Context, filter domain.ListFilter) (*domain.Page, error) {
	out := new(domain.Page)
	req := &ListRequest{
		Technology: filter.Technology,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if err := c.invoke(ctx, "List", req, out); err != nil {
		return nil, fromStatus(err)
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.invoke(ctx, "Delete", &DeleteRequest{ID: id}, new(DeleteResponse)); err != nil {
		return fromStatus(err)
	}
	return nil
}

func (c *Client) BulkCreate(ctx context.Context, inputs []domain.MeasurementInput) (*domain.BulkResult, error) {
	out := new(domain.BulkResult)
	var trailer metadata.MD
	if err := c.invoke(ctx, "BulkCreate", &BulkCreateRequest{Measurements: inputs}, out, grpc.Trailer(&trailer)); err != nil {
		index := -1
		if v := trailer.Get(bulkIndexTrailer); len(v) > 0 {
			if n, perr := strconv.Atoi(v[0]); perr == nil {
				index = n
			}
		}
		return nil, &domain.BulkCreateError{Index: index, Err: fromStatus(err)}
	}
	return out, nil
}

// fromStatus is the inverse of toStatus.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", domain.ErrMeasurementNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, st.Message())
	case codes.Internal:
		return fmt.Errorf("%w: %s", domain.ErrStorage, st.Message())
	default:
		return err
	}
}

var _ domain.MeasurementService = (*Client)(nil)
