package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "polaris.measurements.v1.MeasurementService"

type CreateRequest struct {
	Measurement domain.MeasurementInput `json:"measurement"`
}

type GetRequest struct {
	ID int64 `json:"id"`
}

type ListRequest struct {
	Technology string     `json:"technology,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

type DeleteRequest struct {
	ID int64 `json:"id"`
}

type DeleteResponse struct{}

type BulkCreateRequest struct {
	Measurements []domain.MeasurementInput `json:"measurements"`
}

// MeasurementServiceServer is the server API for the measurement service.
type MeasurementServiceServer interface {
	Create(context.Context, *CreateRequest) (*domain.Measurement, error)
	Get(context.Context, *GetRequest) (*domain.Measurement, error)
	List(context.Context, *ListRequest) (*domain.Page, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	BulkCreate(context.Context, *BulkCreateRequest) (*domain.BulkResult, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary adapts a typed server method to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(MeasurementServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(MeasurementServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeasurementServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Create", MeasurementServiceServer.Create),
		unary("Get", MeasurementServiceServer.Get),
		unary("List", MeasurementServiceServer.List),
		unary("Delete", MeasurementServiceServer.Delete),
		unary("BulkCreate", MeasurementServiceServer.BulkCreate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "polaris/measurements/v1/measurements.json",
}

// RegisterMeasurementServiceServer registers srv on s.
func RegisterMeasurementServiceServer(s grpc.ServiceRegistrar, srv MeasurementServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}
