package grpc

import (
	"context"
	"log"
	"net"

	"github.com/alfagnish/itemsvc/internal/feed"
	"github.com/alfagnish/itemsvc/internal/items"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the item service.
const ServiceName = "items.v1.ItemService"

const (
	methodListItems  = "/" + ServiceName + "/ListItems"
	methodGetItem    = "/" + ServiceName + "/GetItem"
	methodCreateItem = "/" + ServiceName + "/CreateItem"
	methodWatchItems = "/" + ServiceName + "/WatchItems"
)

// ItemServiceServer is the server API for the item service. Messages are
// protobuf well-known types so no generated code is required.
type ItemServiceServer interface {
	ListItems(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetItem(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	CreateItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchItems(*emptypb.Empty, grpc.ServerStream) error
}

// itemService implements ItemServiceServer on top of the store and feed.
type itemService struct {
	store *items.Store
	hub   *feed.Hub
}

func (s *itemService) ListItems(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	list := s.store.List()
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(list))}
	for _, it := range list {
		out.Values = append(out.Values, structpb.NewStructValue(itemToStruct(it)))
	}
	return out, nil
}

func (s *itemService) GetItem(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	it, ok := s.store.Get(req.GetValue())
	if !ok {
		return nil, status.Error(codes.NotFound, "Item not found")
	}
	return itemToStruct(it), nil
}

func (s *itemService) CreateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, desc, err := createParams(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return itemToStruct(s.store.Append(name, desc)), nil
}

func (s *itemService) WatchItems(_ *emptypb.Empty, stream grpc.ServerStream) error {
	subID, ch, cancel := s.hub.Subscribe()
	defer cancel()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case it, ok := <-ch:
			if !ok {
				return status.Error(codes.Unavailable, "server shutting down")
			}
			if err := stream.SendMsg(itemToStruct(it)); err != nil {
				log.Printf("grpc watch send (subscriber %s): %v", subID, err)
				return err
			}
		}
	}
}

var itemServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ItemServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListItems", Handler: listItemsHandler},
		{MethodName: "GetItem", Handler: getItemHandler},
		{MethodName: "CreateItem", Handler: createItemHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchItems", Handler: watchItemsHandler, ServerStreams: true},
	},
	Metadata: "items/v1/items.proto",
}

func listItemsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ItemServiceServer).ListItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListItems}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ItemServiceServer).ListItems(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ItemServiceServer).GetItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetItem}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ItemServiceServer).GetItem(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func createItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ItemServiceServer).CreateItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCreateItem}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ItemServiceServer).CreateItem(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func watchItemsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ItemServiceServer).WatchItems(in, stream)
}

// Server owns the gRPC server instance, the item service and the standard
// health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer constructs a gRPC server and registers the item and health
// services.
func NewServer(store *items.Store, hub *feed.Hub, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	s.grpc.RegisterService(&itemServiceDesc, &itemService{store: store, hub: hub})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on l until the server is stopped.
func (s *Server) Serve(l net.Listener) error {
	return s.grpc.Serve(l)
}

// Stop marks the services as not serving and drains in-flight RPCs. Watch
// streams only end once the feed is closed or the client goes away, so close
// the hub first.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
