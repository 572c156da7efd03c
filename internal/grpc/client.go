package grpc

import (
	"context"
	"fmt"
	"io"

	"github.com/alfagnish/itemsvc/internal/items"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ItemStream is returned by WatchItems.
type ItemStream interface {
	Recv() (items.Item, error)
	io.Closer
}

// itemStreamAdapter wraps a raw client stream and decodes each message into
// an items.Item.
type itemStreamAdapter struct {
	stream grpc.ClientStream
	cancel context.CancelFunc
}

func (a *itemStreamAdapter) Recv() (items.Item, error) {
	msg := new(structpb.Struct)
	if err := a.stream.RecvMsg(msg); err != nil {
		return items.Item{}, err
	}
	return structToItem(msg)
}

func (a *itemStreamAdapter) Close() error {
	a.cancel()
	return nil
}

// Client talks to an ItemService over a single connection.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to addr with insecure transport credentials. Extra
// dial options are appended after the defaults.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// ListItems returns every item in store order.
func (c *Client) ListItems(ctx context.Context) ([]items.Item, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, methodListItems, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	list := make([]items.Item, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		it, err := structToItem(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	return list, nil
}

// GetItem fetches one item. A missing item is a codes.NotFound status error.
func (c *Client) GetItem(ctx context.Context, id int64) (items.Item, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodGetItem, wrapperspb.Int64(id), out); err != nil {
		return items.Item{}, err
	}
	return structToItem(out)
}

// CreateItem appends an item. A nil description lets the server pick the
// default.
func (c *Client) CreateItem(ctx context.Context, name string, description *string) (items.Item, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodCreateItem, createRequest(name, description), out); err != nil {
		return items.Item{}, err
	}
	return structToItem(out)
}

// WatchItems opens a stream of items created after the call. Close the
// stream to release it.
func (c *Client) WatchItems(ctx context.Context) (ItemStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.conn.NewStream(ctx, &itemServiceDesc.Streams[0], methodWatchItems)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		cancel()
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		return nil, err
	}
	return &itemStreamAdapter{stream: stream, cancel: cancel}, nil
}

// Health returns the serving status reported for the item service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Conn returns the underlying gRPC client connection.
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
