package daemon

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/traitdex/traitdex/internal/types"
	"github.com/traitdex/traitdex/pkg/protocol"
)

// Client is the thin RPC client used by the CLI to talk to a running host.
type Client struct {
	conn *jsonrpc2.Conn
}

// noopHandler discards server-initiated requests; the host never sends any.
type noopHandler struct{}

func (noopHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

// Connect dials the daemon socket. A connection failure means no hook is
// installed; callers fall back to the spool.
func Connect(ctx context.Context, socketPath string) (*Client, error) {
	netConn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s: %w", socketPath, err)
	}

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, noopHandler{})

	return &Client{conn: conn}, nil
}

func (c *Client) Publish(ctx context.Context, trait string, reg types.Registry) (*protocol.PublishResult, error) {
	var result protocol.PublishResult
	params := protocol.PublishParams{Trait: trait, Registry: reg}
	if err := c.conn.Call(ctx, protocol.MethodPublish, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Query(ctx context.Context, trait string) (*protocol.QueryResult, error) {
	var result protocol.QueryResult
	params := protocol.QueryParams{Trait: trait}
	if err := c.conn.Call(ctx, protocol.MethodQuery, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) List(ctx context.Context) (*protocol.ListResult, error) {
	var result protocol.ListResult
	if err := c.conn.Call(ctx, protocol.MethodList, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Render(ctx context.Context, trait, localModule string) (*protocol.RenderResult, error) {
	var result protocol.RenderResult
	params := protocol.RenderParams{Trait: trait, LocalModule: localModule}
	if err := c.conn.Call(ctx, protocol.MethodRender, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Status(ctx context.Context) (*protocol.StatusResult, error) {
	var result protocol.StatusResult
	if err := c.conn.Call(ctx, protocol.MethodStatus, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stop asks the daemon to shut down. The connection may drop before the
// response arrives; that still counts as success.
func (c *Client) Stop(ctx context.Context) error {
	var result map[string]bool
	if err := c.conn.Call(ctx, protocol.MethodStop, nil, &result); err != nil {
		select {
		case <-c.conn.DisconnectNotify():
			return nil
		default:
			return err
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
