package daemon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/traitdex/traitdex/internal/assets"
	"github.com/traitdex/traitdex/pkg/protocol"
	"github.com/traitdex/traitdex/pkg/version"
)

func (d *Daemon) rpcHandler() jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(d.handleRequest)
}

func (d *Daemon) handleRequest(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case protocol.MethodPublish:
		return d.handlePublish(req)
	case protocol.MethodQuery:
		return d.handleQuery(req)
	case protocol.MethodList:
		return d.handleList()
	case protocol.MethodRender:
		return d.handleRender(req)
	case protocol.MethodStatus:
		return d.handleStatus()
	case protocol.MethodStop:
		return d.handleStop()
	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not found: " + req.Method,
		}
	}
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func (d *Daemon) handlePublish(req *jsonrpc2.Request) (interface{}, error) {
	var params protocol.PublishParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if params.Trait == "" {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "trait is required"}
	}

	d.ApplyDocument(&assets.Document{Trait: params.Trait, Registry: params.Registry})

	return &protocol.PublishResult{Modules: len(params.Registry)}, nil
}

func (d *Daemon) handleQuery(req *jsonrpc2.Request) (interface{}, error) {
	var params protocol.QueryParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}

	reg, found := d.registry.ImplementorsOf(params.Trait)
	return &protocol.QueryResult{Trait: params.Trait, Found: found, Registry: reg}, nil
}

func (d *Daemon) handleList() (interface{}, error) {
	return &protocol.ListResult{
		Traits:  d.registry.Traits(),
		Modules: d.registry.Modules(),
	}, nil
}

func (d *Daemon) handleRender(req *jsonrpc2.Request) (interface{}, error) {
	var params protocol.RenderParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}

	reg, found := d.registry.ImplementorsOf(params.Trait)
	if !found {
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "unknown trait: " + params.Trait,
		}
	}

	html, err := d.renderer.Section(params.Trait, reg, params.LocalModule)
	if err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}

	return &protocol.RenderResult{HTML: html}, nil
}

func (d *Daemon) handleStatus() (interface{}, error) {
	stats := d.registry.Stats()
	return &protocol.StatusResult{
		Version:       version.Version,
		UptimeSeconds: int64(d.Uptime().Seconds()),
		Traits:        stats.Traits,
		Modules:       stats.Modules,
		Implementors:  stats.Implementors,
		Publishes:     stats.Publishes,
	}, nil
}

func (d *Daemon) handleStop() (interface{}, error) {
	// Let the response flush before the socket goes away.
	go func() {
		time.Sleep(100 * time.Millisecond)
		d.Shutdown()
	}()
	return map[string]bool{"stopping": true}, nil
}
