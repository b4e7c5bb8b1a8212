// Package protocol defines the RPC surface between the traitdex CLI and the
// host daemon.
package protocol

import "github.com/traitdex/traitdex/internal/types"

const (
	MethodPublish = "implementors/publish"
	MethodQuery   = "implementors/query"
	MethodList    = "implementors/list"
	MethodRender  = "implementors/render"
	MethodStatus  = "host/status"
	MethodStop    = "host/stop"
)

// PublishParams delivers one trait page's registry to the host hook.
type PublishParams struct {
	Trait    string         `json:"trait"`
	Registry types.Registry `json:"registry"`
}

type PublishResult struct {
	Modules int `json:"modules"`
}

type QueryParams struct {
	Trait string `json:"trait"`
}

type QueryResult struct {
	Trait    string         `json:"trait"`
	Found    bool           `json:"found"`
	Registry types.Registry `json:"registry,omitempty"`
}

type ListResult struct {
	Traits  []string `json:"traits"`
	Modules []string `json:"modules"`
}

type RenderParams struct {
	Trait       string `json:"trait"`
	LocalModule string `json:"local_module,omitempty"`
}

type RenderResult struct {
	HTML string `json:"html"`
}

type StatusResult struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Traits        int    `json:"traits"`
	Modules       int    `json:"modules"`
	Implementors  int    `json:"implementors"`
	Publishes     int64  `json:"publishes"`
}
