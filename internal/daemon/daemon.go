// Package daemon runs the documentation host: it owns the accumulated
// registry, persists publishes, and serves the RPC surface over a unix
// socket. The daemon is the installed hook of the delivery contract; while
// it is down, publishers fall back to the spool.
package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/traitdex/traitdex/internal/assets"
	"github.com/traitdex/traitdex/internal/logger"
	"github.com/traitdex/traitdex/internal/registry"
	"github.com/traitdex/traitdex/internal/render"
	"github.com/traitdex/traitdex/internal/spool"
	"github.com/traitdex/traitdex/internal/store"
	"github.com/traitdex/traitdex/internal/watcher"
)

var log = logger.ForComponent("daemon")

type Daemon struct {
	socketPath string
	dataDir    string
	assetsCfg  assets.Config

	registry *registry.Registry
	store    *store.Store
	renderer *render.Renderer

	listener     net.Listener
	conns        map[*jsonrpc2.Conn]struct{}
	connMu       sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

// New wires the host together. The store may be nil, in which case publishes
// are held in memory only.
func New(socketPath, dataDir string, assetsCfg assets.Config, reg *registry.Registry, st *store.Store) *Daemon {
	return &Daemon{
		socketPath: socketPath,
		dataDir:    dataDir,
		assetsCfg:  assetsCfg,
		registry:   reg,
		store:      st,
		renderer:   render.New(),
		conns:      make(map[*jsonrpc2.Conn]struct{}),
		shutdown:   make(chan struct{}),
		startTime:  time.Now(),
	}
}

// RestoreFromStore loads every persisted registry into the in-memory view.
func (d *Daemon) RestoreFromStore() error {
	if d.store == nil {
		return nil
	}

	all, err := d.store.LoadAll()
	if err != nil {
		return fmt.Errorf("restore from store: %w", err)
	}
	for trait, reg := range all {
		d.registry.Apply(trait, reg)
	}

	log.Info("registry restored", "traits", len(all))
	return nil
}

// DrainSpool applies documents buffered while no daemon was running. This is
// the host reading its pending slot once on initialization.
func (d *Daemon) DrainSpool(sp *spool.Spool) error {
	docs, err := sp.Drain()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		d.ApplyDocument(doc)
	}

	if len(docs) > 0 {
		log.Info("spool drained", "documents", len(docs))
	}
	return nil
}

// ApplyDocument is the installed hook: every delivery path, RPC, spool
// drain, and asset reload, lands here. Malformed registries are applied
// as-is; validation is the generator's job.
func (d *Daemon) ApplyDocument(doc *assets.Document) {
	if err := doc.Registry.Validate(); err != nil {
		log.Warn("registry violates generator invariants, applying as-is",
			"trait", doc.Trait, "error", err)
	}

	d.registry.Apply(doc.Trait, doc.Registry)

	if d.store != nil {
		if err := d.store.SaveRegistry(doc.Trait, doc.Registry); err != nil {
			log.Error("failed to persist publish", "trait", doc.Trait, "error", err)
		}
	}
}

// ReloadAssets scans the data directory and applies every registration
// asset found there.
func (d *Daemon) ReloadAssets() error {
	if d.dataDir == "" {
		return nil
	}

	paths, err := assets.Scan(d.dataDir, d.assetsCfg)
	if err != nil {
		return err
	}

	for _, path := range paths {
		doc, err := assets.Read(path, d.assetsCfg)
		if err != nil {
			log.Warn("skipping unreadable asset", "path", path, "error", err)
			continue
		}
		d.ApplyDocument(doc)
	}

	log.Info("assets loaded", "count", len(paths))
	return nil
}

// HandleFileEvents is the watcher callback: changed registration assets are
// re-read and re-applied. Deletes are ignored; a module disappearing from
// the docs build is handled by the generator re-publishing its traits.
func (d *Daemon) HandleFileEvents(events []watcher.FileEvent) {
	for _, event := range events {
		if event.Type == watcher.EventDelete {
			continue
		}

		rel, err := filepath.Rel(d.dataDir, event.Path)
		if err != nil || !d.assetsCfg.Matches(rel) {
			continue
		}

		doc, err := assets.Read(event.Path, d.assetsCfg)
		if err != nil {
			log.Warn("skipping changed asset", "path", event.Path, "error", err)
			continue
		}
		d.ApplyDocument(doc)
	}
}

// Start begins accepting connections. It does not block; callers wait for
// signals or Done.
func (d *Daemon) Start() error {
	if err := os.RemoveAll(d.socketPath); err != nil {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	d.listener = listener

	if err := os.Chmod(d.socketPath, 0700); err != nil {
		listener.Close()
		return fmt.Errorf("failed to chmod socket: %w", err)
	}

	go d.acceptConnections()

	log.Info("daemon listening", "socket", d.socketPath)
	return nil
}

func (d *Daemon) acceptConnections() {
	for {
		netConn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
				continue
			}
		}

		stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
		conn := jsonrpc2.NewConn(context.Background(), stream, d.rpcHandler())

		d.connMu.Lock()
		d.conns[conn] = struct{}{}
		d.connMu.Unlock()

		go func() {
			<-conn.DisconnectNotify()
			d.connMu.Lock()
			delete(d.conns, conn)
			d.connMu.Unlock()
		}()
	}
}

// Done is closed when the daemon has been asked to shut down.
func (d *Daemon) Done() <-chan struct{} {
	return d.shutdown
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		log.Info("daemon shutting down")
		close(d.shutdown)

		if d.listener != nil {
			d.listener.Close()
		}

		d.connMu.Lock()
		for conn := range d.conns {
			conn.Close()
		}
		d.connMu.Unlock()

		os.Remove(d.socketPath)
	})
}

func (d *Daemon) SocketPath() string {
	return d.socketPath
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}
