package daemon

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/traitdex/traitdex/internal/assets"
	"github.com/traitdex/traitdex/internal/registry"
	"github.com/traitdex/traitdex/internal/store"
	"github.com/traitdex/traitdex/internal/types"
)

func startTestDaemon(t *testing.T) (*Daemon, *Client) {
	t.Helper()

	dir := t.TempDir()
	socketPath := filepath.Join(dir, "test.sock")

	st, err := store.New(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	d := New(socketPath, dir, assets.DefaultConfig(), registry.New(), st)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Shutdown)

	client, err := Connect(context.Background(), socketPath)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return d, client
}

func testRegistry() types.Registry {
	return types.Registry{
		"alpha": {
			{Display: `impl Terminate for <a href="...">Alpha</a>`, Types: []string{"alpha::Alpha"}},
		},
		"beta": {
			{Display: "impl Terminate for Beta", Synthetic: true, Types: []string{"beta::Beta"}},
		},
	}
}

func TestPublishAndQuery(t *testing.T) {
	_, client := startTestDaemon(t)
	ctx := context.Background()

	want := testRegistry()
	res, err := client.Publish(ctx, "core::Terminate", want)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.Modules != 2 {
		t.Errorf("Modules = %d, want 2", res.Modules)
	}

	q, err := client.Query(ctx, "core::Terminate")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !q.Found {
		t.Fatal("Query: trait not found after publish")
	}
	if diff := cmp.Diff(want, q.Registry); diff != "" {
		t.Errorf("registry mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryUnknownTrait(t *testing.T) {
	_, client := startTestDaemon(t)

	q, err := client.Query(context.Background(), "core::Nothing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if q.Found {
		t.Error("Query: unknown trait reported as found")
	}
}

func TestPublishReplacesPerModule(t *testing.T) {
	_, client := startTestDaemon(t)
	ctx := context.Background()

	if _, err := client.Publish(ctx, "core::Terminate", testRegistry()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// A second publish naming only alpha replaces alpha's entry and leaves
	// beta's untouched.
	update := types.Registry{
		"alpha": {{Display: "impl Terminate for AlphaV2", Types: []string{"alpha::AlphaV2"}}},
	}
	if _, err := client.Publish(ctx, "core::Terminate", update); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	q, err := client.Query(ctx, "core::Terminate")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(q.Registry) != 2 {
		t.Fatalf("modules = %d, want 2", len(q.Registry))
	}
	if q.Registry["alpha"][0].Display != "impl Terminate for AlphaV2" {
		t.Errorf("alpha entry not replaced: %q", q.Registry["alpha"][0].Display)
	}
	if len(q.Registry["beta"]) != 1 {
		t.Errorf("beta entry lost on partial publish")
	}
}

func TestList(t *testing.T) {
	_, client := startTestDaemon(t)
	ctx := context.Background()

	if _, err := client.Publish(ctx, "core::Terminate", testRegistry()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := client.Publish(ctx, "core::Flip", types.Registry{
		"gamma": {{Display: "impl Flip for Gamma", Types: []string{"gamma::Gamma"}}},
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	l, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"core::Flip", "core::Terminate"}, l.Traits); diff != "" {
		t.Errorf("traits mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha", "beta", "gamma"}, l.Modules); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSkipsLocalModule(t *testing.T) {
	_, client := startTestDaemon(t)
	ctx := context.Background()

	if _, err := client.Publish(ctx, "core::Terminate", testRegistry()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	r, err := client.Render(ctx, "core::Terminate", "alpha")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(r.HTML, "Alpha</a>") {
		t.Error("render includes local module's implementors")
	}
	if !strings.Contains(r.HTML, "impl Terminate for Beta") {
		t.Error("render missing other module's implementors")
	}
}

func TestRenderUnknownTrait(t *testing.T) {
	_, client := startTestDaemon(t)

	if _, err := client.Render(context.Background(), "core::Nothing", ""); err == nil {
		t.Error("Render: expected error for unknown trait")
	}
}

func TestStatus(t *testing.T) {
	_, client := startTestDaemon(t)
	ctx := context.Background()

	if _, err := client.Publish(ctx, "core::Terminate", testRegistry()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	s, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if s.Traits != 1 || s.Modules != 2 || s.Implementors != 2 {
		t.Errorf("Status = %+v, want 1 trait, 2 modules, 2 implementors", s)
	}
	if s.Publishes != 1 {
		t.Errorf("Publishes = %d, want 1", s.Publishes)
	}
	if s.Version == "" {
		t.Error("Status: empty version")
	}
}

func TestStop(t *testing.T) {
	d, client := startTestDaemon(t)

	if err := client.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not shut down after stop request")
	}
}

func TestPublishPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "test.sock")
	dbPath := filepath.Join(dir, "index.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	d := New(socketPath, dir, assets.DefaultConfig(), registry.New(), st)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	client, err := Connect(context.Background(), socketPath)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	want := testRegistry()
	if _, err := client.Publish(context.Background(), "core::Terminate", want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	client.Close()
	d.Shutdown()
	st.Close()

	st2, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New (reopen): %v", err)
	}
	defer st2.Close()

	d2 := New(socketPath, dir, assets.DefaultConfig(), registry.New(), st2)
	if err := d2.RestoreFromStore(); err != nil {
		t.Fatalf("RestoreFromStore: %v", err)
	}

	got, found := d2.registry.ImplementorsOf("core::Terminate")
	if !found {
		t.Fatal("trait missing after restart")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("registry mismatch after restart (-want +got):\n%s", diff)
	}
}
