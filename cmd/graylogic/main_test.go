package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/link"
	"github.com/nerrad567/gray-logic-links/internal/metrics"
	"github.com/nerrad567/gray-logic-links/internal/storage"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
}

// writeConfig writes a config file and points GRAYLOGIC_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYLOGIC_CONFIG", configPath)
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidConfigValues verifies run rejects a config that fails validation.
func TestRun_InvalidConfigValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "empty database path",
			content: `
site:
  id: test-site
database:
  path: ""
`,
		},
		{
			name: "unknown storage backend",
			content: `
site:
  id: test-site
database:
  path: "` + filepath.Join(t.TempDir(), "test.db") + `"
storage:
  backend: etcd
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.content)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := run(ctx); err == nil {
				t.Fatal("run() should fail")
			}
		})
	}
}

// TestRun_StartupAndShutdown runs the core without MQTT or InfluxDB until
// the context expires.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, `
site:
  id: test-site

database:
  path: "`+filepath.Join(tmpDir, "test.db")+`"
  wal_mode: true
  busy_timeout: 5

storage:
  backend: sqlite

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stderr

api:
  host: "127.0.0.1"
  port: 19181
  timeouts:
    read: 5
    write: 5
    idle: 5

links:
  auto_links: true
`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("GRAYLOGIC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestSelectBackend(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		wantName string
		wantErr  error
	}{
		{name: "memory", backend: config.StorageMemory, wantName: "memory"},
		{name: "unknown", backend: "etcd", wantErr: storage.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := selectBackend(config.StorageConfig{Backend: tt.backend}, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("selectBackend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectBackend() error = %v", err)
			}
			if b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}

	if _, err := selectBackend(config.StorageConfig{Backend: config.StorageSQLite}, nil); err == nil {
		t.Error("selectBackend(sqlite, nil db) should fail")
	}
}

func TestCore_SelectStorageLoadsManagedProviders(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	items, err := storage.Open[item.Item](backend, item.Namespace)
	if err != nil {
		t.Fatalf("Open(items) error = %v", err)
	}
	if _, _, err := items.Put(ctx, "Hall_Light", item.Item{Name: "Hall_Light", Type: "Color"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	c := newCore(testLogger(), metrics.New())
	if _, ok := c.items.GetItem("Hall_Light"); ok {
		t.Fatal("item visible before storage was selected")
	}

	c.selectStorage(backend)

	if _, ok := c.items.GetItem("Hall_Light"); !ok {
		t.Error("item not loaded after storage was selected")
	}
	if _, ok := c.links.Managed(); !ok {
		t.Error("channel link registry has no managed provider")
	}
	if err := c.rules.Delete(ctx, "missing"); err == nil {
		t.Error("Delete(missing) should fail")
	}
}

func TestCore_DiscoveredThingsGetDefaultLinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newCore(testLogger(), metrics.New())
	c.selectStorage(storage.NewMemoryBackend())
	c.manager.Activate(ctx, true)
	defer c.manager.Deactivate()

	announcement := `[{"uid": "hue:bulb:kitchen", "channels": [
		{"uid": "hue:bulb:kitchen:color", "item_type": "Color"}
	]}]`
	if err := c.discovery.Apply("hue", []byte(announcement)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	uid, err := thing.ParseChannelUID("hue:bulb:kitchen:color")
	if err != nil {
		t.Fatalf("ParseChannelUID() error = %v", err)
	}
	want := link.NewItemChannelLink(link.DeriveItemName(uid), uid)
	if _, ok := c.managedLinks.Get(want.ID()); !ok {
		t.Fatalf("default link %s not created", want.ID())
	}

	if err := c.discovery.Apply("hue", nil); err != nil {
		t.Fatalf("Apply(empty) error = %v", err)
	}
	if _, ok := c.managedLinks.Get(want.ID()); ok {
		t.Error("default link kept after the thing was withdrawn")
	}
}

func TestCore_AdvancedChannelsAreNotLinked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newCore(testLogger(), metrics.New())
	c.selectStorage(storage.NewMemoryBackend())
	c.manager.Activate(ctx, true)
	defer c.manager.Deactivate()

	if err := c.discovery.ApplyChannelTypes("hue", []byte(`[{"uid": "hue:effect", "advanced": true}]`)); err != nil {
		t.Fatalf("ApplyChannelTypes() error = %v", err)
	}
	announcement := `[{"uid": "hue:bulb:kitchen", "channels": [
		{"uid": "hue:bulb:kitchen:effect", "channel_type_uid": "hue:effect", "item_type": "String"}
	]}]`
	if err := c.discovery.Apply("hue", []byte(announcement)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if n := len(c.managedLinks.GetAll()); n != 0 {
		t.Errorf("managed links = %d, want 0 for an advanced channel", n)
	}
}

func TestCore_PublishEvents(t *testing.T) {
	c := newCore(testLogger(), metrics.New())
	c.selectStorage(storage.NewMemoryBackend())

	var mu sync.Mutex
	var types []string
	c.publishEvents(event.PublisherFunc(func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, e.Type)
	}))

	if err := c.items.Add(context.Background(), item.Item{Name: "Desk_Lamp", Type: "Switch"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(types) != 1 || types[0] != item.ItemAddedEvent {
		t.Errorf("events = %v, want [%s]", types, item.ItemAddedEvent)
	}
}

func TestCore_Sizes(t *testing.T) {
	c := newCore(testLogger(), metrics.New())
	c.selectStorage(storage.NewMemoryBackend())

	sizes := c.sizes()
	if len(sizes) != 6 {
		t.Fatalf("sizes() has %d registries, want 6", len(sizes))
	}
	if sizes[c.types.Name()] == 0 {
		t.Error("core module types not counted")
	}
	if sizes[c.items.Name()] != 0 {
		t.Errorf("items = %d, want 0", sizes[c.items.Name()])
	}
}

type sizeRecorder struct {
	mu     sync.Mutex
	writes map[string]int
}

func (r *sizeRecorder) WriteRegistrySize(registry string, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes[registry] = size
}

func (r *sizeRecorder) get(registry string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.writes[registry]
	return n, ok
}

func TestSampleRegistrySizes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &sizeRecorder{writes: make(map[string]int)}

	done := make(chan struct{})
	go func() {
		sampleRegistrySizes(ctx, rec, 10*time.Millisecond, func() map[string]int {
			return map[string]int{"items": 3}
		})
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if n, ok := rec.get("items"); ok {
			if n != 3 {
				t.Errorf("items = %d, want 3", n)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("no registry size written")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sampler did not stop on cancel")
	}
}
