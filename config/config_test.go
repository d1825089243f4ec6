package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msto63/logpipe/core/log"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "logpipe.toml", `
min_level = "debug"
async = true
queue_capacity = 500

[[destination]]
kind = "console"
no_color = true

[[destination]]
kind = "file"
mode = "buffered"
buffer_size = 25
path = "app.log"
append = true
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.MinLevel != "debug" || !p.Async || p.QueueCapacity != 500 {
		t.Errorf("pipeline = %+v, want debug/async/500", p)
	}
	if len(p.Destinations) != 2 {
		t.Fatalf("loaded %d destinations, want 2", len(p.Destinations))
	}
	file := p.Destinations[1]
	if file.Kind != KindFile || file.Mode != "buffered" || file.BufferSize != 25 || !file.Append {
		t.Errorf("file destination = %+v", file)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "logpipe.yaml", `
min_level: warning
destinations:
  - kind: database
    path: logs.db
    pool_size: 2
  - kind: json
    path: app.jsonl
    mode: buffered
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.MinLevel != "warning" {
		t.Errorf("MinLevel = %q, want warning", p.MinLevel)
	}
	if len(p.Destinations) != 2 {
		t.Fatalf("loaded %d destinations, want 2", len(p.Destinations))
	}
	db := p.Destinations[0]
	if db.Kind != KindDatabase || db.Path != "logs.db" || db.PoolSize != 2 {
		t.Errorf("database destination = %+v", db)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "logpipe.ini", "min_level = debug")
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unsupported extension")
	}
}

func TestValidate(t *testing.T) {
	console := Destination{Kind: KindConsole}
	tests := []struct {
		name    string
		p       Pipeline
		wantErr string
	}{
		{
			name: "valid",
			p:    Pipeline{MinLevel: "information", Destinations: []Destination{console}},
		},
		{
			name:    "bad level",
			p:       Pipeline{MinLevel: "verbose", Destinations: []Destination{console}},
			wantErr: "verbose",
		},
		{
			name:    "negative queue capacity",
			p:       Pipeline{QueueCapacity: -1, Destinations: []Destination{console}},
			wantErr: "queue_capacity",
		},
		{
			name:    "no destinations",
			p:       Pipeline{},
			wantErr: "at least one destination",
		},
		{
			name:    "unknown kind",
			p:       Pipeline{Destinations: []Destination{{Kind: "syslog"}}},
			wantErr: "unknown kind",
		},
		{
			name:    "file without path",
			p:       Pipeline{Destinations: []Destination{{Kind: KindFile}}},
			wantErr: "requires a path",
		},
		{
			name:    "bad write mode",
			p:       Pipeline{Destinations: []Destination{{Kind: KindConsole, Mode: "batched"}}},
			wantErr: "write mode",
		},
		{
			name:    "negative buffer size",
			p:       Pipeline{Destinations: []Destination{{Kind: KindConsole, BufferSize: -5}}},
			wantErr: "buffer_size",
		},
		{
			name:    "negative pool size",
			p:       Pipeline{Destinations: []Destination{{Kind: KindDatabase, Path: "x.db", PoolSize: -1}}},
			wantErr: "pool_size",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildConsolePipeline(t *testing.T) {
	p := Pipeline{
		MinLevel:     "warning",
		Destinations: []Destination{{Kind: KindConsole, NoColor: true}},
	}
	factory, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer factory.Close(context.Background())

	logger := factory.CreateLogger("app")
	if logger.IsEnabled(log.LevelTrace) {
		t.Error("min_level warning should disable trace")
	}
	if !logger.IsEnabled(log.LevelError) {
		t.Error("min_level warning should keep error enabled")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	p := Pipeline{Destinations: []Destination{{Kind: "syslog"}}}
	if _, err := p.Build(); err == nil {
		t.Error("Build() should surface validation errors")
	}
}

func TestBuildFileDestinations(t *testing.T) {
	dir := t.TempDir()
	p := Pipeline{
		Destinations: []Destination{
			{Kind: KindFile, Path: filepath.Join(dir, "app.log")},
			{Kind: KindJSON, Path: filepath.Join(dir, "app.jsonl")},
		},
	}
	factory, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ctx := context.Background()
	factory.CreateLogger("app").Information(ctx, "started with pid {Pid}", 42)
	if err := factory.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	text, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("ReadFile(app.log) error = %v", err)
	}
	if !strings.Contains(string(text), "started with pid 42") {
		t.Errorf("app.log = %q, want the rendered message", string(text))
	}

	lines, err := os.ReadFile(filepath.Join(dir, "app.jsonl"))
	if err != nil {
		t.Fatalf("ReadFile(app.jsonl) error = %v", err)
	}
	if !strings.Contains(string(lines), `"Pid":42`) {
		t.Errorf("app.jsonl = %q, want the structured property", string(lines))
	}
}
