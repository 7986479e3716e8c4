package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sceneforge/sceneforge/pkg/cache"
	"github.com/sceneforge/sceneforge/pkg/errors"
)

// minimalAsset is a tiny but valid asset document: one scene, one mesh node,
// one primitive. Accessor data is never read by the loader.
const minimalAsset = `{
  "asset": {"version": "2.0", "generator": "testgen"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "Duck", "mesh": 0}],
  "meshes": [{"name": "DuckMesh", "primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"componentType": 5126, "count": 24, "type": "VEC3"}]
}`

func writeAsset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "duck.gltf")
	if err := os.WriteFile(path, []byte(minimalAsset), 0644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	return path
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	opts := Options{AssetPath: "models/duck.glb"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if opts.OutputPath != "duck.jsx" {
		t.Errorf("output path = %q, want duck.jsx", opts.OutputPath)
	}
	if opts.LoadPath != "/duck.glb" {
		t.Errorf("load path = %q, want /duck.glb", opts.LoadPath)
	}
	if opts.ComponentName != "Model" || opts.Instancing != "none" {
		t.Errorf("defaults not applied: %+v", opts)
	}

	// Types switches the extension
	tsx := Options{AssetPath: "duck.glb", Types: true}
	if err := tsx.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tsx.OutputPath != "duck.tsx" {
		t.Errorf("output path = %q, want duck.tsx", tsx.OutputPath)
	}
}

func TestOptions_Invalid(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Fatal("expected error for missing asset path")
	}
	bad := Options{AssetPath: "a.glb", Precision: -1}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Fatal("expected error for negative precision")
	}
}

func TestRunner_Execute(t *testing.T) {
	dir := t.TempDir()
	asset := writeAsset(t, dir)
	fc, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	runner := NewRunner(fc, nil, quietLogger())

	opts := Options{
		AssetPath:  asset,
		OutputPath: filepath.Join(dir, "Duck.jsx"),
		KeepNames:  true,
	}
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CacheInfo.LoadHit || result.CacheInfo.CompileHit {
		t.Error("first run must not hit the cache")
	}
	if result.Stats.NodeCount != 1 {
		t.Errorf("node count = %d, want 1", result.Stats.NodeCount)
	}
	if !strings.Contains(result.Source, "export function Model") {
		t.Errorf("source missing component:\n%s", result.Source)
	}
	if !strings.Contains(result.Source, "useGLTF('/duck.gltf')") {
		t.Errorf("source missing derived load path:\n%s", result.Source)
	}

	written, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(written) != result.Source {
		t.Error("written file must match compiled source")
	}

	// Second run hits both caches and produces identical output
	again, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute again: %v", err)
	}
	if !again.CacheInfo.LoadHit || !again.CacheInfo.CompileHit {
		t.Errorf("second run should hit caches: %+v", again.CacheInfo)
	}
	if again.Source != result.Source {
		t.Error("cached source must match")
	}

	// Refresh bypasses cache reads
	refresh := opts
	refresh.Refresh = true
	third, err := runner.Execute(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Execute refresh: %v", err)
	}
	if third.CacheInfo.LoadHit || third.CacheInfo.CompileHit {
		t.Error("refresh must bypass cache reads")
	}
}

func TestRunner_Execute_SkipWrite(t *testing.T) {
	dir := t.TempDir()
	asset := writeAsset(t, dir)
	runner := NewRunner(nil, nil, quietLogger())

	result, err := runner.Execute(context.Background(), Options{AssetPath: asset, OutputPath: "-"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OutputPath != "" {
		t.Errorf("output path = %q, want empty for skipped write", result.OutputPath)
	}
	if result.Source == "" {
		t.Error("source must still be compiled")
	}
}

func TestRunner_Execute_MissingAsset(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	_, err := runner.Execute(context.Background(), Options{AssetPath: filepath.Join(t.TempDir(), "missing.glb")})
	if err == nil {
		t.Fatal("expected error for missing asset")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeFileNotFound {
		t.Errorf("code = %v, want %v", code, errors.ErrCodeFileNotFound)
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "Model.jsx")

	if err := WriteOutput(path, []byte("first")); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "first" {
		t.Errorf("content = %q", data)
	}

	// Overwrite is atomic and leaves no temp files behind
	if err := WriteOutput(path, []byte("second")); err != nil {
		t.Fatalf("WriteOutput overwrite: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "second" {
		t.Errorf("content = %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}
