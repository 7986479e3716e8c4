// Package pipeline provides the core load → compile → write pipeline.
//
// This package implements the complete flow from an asset file on disk to a
// declarative component source, shared by the CLI and the preview server. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Parse the asset file into a scene graph
//  2. Compile: Walk, deduplicate, prune and emit the component source
//  3. Write: Atomically persist the source to the output path
//
// Load and compile results are cached by asset content hash, so repeated runs
// over an unchanged asset are instant.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    AssetPath: "model.glb",
//	    Types:     true,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.OutputPath)
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sceneforge/sceneforge/pkg/cache"
	"github.com/sceneforge/sceneforge/pkg/compiler"
	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// Options contains all configuration for the compile pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// AssetPath is the asset file to compile. Required.
	AssetPath string `json:"asset_path"`

	// OutputPath is where the component source is written. Empty derives the
	// path from the asset name; "-" skips the write stage entirely.
	OutputPath string `json:"output_path,omitempty"`

	// LoadPath is the path the emitted component loads the asset from at
	// runtime. Empty derives "/<asset file name>".
	LoadPath string `json:"load_path,omitempty"`

	// Compile options, mirroring the compiler's option set.
	ComponentName string `json:"component_name,omitempty"`
	KeepNames     bool   `json:"keep_names,omitempty"`
	KeepGroups    bool   `json:"keep_groups,omitempty"`
	Meta          bool   `json:"meta,omitempty"`
	Types         bool   `json:"types,omitempty"`
	Shadows       bool   `json:"shadows,omitempty"`
	Precision     int    `json:"precision,omitempty"`
	PrintWidth    int    `json:"print_width,omitempty"`
	Instancing    string `json:"instancing,omitempty"`
	Debug         bool   `json:"debug,omitempty"`

	// Refresh bypasses cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this execution.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent - calling it multiple times has the same effect as once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.AssetPath == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "asset path is required")
	}
	if o.Precision < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "precision must be >= 0, got %d", o.Precision)
	}
	if o.ComponentName == "" {
		o.ComponentName = compiler.DefaultComponentName
	}
	if o.PrintWidth <= 0 {
		o.PrintWidth = compiler.DefaultPrintWidth
	}
	if o.Instancing == "" {
		o.Instancing = string(compiler.InstancingNone)
	}
	if o.LoadPath == "" {
		o.LoadPath = "/" + filepath.Base(o.AssetPath)
	}
	if o.OutputPath == "" {
		o.OutputPath = o.deriveOutputPath()
	}
	o.validated = true
	return nil
}

// deriveOutputPath builds the default output file name next to the asset.
func (o *Options) deriveOutputPath() string {
	base := filepath.Base(o.AssetPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + o.OutputExt()
}

// OutputExt is the output file extension implied by the options.
func (o *Options) OutputExt() string {
	if o.Types {
		return ".tsx"
	}
	return ".jsx"
}

// CompilerOptions converts pipeline options into compiler options.
func (o *Options) CompilerOptions() compiler.Options {
	return compiler.Options{
		AssetPath:     o.LoadPath,
		ComponentName: o.ComponentName,
		KeepNames:     o.KeepNames,
		KeepGroups:    o.KeepGroups,
		Meta:          o.Meta,
		Types:         o.Types,
		Shadows:       o.Shadows,
		Precision:     o.Precision,
		PrintWidth:    o.PrintWidth,
		Instancing:    compiler.InstancingMode(o.Instancing),
		Debug:         o.Debug,
	}
}

// KeyOpts converts pipeline options into the cache key option set. Every
// field that changes the emitted source participates.
func (o *Options) KeyOpts() cache.OutputKeyOpts {
	return cache.OutputKeyOpts{
		AssetPath:     o.LoadPath,
		ComponentName: o.ComponentName,
		KeepNames:     o.KeepNames,
		KeepGroups:    o.KeepGroups,
		Meta:          o.Meta,
		Types:         o.Types,
		Shadows:       o.Shadows,
		Precision:     o.Precision,
		PrintWidth:    o.PrintWidth,
		Instancing:    o.Instancing,
		Debug:         o.Debug,
	}
}

// Result holds the output of a pipeline execution.
type Result struct {
	// Graph is the loaded scene graph.
	Graph *scene.Graph

	// AssetHash is the content hash of the asset file.
	AssetHash string

	// GraphHash is the content hash of the marshaled graph.
	GraphHash string

	// Source is the compiled component source.
	Source string

	// OutputPath is where the source was written, empty when writing was
	// skipped.
	OutputPath string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	MeshCount   int
	OutputBytes int
	LoadTime    time.Duration
	CompileTime time.Duration
	WriteTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit    bool // Whether the scene graph came from cache
	CompileHit bool // Whether the compiled source came from cache
}
