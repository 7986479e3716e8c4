package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sceneforge/sceneforge/pkg/cache"
	"github.com/sceneforge/sceneforge/pkg/compiler"
	"github.com/sceneforge/sceneforge/pkg/gltf"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and preview server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

func (r *Runner) logger(opts *Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// Execute runs the complete load → compile → write pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(&opts)

	assetHash, err := cache.HashFile(opts.AssetPath)
	if err != nil {
		return nil, wrapFileError(err, opts.AssetPath)
	}
	result := &Result{AssetHash: assetHash}

	// Stage 1: Load
	loadStart := time.Now()
	g, loadHit, err := r.LoadWithCacheInfo(ctx, assetHash, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.MeshCount = len(g.Geometries)
	result.CacheInfo.LoadHit = loadHit

	// Compute graph hash for cache keys and visualization
	if graphData, err := json.Marshal(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	logger.Info("loaded asset",
		"nodes", result.Stats.NodeCount,
		"geometries", result.Stats.MeshCount,
		"cached", loadHit,
		"duration", result.Stats.LoadTime)

	// Stage 2: Compile
	compileStart := time.Now()
	source, compileHit, err := r.CompileWithCacheInfo(ctx, assetHash, g, opts)
	if err != nil {
		return nil, err
	}
	result.Source = source
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.OutputBytes = len(source)
	result.CacheInfo.CompileHit = compileHit

	logger.Info("compiled component",
		"component", opts.ComponentName,
		"bytes", result.Stats.OutputBytes,
		"cached", compileHit,
		"duration", result.Stats.CompileTime)

	// Stage 3: Write
	if opts.OutputPath != "-" {
		writeStart := time.Now()
		if err := WriteOutput(opts.OutputPath, []byte(source)); err != nil {
			return nil, wrapFileError(err, opts.OutputPath)
		}
		result.OutputPath = opts.OutputPath
		result.Stats.WriteTime = time.Since(writeStart)

		logger.Info("wrote output",
			"path", result.OutputPath,
			"duration", result.Stats.WriteTime)
	}

	return result, nil
}

// LoadWithCacheInfo loads the scene graph with caching and returns cache hit
// info. The cache key is the asset's content hash, so a changed file is
// always a miss.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, assetHash string, opts Options) (*scene.Graph, bool, error) {
	cacheKey := r.Keyer.GraphKey(assetHash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var g scene.Graph
			if err := json.Unmarshal(data, &g); err == nil {
				return &g, true, nil
			}
		}
	}

	g, err := gltf.Load(opts.AssetPath)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(g); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
	}
	return g, false, nil
}

// CompileWithCacheInfo compiles the graph with caching and returns cache hit
// info.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, assetHash string, g *scene.Graph, opts Options) (string, bool, error) {
	cacheKey := r.Keyer.OutputKey(assetHash, opts.KeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			return string(data), true, nil
		}
	}

	source, err := compiler.Compile(g, opts.CompilerOptions())
	if err != nil {
		return "", false, err
	}

	_ = r.Cache.Set(ctx, cacheKey, []byte(source), cache.TTLOutput)
	return source, false, nil
}
