package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/pkg/cache"
	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/gltf"
	"github.com/sceneforge/sceneforge/pkg/scene"
	"github.com/sceneforge/sceneforge/pkg/viz"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format   string // dot, svg or png
	output   string // output file path (stdout for dot if empty)
	detailed bool   // include geometry/material keys and transforms
	noCache  bool
}

// newGraphCmd creates the graph command, which renders an asset's node
// hierarchy as DOT, SVG, or PNG.
func newGraphCmd(cfg *Config) *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <asset-file>",
		Short: "Render the scene hierarchy as DOT, SVG, or PNG",
		Long: `Render an asset's node hierarchy as a graph.

The dot format prints to stdout by default; svg and png derive an output
file name from the asset unless --output is given.

Examples:
  sceneforge graph model.glb                     # DOT to stdout
  sceneforge graph model.glb --format svg        # writes model.svg
  sceneforge graph model.glb --format png -o out.png --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runGraph(c.Context(), *cfg, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "output format: dot, svg, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout for dot)")
	cmd.Flags().BoolVarP(&opts.detailed, "detailed", "d", false, "include geometry, material and transform details")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runGraph loads the asset, renders the requested format, and writes or
// prints the result. Rendered images are cached by graph hash.
func runGraph(ctx context.Context, cfg Config, opts graphOpts, assetPath string) error {
	logger := loggerFromContext(ctx)

	switch opts.format {
	case "dot", "svg", "png":
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "invalid format: %q (expected dot, svg or png)", opts.format)
	}

	g, err := gltf.Load(assetPath)
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}

	dot := viz.ToDOT(g, viz.Options{Detailed: opts.detailed})
	if opts.format == "dot" {
		if opts.output == "" || opts.output == "-" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(opts.output, []byte(dot), 0o644); err != nil {
			return err
		}
		printSuccess("Wrote graph")
		printFile(opts.output)
		return nil
	}

	c, err := openCache(cfg, opts.noCache)
	if err != nil {
		logger.Warnf("Cache disabled: %v", err)
		c = cache.NewNullCache()
	}
	defer c.Close()

	data, cached, err := renderCached(ctx, c, g, dot, opts)
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}

	output := opts.output
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(assetPath), filepath.Ext(assetPath))
		output = base + "." + opts.format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}

	printSuccess("Rendered %s graph", StyleHighlight.Render(opts.format))
	printStats(g.NodeCount(), len(g.Geometries), cached)
	printFile(output)
	return nil
}

// renderCached renders the DOT source to the requested image format,
// consulting the cache by graph hash first.
func renderCached(ctx context.Context, c cache.Cache, g *scene.Graph, dot string, opts graphOpts) ([]byte, bool, error) {
	keyer := cache.NewDefaultKeyer()
	keyOpts := cache.RenderKeyOpts{Format: opts.format, Detailed: opts.detailed}

	var key string
	if graphData, err := json.Marshal(g); err == nil {
		key = keyer.RenderKey(cache.Hash(graphData), keyOpts)
		if data, hit, err := c.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	var (
		data []byte
		err  error
	)
	switch opts.format {
	case "svg":
		data, err = viz.RenderSVG(dot)
	case "png":
		data, err = viz.RenderPNG(dot)
	}
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		_ = c.Set(ctx, key, data, cache.TTLRender)
	}
	return data, false, nil
}
