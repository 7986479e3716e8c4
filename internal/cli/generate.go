package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/pkg/cache"
	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
// File-based config provides the defaults; flags always win.
type generateOpts struct {
	output        string // output file path ("-" for stdout)
	loadPath      string // runtime asset path baked into the component
	componentName string
	keepNames     bool
	keepGroups    bool
	meta          bool
	types         bool
	shadows       bool
	precision     int
	printWidth    int
	instancing    string
	debug         bool
	refresh       bool
	noCache       bool
}

// newGenerateCmd creates the generate command, which runs the full
// load → compile → write pipeline for a single asset file.
func newGenerateCmd(cfg *Config) *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <asset-file>",
		Short: "Compile an asset file into a declarative component",
		Long: `Compile a 3D asset file into a declarative component source.

The output file name is derived from the asset name unless --output is given.
Pass --output - to print the component to stdout instead.

Examples:
  sceneforge generate model.glb                   # writes model.jsx
  sceneforge generate model.glb --types           # writes model.tsx
  sceneforge generate model.glb --instancing all  # instance duplicate meshes
  sceneforge generate model.glb -o -              # print to stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runGenerate(c.Context(), *cfg, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (- for stdout)")
	cmd.Flags().StringVar(&opts.loadPath, "load-path", "", "runtime asset path used inside the component (default: /<asset name>)")
	cmd.Flags().StringVarP(&opts.componentName, "name", "n", cfg.ComponentName, "exported component name")
	cmd.Flags().BoolVar(&opts.keepNames, "keep-names", cfg.KeepNames, "keep original node names as identifiers")
	cmd.Flags().BoolVar(&opts.keepGroups, "keep-groups", cfg.KeepGroups, "keep empty wrapper groups")
	cmd.Flags().BoolVar(&opts.meta, "meta", cfg.Meta, "emit node metadata as userData")
	cmd.Flags().BoolVarP(&opts.types, "types", "t", cfg.Types, "emit typed (.tsx) output")
	cmd.Flags().BoolVarP(&opts.shadows, "shadows", "s", cfg.Shadows, "emit castShadow/receiveShadow on meshes")
	cmd.Flags().IntVar(&opts.precision, "precision", cfg.Precision, "decimal places for numeric props")
	cmd.Flags().IntVar(&opts.printWidth, "print-width", cfg.PrintWidth, "line width before props wrap")
	cmd.Flags().StringVarP(&opts.instancing, "instancing", "i", cfg.Instancing, "instancing mode: none, selective, all")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "include stats in the generated header")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache reads")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

// runGenerate executes the pipeline and prints a status summary.
func runGenerate(ctx context.Context, cfg Config, opts generateOpts, assetPath string) error {
	logger := loggerFromContext(ctx)

	c, err := openCache(cfg, opts.noCache)
	if err != nil {
		logger.Warnf("Cache disabled: %v", err)
		c = cache.NewNullCache()
	}
	defer c.Close()

	runner := pipeline.NewRunner(c, nil, logger)
	pipeOpts := pipeline.Options{
		AssetPath:     assetPath,
		OutputPath:    opts.output,
		LoadPath:      opts.loadPath,
		ComponentName: opts.componentName,
		KeepNames:     opts.keepNames,
		KeepGroups:    opts.keepGroups,
		Meta:          opts.meta,
		Types:         opts.types,
		Shadows:       opts.shadows,
		Precision:     opts.precision,
		PrintWidth:    opts.printWidth,
		Instancing:    opts.instancing,
		Debug:         opts.debug,
		Refresh:       opts.refresh,
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Compiling %s...", assetPath))
	if opts.output != "-" {
		spinner.Start()
	}

	result, err := runner.Execute(ctx, pipeOpts)
	if opts.output != "-" {
		spinner.Stop()
	}
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		printError("%s", errors.UserMessage(err))
		return err
	}

	if opts.output == "-" {
		fmt.Print(result.Source)
		if !strings.HasSuffix(result.Source, "\n") {
			fmt.Println()
		}
		return nil
	}

	printSuccess("Compiled %s", StyleHighlight.Render(pipeOpts.ComponentName))
	printStats(result.Stats.NodeCount, result.Stats.MeshCount, result.CacheInfo.CompileHit)
	printFile(result.OutputPath)
	printNextStep("Preview it", fmt.Sprintf("sceneforge serve %s", filepath.Dir(assetPath)))
	return nil
}

// openCache builds the configured cache backend. Redis wins over the file
// cache when a URL is configured; noCache disables caching entirely.
func openCache(cfg Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		return cache.NewRedisCache(cfg.RedisURL)
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewFileCache(dir)
}
