package compiler

import (
	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// InstancingMode selects how structural duplication is handled.
type InstancingMode string

const (
	// InstancingNone emits every mesh inline, duplicates included.
	InstancingNone InstancingMode = "none"
	// InstancingSelective groups meshes by geometry alone; members with
	// diverging materials carry a per-reference material override.
	InstancingSelective InstancingMode = "selective"
	// InstancingAll groups meshes by geometry and material, so only fully
	// identical meshes share a definition.
	InstancingAll InstancingMode = "all"
)

// Default option values shared by the CLI and the pipeline.
const (
	DefaultPrecision     = 2
	DefaultPrintWidth    = 120
	DefaultComponentName = "Model"
)

// Options configures one compile pass.
type Options struct {
	// AssetPath is the path the emitted component loads the asset from,
	// e.g. "/duck.glb". Required.
	AssetPath string

	// ComponentName is the exported component identifier. Default "Model".
	ComponentName string

	// KeepNames preserves sanitized original names as identifiers and emits
	// name props; otherwise identifiers are auto-numbered.
	KeepNames bool

	// KeepGroups disables pruning of empty wrapper groups.
	KeepGroups bool

	// Meta emits userData props and asset provenance details.
	Meta bool

	// Types emits TypeScript with a result-type declaration covering every
	// referenced node and material.
	Types bool

	// Shadows adds castShadow/receiveShadow to every mesh.
	Shadows bool

	// Precision is the number of fractional digits for emitted numbers.
	// Values rounding to the kind default are omitted entirely.
	Precision int

	// PrintWidth is the column after which element props wrap onto
	// separate lines.
	PrintWidth int

	// Instancing selects duplicate-geometry handling. Default none.
	Instancing InstancingMode

	// Debug appends compile statistics to the emitted header.
	Debug bool

	validated bool
}

// DefaultOptions returns Options with defaults applied for the given asset path.
func DefaultOptions(assetPath string) Options {
	return Options{
		AssetPath:     assetPath,
		ComponentName: DefaultComponentName,
		Precision:     DefaultPrecision,
		PrintWidth:    DefaultPrintWidth,
		Instancing:    InstancingNone,
	}
}

// Validate checks required fields and applies defaults.
// It is idempotent - calling it multiple times has the same effect as once.
func (o *Options) Validate() error {
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
		o.ComponentName = DefaultComponentName
	}
	if o.PrintWidth <= 0 {
		o.PrintWidth = DefaultPrintWidth
	}
	switch o.Instancing {
	case "":
		o.Instancing = InstancingNone
	case InstancingNone, InstancingSelective, InstancingAll:
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "invalid instancing mode: %q", o.Instancing)
	}
	o.validated = true
	return nil
}

// Compile walks the asset graph once, computes instancing equivalence
// classes, prunes structurally empty wrappers, and synthesizes the
// declarative component source.
//
// Compile performs no I/O and never logs. All errors are raised
// synchronously; on error the returned source is empty - there is no
// partial output. The same graph with the same options always produces
// byte-identical output.
func Compile(g *scene.Graph, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	tr, err := walk(g)
	if err != nil {
		return "", err
	}
	classes := dedupe(tr.meshes, opts.Instancing)
	tr = prune(tr, opts)

	return emit(g, tr, classes, opts)
}
