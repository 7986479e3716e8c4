// Package scene defines the in-memory asset graph produced by loading a 3D
// scene-description file.
//
// The graph is a forest of [Node] values overlaid with a non-tree edge set of
// shared-entity references: many nodes may reference the same [Geometry] or
// [Material] by key. Shared entities are owned by the [Graph] and held in
// key-indexed registries; nodes only carry keys, never embedded copies. This
// keeps ownership strictly top-down and cycle-free.
//
// A Graph is a passive value. Loaders (see package gltf) populate it, and the
// compiler (see package compiler) consumes it without mutating it, so separate
// compiles over separate graphs are safe to run concurrently.
package scene

// Graph is the fully loaded asset: scene roots plus registries of shared
// entities. The zero value is not usable - use New to create a Graph with
// initialized registries.
type Graph struct {
	Roots []*Node // scene hierarchy roots, in document order

	Geometries map[string]*Geometry
	Materials  map[string]*Material
	Skins      map[string]*Skin
	Cameras    map[string]*Camera
	Lights     map[string]*Light

	// Animations are emitted as a flat list independent of node nesting.
	Animations []AnimationClip

	Asset Provenance
}

// New creates an empty Graph with initialized entity registries.
func New() *Graph {
	return &Graph{
		Geometries: make(map[string]*Geometry),
		Materials:  make(map[string]*Material),
		Skins:      make(map[string]*Skin),
		Cameras:    make(map[string]*Camera),
		Lights:     make(map[string]*Light),
	}
}

// NodeCount returns the total number of nodes reachable from the roots.
func (g *Graph) NodeCount() int {
	count := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		count++
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range g.Roots {
		walk(r)
	}
	return count
}

// Provenance records where the asset came from, used for the emitted
// metadata header.
type Provenance struct {
	Source    string // file name or path the asset was loaded from
	Generator string // authoring tool recorded in the asset, if any
	Copyright string // copyright notice recorded in the asset, if any
}

// Geometry is a mesh's vertex/index data, identified by a loader-assigned key.
// Two nodes referencing geometries with identical keys are structurally
// interchangeable for instancing purposes. The compiler never touches buffer
// contents; counts are carried for diagnostics only.
type Geometry struct {
	Key          string
	Name         string // original name from the asset, possibly empty
	VertexCount  int
	IndexCount   int
	MorphTargets int // number of morph targets, 0 for rigid geometry
}

// Material holds the shading parameters referenced by mesh nodes.
// Shading is the target framework's material class (e.g.
// "MeshStandardMaterial", "MeshPhysicalMaterial", "MeshBasicMaterial") and
// participates in the emitted type declarations.
type Material struct {
	Key         string
	Name        string
	Shading     string
	DoubleSided bool
	Transparent bool
}

// Skin binds a skinned mesh to its skeleton.
type Skin struct {
	Key    string
	Name   string
	Joints int // number of joint nodes
}

// Camera projection kinds.
const (
	ProjectionPerspective  = "perspective"
	ProjectionOrthographic = "orthographic"
)

// Camera holds the projection parameters referenced by camera nodes.
type Camera struct {
	Key        string
	Name       string
	Projection string // ProjectionPerspective or ProjectionOrthographic

	// Perspective parameters. Fov is in degrees, matching the target
	// framework's convention.
	Fov    float64
	Aspect float64

	// Orthographic parameters.
	XMag float64
	YMag float64

	Near float64
	Far  float64
}

// Light kinds, following the punctual-light vocabulary of the input format.
const (
	LightDirectional = "directional"
	LightPoint       = "point"
	LightSpot        = "spot"
	LightAmbient     = "ambient"
)

// Light holds the parameters referenced by light nodes.
type Light struct {
	Key       string
	Name      string
	Type      string     // LightDirectional, LightPoint, LightSpot or LightAmbient
	Color     [3]float64 // linear RGB, each component in [0, 1]
	Intensity float64
	Range     float64 // point and spot only, 0 means unbounded

	// Spot cone angles in radians.
	InnerConeAngle float64
	OuterConeAngle float64
}

// AnimationClip names one animation owned by the asset root.
// Clips target nodes by name; the targeted nodes are flagged with
// [Node.AnimationTarget] so the pruner keeps them addressable.
type AnimationClip struct {
	Name     string
	Duration float64  // seconds
	Targets  []string // names of targeted nodes
}
