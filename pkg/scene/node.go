package scene

// Kind is the closed set of node variants the input format can produce.
// No new kinds exist beyond this vocabulary, so node-kind-specific behavior
// switches over Kind rather than using open-ended subtyping.
type Kind int

const (
	// KindGroup is a structural wrapper with no referenced entity of its own.
	KindGroup Kind = iota
	// KindMesh references a Geometry and usually a Material. A mesh with a
	// Skin reference is a skinned mesh.
	KindMesh
	// KindBone is a joint in a skeleton hierarchy.
	KindBone
	// KindCamera references a Camera entity.
	KindCamera
	// KindLight references a Light entity.
	KindLight
)

// String returns the lower-case kind name used in diagnostics and DOT output.
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindBone:
		return "bone"
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	}
	return "unknown"
}

// Node is one vertex of the scene hierarchy. It owns its children exclusively
// (tree, no cycles by format contract) and references shared entities by key.
//
// The zero value is a usable identity-transform group: Transform's zero value
// is not identity (Scale would be zero), so construct nodes with NewNode or
// set Transform explicitly.
type Node struct {
	Name      string // original name from the asset; possibly empty or duplicated
	Kind      Kind
	Transform Transform

	// Visible is preserved as an emitted prop; it never affects traversal.
	Visible bool

	Children []*Node

	// Shared entity references by key. Empty means no reference.
	// Geometry and Material are meaningful for KindMesh, Skin marks a
	// skinned mesh, Camera and Light belong to their respective kinds.
	Geometry string
	Material string
	Skin     string
	Camera   string
	Light    string

	// Extras carries application-specific metadata from the asset,
	// emitted as userData when metadata emission is requested.
	Extras map[string]any

	// AnimationTarget marks nodes addressed by an animation clip.
	// Targets are never pruned even when otherwise empty.
	AnimationTarget bool
}

// NewNode creates a node of the given kind with an identity transform and
// visibility enabled.
func NewNode(name string, kind Kind) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Transform: Identity(),
		Visible:   true,
	}
}

// HasEntity reports whether the node references any shared entity.
// Nodes with entity references are never pruning candidates.
func (n *Node) HasEntity() bool {
	return n.Geometry != "" || n.Material != "" || n.Skin != "" || n.Camera != "" || n.Light != ""
}

// Skinned reports whether the node is a mesh bound to a skeleton.
func (n *Node) Skinned() bool {
	return n.Kind == KindMesh && n.Skin != ""
}
