package compiler

import (
	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// treeNode is one vertex of the intermediate tree produced by the walk.
// It carries a copy of the source node's local transform so pruning can fold
// parent transforms into children without mutating the asset graph.
type treeNode struct {
	src       *scene.Node
	transform scene.Transform
	children  []*treeNode

	// class is set by the deduplicator when the node belongs to an
	// instancing equivalence class of size >= 2.
	class *instanceClass
}

// tree is the intermediate representation between the walk and the emit
// stages: the node forest plus the flat registries of shared entities that
// were actually reachable during traversal.
type tree struct {
	roots []*treeNode

	// meshes lists every mesh-bearing node in traversal order.
	// This is the deduplicator's candidate set; the stable order makes
	// class membership and representative selection reproducible.
	meshes []*treeNode

	// geometries and materials list the keys of shared entities referenced
	// by at least one node, in first-reference order. Top-level declarations
	// are emitted only for these.
	geometries []string
	materials  []string
}

// walk performs a single depth-first pre-order traversal from each root and
// builds the intermediate tree. Every node is visited exactly once: shared
// entity references are data references, not graph edges, and never cause a
// revisit. Non-finite transform components abort the compile with a
// MALFORMED_TRANSFORM error naming the offending node.
func walk(g *scene.Graph) (*tree, error) {
	tr := &tree{}
	seenGeometry := make(map[string]bool)
	seenMaterial := make(map[string]bool)

	var visit func(n *scene.Node) (*treeNode, error)
	visit = func(n *scene.Node) (*treeNode, error) {
		if !n.Transform.Finite() {
			return nil, errors.New(errors.ErrCodeMalformedTransform,
				"node %q in %s: non-finite transform component", n.Name, g.Asset.Source)
		}

		tn := &treeNode{src: n, transform: n.Transform}
		if n.Kind == scene.KindMesh && n.Geometry != "" {
			tr.meshes = append(tr.meshes, tn)
			if !seenGeometry[n.Geometry] {
				seenGeometry[n.Geometry] = true
				tr.geometries = append(tr.geometries, n.Geometry)
			}
		}
		if n.Material != "" && !seenMaterial[n.Material] {
			seenMaterial[n.Material] = true
			tr.materials = append(tr.materials, n.Material)
		}

		for _, c := range n.Children {
			child, err := visit(c)
			if err != nil {
				return nil, err
			}
			tn.children = append(tn.children, child)
		}
		return tn, nil
	}

	for _, r := range g.Roots {
		root, err := visit(r)
		if err != nil {
			return nil, err
		}
		tr.roots = append(tr.roots, root)
	}
	return tr, nil
}
