package compiler

import "github.com/sceneforge/sceneforge/pkg/scene"

// prune rewrites the intermediate tree bottom-up, removing structural wrapper
// nodes that carry no semantic content. A node is a pruning candidate when it
// is a plain group with no entity reference, is not an animation target, is
// visible, and carries no metadata worth preserving. Candidates with exactly
// one child are replaced by that child with the candidate's transform folded
// in; candidates with no children are removed. Nodes with entity references,
// multiple children, or a semantic role survive regardless of policy.
//
// Roots are special: an empty root collapses to a no-op group instead of
// disappearing, so the emitted component always has a stable shape. A root
// wrapping a single child flattens like any other candidate - the output's
// single top-level wrapper is owned by the emitter, not the asset.
func prune(tr *tree, opts Options) *tree {
	if opts.KeepGroups {
		return tr
	}

	var roots []*treeNode
	for _, r := range tr.roots {
		pruned := pruneNode(r, opts)
		if pruned == nil {
			// Keep an empty root as a no-op group.
			r.children = nil
			pruned = r
		}
		roots = append(roots, pruned)
	}
	tr.roots = roots
	return tr
}

// pruneNode prunes n's subtree and returns its replacement: n itself, n's
// sole surviving child with n's transform folded in, or nil when the subtree
// vanished entirely.
func pruneNode(n *treeNode, opts Options) *treeNode {
	var kept []*treeNode
	for _, c := range n.children {
		if p := pruneNode(c, opts); p != nil {
			kept = append(kept, p)
		}
	}
	n.children = kept

	if !prunable(n.src, opts) {
		return n
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		child := kept[0]
		if !n.transform.IsIdentity() {
			child.transform = scene.Compose(n.transform, child.transform)
		}
		return child
	default:
		return n
	}
}

// prunable reports whether the node is eligible for removal or flattening.
func prunable(n *scene.Node, opts Options) bool {
	if n.Kind != scene.KindGroup || n.HasEntity() || n.AnimationTarget {
		return false
	}
	if !n.Visible {
		// visible={false} is information the output must keep.
		return false
	}
	if opts.Meta && len(n.Extras) > 0 {
		return false
	}
	return true
}
