package compiler

import (
	"testing"

	"github.com/sceneforge/sceneforge/pkg/scene"
)

func mustWalk(t *testing.T, g *scene.Graph) *tree {
	t.Helper()
	tr, err := walk(g)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return tr
}

func TestPrune_FlattensWrapperChain(t *testing.T) {
	// Group(identity) -> Group([1,0,0]) -> Mesh collapses to a single mesh
	// carrying the folded translation.
	g := scene.New()
	inner := scene.NewNode("Inner", scene.KindGroup)
	inner.Transform.Translation = scene.Vec3{1, 0, 0}
	inner.Children = []*scene.Node{meshNode("Duck", "geo1", "mat1")}
	root := scene.NewNode("Scene", scene.KindGroup)
	root.Children = []*scene.Node{inner}
	g.Roots = []*scene.Node{root}

	tr := prune(mustWalk(t, g), Options{})
	if len(tr.roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(tr.roots))
	}
	got := tr.roots[0]
	if got.src.Kind != scene.KindMesh || got.src.Name != "Duck" {
		t.Fatalf("root = %s %q, want mesh Duck", got.src.Kind, got.src.Name)
	}
	if got.transform.Translation != (scene.Vec3{1, 0, 0}) {
		t.Errorf("translation = %v, want [1 0 0]", got.transform.Translation)
	}
}

func TestPrune_KeepGroupsDisablesPruning(t *testing.T) {
	g := scene.New()
	root := scene.NewNode("Scene", scene.KindGroup)
	inner := scene.NewNode("Inner", scene.KindGroup)
	inner.Children = []*scene.Node{meshNode("Duck", "geo1", "")}
	root.Children = []*scene.Node{inner}
	g.Roots = []*scene.Node{root}

	tr := prune(mustWalk(t, g), Options{KeepGroups: true})
	if tr.roots[0].src.Name != "Scene" || len(tr.roots[0].children) != 1 {
		t.Fatal("hierarchy must survive with KeepGroups")
	}
	if tr.roots[0].children[0].src.Name != "Inner" {
		t.Errorf("child = %q, want Inner", tr.roots[0].children[0].src.Name)
	}
}

func TestPrune_EmptyRootBecomesNoOpGroup(t *testing.T) {
	g := scene.New()
	root := scene.NewNode("Scene", scene.KindGroup)
	root.Children = []*scene.Node{scene.NewNode("Empty", scene.KindGroup)}
	g.Roots = []*scene.Node{root}

	tr := prune(mustWalk(t, g), Options{})
	if len(tr.roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(tr.roots))
	}
	got := tr.roots[0]
	if got.src.Kind != scene.KindGroup || len(got.children) != 0 {
		t.Errorf("empty root must collapse to a childless group, got %s with %d children",
			got.src.Kind, len(got.children))
	}
}

func TestPrune_KeepsSemanticNodes(t *testing.T) {
	mk := func(mutate func(*scene.Node)) *scene.Graph {
		g := scene.New()
		wrapper := scene.NewNode("Wrapper", scene.KindGroup)
		mutate(wrapper)
		wrapper.Children = []*scene.Node{meshNode("Duck", "geo1", "")}
		root := scene.NewNode("Scene", scene.KindGroup)
		root.Children = []*scene.Node{wrapper}
		g.Roots = []*scene.Node{root}
		return g
	}

	tests := []struct {
		name   string
		opts   Options
		mutate func(*scene.Node)
	}{
		{"animation target", Options{}, func(n *scene.Node) { n.AnimationTarget = true }},
		{"invisible", Options{}, func(n *scene.Node) { n.Visible = false }},
		{"metadata kept with meta", Options{Meta: true}, func(n *scene.Node) { n.Extras = map[string]any{"k": "v"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := prune(mustWalk(t, mk(tt.mutate)), tt.opts)
			if tr.roots[0].src.Name != "Wrapper" {
				t.Errorf("root = %q, want Wrapper to survive", tr.roots[0].src.Name)
			}
		})
	}
}

func TestPrune_MetadataDroppedWithoutMeta(t *testing.T) {
	g := scene.New()
	wrapper := scene.NewNode("Wrapper", scene.KindGroup)
	wrapper.Extras = map[string]any{"k": "v"}
	wrapper.Children = []*scene.Node{meshNode("Duck", "geo1", "")}
	root := scene.NewNode("Scene", scene.KindGroup)
	root.Children = []*scene.Node{wrapper}
	g.Roots = []*scene.Node{root}

	tr := prune(mustWalk(t, g), Options{})
	if tr.roots[0].src.Name != "Duck" {
		t.Errorf("root = %q, want wrappers flattened down to Duck", tr.roots[0].src.Name)
	}
}

func TestPrune_MultiChildGroupSurvives(t *testing.T) {
	g := scene.New()
	root := scene.NewNode("Scene", scene.KindGroup)
	root.Children = []*scene.Node{
		meshNode("A", "geo1", ""),
		meshNode("B", "geo2", ""),
	}
	g.Roots = []*scene.Node{root}

	tr := prune(mustWalk(t, g), Options{})
	if tr.roots[0].src.Name != "Scene" || len(tr.roots[0].children) != 2 {
		t.Error("group with multiple children must survive")
	}
}

func TestPrune_IdentityFoldIsSkipped(t *testing.T) {
	g := scene.New()
	root := scene.NewNode("Scene", scene.KindGroup)
	child := meshNode("Duck", "geo1", "")
	child.Transform.Translation = scene.Vec3{2, 0, 0}
	root.Children = []*scene.Node{child}
	g.Roots = []*scene.Node{root}

	tr := prune(mustWalk(t, g), Options{})
	if tr.roots[0].transform.Translation != (scene.Vec3{2, 0, 0}) {
		t.Errorf("translation = %v, want [2 0 0] untouched", tr.roots[0].transform.Translation)
	}
}
