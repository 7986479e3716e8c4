package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sceneforge/sceneforge/pkg/scene"
)

func inspectGraph() *scene.Graph {
	g := scene.New()
	root := scene.NewNode("Scene", scene.KindGroup)
	mesh := scene.NewNode("Duck", scene.KindMesh)
	mesh.Geometry = "geo0"
	mesh.Material = "mat0"
	hidden := scene.NewNode("Proxy", scene.KindMesh)
	hidden.Geometry = "geo1"
	hidden.Visible = false
	root.Children = append(root.Children, mesh, hidden)
	g.Roots = append(g.Roots, root)
	g.Geometries["geo0"] = &scene.Geometry{Key: "geo0", VertexCount: 1024}
	g.Geometries["geo1"] = &scene.Geometry{Key: "geo1", VertexCount: 8}
	g.Materials["mat0"] = &scene.Material{Key: "mat0", Name: "DuckMat", Shading: "MeshStandardMaterial"}
	return g
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTreeModel_FlattensHierarchy(t *testing.T) {
	m := newTreeModel(inspectGraph(), "duck.gltf")

	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.rows))
	}
	if m.rows[0].node.Name != "Scene" || m.rows[0].depth != 0 {
		t.Errorf("row 0 = %q depth %d", m.rows[0].node.Name, m.rows[0].depth)
	}
	if m.rows[1].node.Name != "Duck" || m.rows[1].depth != 1 {
		t.Errorf("row 1 = %q depth %d", m.rows[1].node.Name, m.rows[1].depth)
	}
}

func TestTreeModel_CursorMovement(t *testing.T) {
	m := newTreeModel(inspectGraph(), "duck.gltf")

	next, _ := m.Update(keyMsg("j"))
	m = next.(TreeModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}

	next, _ = m.Update(keyMsg("k"))
	m = next.(TreeModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k, want 0", m.cursor)
	}

	// Cursor never moves above the first row.
	next, _ = m.Update(keyMsg("k"))
	m = next.(TreeModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestTreeModel_CollapseHidesChildren(t *testing.T) {
	m := newTreeModel(inspectGraph(), "duck.gltf")

	next, _ := m.Update(keyMsg("enter"))
	m = next.(TreeModel)
	if len(m.rows) != 1 {
		t.Fatalf("rows = %d after collapse, want 1", len(m.rows))
	}

	next, _ = m.Update(keyMsg("enter"))
	m = next.(TreeModel)
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d after expand, want 3", len(m.rows))
	}
}

func TestTreeModel_ViewDescribesNodes(t *testing.T) {
	m := newTreeModel(inspectGraph(), "duck.gltf")
	view := m.View()

	for _, want := range []string{"duck.gltf", "Duck", "1024 verts", "DuckMat", "hidden"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
