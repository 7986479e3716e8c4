package gltf

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	qgltf "github.com/qmuntal/gltf"

	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.gltf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeFileNotFound {
		t.Errorf("code = %v, want %v", code, errors.ErrCodeFileNotFound)
	}
}

func TestBuildGraph_Basic(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0", Generator: "testgen", Copyright: "someone"},
		Scene:  qgltf.Index(0),
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0}}},
		Nodes: []*qgltf.Node{
			{Name: "Root", Children: []uint32{1}},
			{Name: "Duck", Mesh: qgltf.Index(0)},
		},
		Meshes: []*qgltf.Mesh{{
			Name: "DuckMesh",
			Primitives: []*qgltf.Primitive{{
				Attributes: map[string]uint32{"POSITION": 0},
				Indices:    qgltf.Index(1),
				Material:   qgltf.Index(0),
			}},
		}},
		Materials: []*qgltf.Material{{Name: "DuckMat"}},
		Accessors: []*qgltf.Accessor{{Count: 24}, {Count: 36}},
	}

	g, err := buildGraph(doc, "duck.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	if g.Asset.Source != "duck.glb" || g.Asset.Generator != "testgen" || g.Asset.Copyright != "someone" {
		t.Errorf("provenance = %+v", g.Asset)
	}
	if len(g.Roots) != 1 || g.Roots[0].Name != "Root" || g.Roots[0].Kind != scene.KindGroup {
		t.Fatalf("unexpected roots: %+v", g.Roots)
	}
	duck := g.Roots[0].Children[0]
	if duck.Kind != scene.KindMesh {
		t.Fatalf("duck kind = %v, want mesh", duck.Kind)
	}
	if duck.Geometry != "mesh0/primitive0" || duck.Material != "material0" {
		t.Errorf("keys = %q/%q", duck.Geometry, duck.Material)
	}

	geom := g.Geometries[duck.Geometry]
	if geom == nil || geom.VertexCount != 24 || geom.IndexCount != 36 || geom.Name != "DuckMesh" {
		t.Errorf("geometry = %+v", geom)
	}
	mat := g.Materials[duck.Material]
	if mat == nil || mat.Name != "DuckMat" || mat.Shading != "MeshStandardMaterial" {
		t.Errorf("material = %+v", mat)
	}
}

func TestBuildGraph_MultiPrimitiveMeshBecomesGroup(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0"},
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0}}},
		Nodes:  []*qgltf.Node{{Name: "Multi", Mesh: qgltf.Index(0)}},
		Meshes: []*qgltf.Mesh{{
			Primitives: []*qgltf.Primitive{
				{Attributes: map[string]uint32{"POSITION": 0}},
				{Attributes: map[string]uint32{"POSITION": 0}},
			},
		}},
		Accessors: []*qgltf.Accessor{{Count: 8}},
	}

	g, err := buildGraph(doc, "multi.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	root := g.Roots[0]
	if root.Kind != scene.KindGroup {
		t.Fatalf("multi-primitive node kind = %v, want group", root.Kind)
	}
	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(root.Children))
	}
	if root.Children[0].Name != "Multi_0" || root.Children[1].Name != "Multi_1" {
		t.Errorf("child names = %q, %q", root.Children[0].Name, root.Children[1].Name)
	}
	if root.Children[0].Geometry != "mesh0/primitive0" || root.Children[1].Geometry != "mesh0/primitive1" {
		t.Errorf("geometry keys = %q, %q", root.Children[0].Geometry, root.Children[1].Geometry)
	}
}

func TestBuildGraph_SharedMeshSharesGeometryKey(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0"},
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0, 1}}},
		Nodes: []*qgltf.Node{
			{Name: "A", Mesh: qgltf.Index(0)},
			{Name: "B", Mesh: qgltf.Index(0)},
		},
		Meshes: []*qgltf.Mesh{{
			Primitives: []*qgltf.Primitive{{Attributes: map[string]uint32{"POSITION": 0}}},
		}},
		Accessors: []*qgltf.Accessor{{Count: 8}},
	}

	g, err := buildGraph(doc, "shared.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	if g.Roots[0].Geometry != g.Roots[1].Geometry {
		t.Errorf("shared mesh produced diverging keys %q and %q", g.Roots[0].Geometry, g.Roots[1].Geometry)
	}
	if len(g.Geometries) != 1 {
		t.Errorf("geometries = %d, want 1", len(g.Geometries))
	}
}

func TestBuildGraph_UnsupportedExtension(t *testing.T) {
	doc := &qgltf.Document{
		Asset:              qgltf.Asset{Version: "2.0"},
		ExtensionsRequired: []string{"KHR_draco_mesh_compression"},
	}

	_, err := buildGraph(doc, "compressed.glb")
	if err == nil {
		t.Fatal("expected error for draco-compressed asset")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeUnsupportedAsset {
		t.Errorf("code = %v, want %v", code, errors.ErrCodeUnsupportedAsset)
	}
}

func TestBuildGraph_PunctualLights(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0"},
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0}}},
		Nodes: []*qgltf.Node{{
			Name: "Spot",
			Extensions: qgltf.Extensions{
				lightsExtension: json.RawMessage(`{"light":0}`),
			},
		}},
		Extensions: qgltf.Extensions{
			lightsExtension: json.RawMessage(`{"lights":[{"type":"spot","intensity":2,"range":10,"spot":{"outerConeAngle":0.6}}]}`),
		},
	}

	g, err := buildGraph(doc, "lit.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	node := g.Roots[0]
	if node.Kind != scene.KindLight || node.Light != "light0" {
		t.Fatalf("node = kind %v light %q", node.Kind, node.Light)
	}
	light := g.Lights["light0"]
	if light.Type != scene.LightSpot || light.Intensity != 2 || light.Range != 10 {
		t.Errorf("light = %+v", light)
	}
	if light.OuterConeAngle != 0.6 {
		t.Errorf("outer cone = %v, want 0.6", light.OuterConeAngle)
	}
	if light.Color != [3]float64{1, 1, 1} {
		t.Errorf("color default = %v, want white", light.Color)
	}
}

func TestBuildGraph_Camera(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0"},
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0}}},
		Nodes:  []*qgltf.Node{{Name: "Cam", Camera: qgltf.Index(0)}},
		Cameras: []*qgltf.Camera{{
			Perspective: &qgltf.Perspective{Yfov: math.Pi / 2, Znear: 0.1, Zfar: qgltf.Float(100)},
		}},
	}

	g, err := buildGraph(doc, "cam.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	cam := g.Cameras[g.Roots[0].Camera]
	if cam == nil || cam.Projection != scene.ProjectionPerspective {
		t.Fatalf("camera = %+v", cam)
	}
	// Projection parameters are stored single-precision, so compare loosely.
	if math.Abs(cam.Fov-90) > 1e-4 {
		t.Errorf("fov = %v, want 90 degrees", cam.Fov)
	}
	if math.Abs(cam.Near-0.1) > 1e-6 || cam.Far != 100 {
		t.Errorf("near/far = %v/%v", cam.Near, cam.Far)
	}
}

func TestBuildGraph_SkinsAndBones(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0"},
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0, 2}}},
		Nodes: []*qgltf.Node{
			{Name: "Hip", Children: []uint32{1}},
			{Name: "Knee"},
			{Name: "Body", Mesh: qgltf.Index(0), Skin: qgltf.Index(0)},
		},
		Meshes: []*qgltf.Mesh{{
			Primitives: []*qgltf.Primitive{{Attributes: map[string]uint32{"POSITION": 0}}},
		}},
		Skins:     []*qgltf.Skin{{Name: "Rig", Joints: []uint32{0, 1}}},
		Accessors: []*qgltf.Accessor{{Count: 8}},
	}

	g, err := buildGraph(doc, "rig.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	if g.Roots[0].Kind != scene.KindBone || g.Roots[0].Children[0].Kind != scene.KindBone {
		t.Error("joint nodes must become bones")
	}
	body := g.Roots[1]
	if !body.Skinned() || body.Skin != "skin0" {
		t.Errorf("body = %+v, want skinned mesh", body)
	}
	if skin := g.Skins["skin0"]; skin == nil || skin.Joints != 2 || skin.Name != "Rig" {
		t.Errorf("skin = %+v", g.Skins["skin0"])
	}
}

func TestBuildGraph_AnimationsFlagTargets(t *testing.T) {
	doc := &qgltf.Document{
		Asset:  qgltf.Asset{Version: "2.0"},
		Scenes: []*qgltf.Scene{{Nodes: []uint32{0}}},
		Nodes: []*qgltf.Node{
			{Name: "Root", Children: []uint32{1}},
			{Name: "Wing"},
		},
		Accessors: []*qgltf.Accessor{{Count: 3, Max: []float32{2.5}}},
		Animations: []*qgltf.Animation{{
			Channels: []*qgltf.Channel{{
				Sampler: qgltf.Index(0),
				Target:  qgltf.ChannelTarget{Node: qgltf.Index(1), Path: qgltf.TRSRotation},
			}},
			Samplers: []*qgltf.AnimationSampler{{Input: 0, Output: 0}},
		}},
	}

	g, err := buildGraph(doc, "anim.glb")
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}
	if len(g.Animations) != 1 {
		t.Fatalf("animations = %d, want 1", len(g.Animations))
	}
	clip := g.Animations[0]
	if clip.Name != "animation0" {
		t.Errorf("clip name = %q, want animation0", clip.Name)
	}
	if clip.Duration != 2.5 {
		t.Errorf("duration = %v, want 2.5", clip.Duration)
	}
	if len(clip.Targets) != 1 || clip.Targets[0] != "Wing" {
		t.Errorf("targets = %v, want [Wing]", clip.Targets)
	}
	if !g.Roots[0].Children[0].AnimationTarget {
		t.Error("targeted node must be flagged")
	}
}

func TestBuildGraph_Extras(t *testing.T) {
	// The parser surfaces extras as an untyped value; both already-decoded
	// objects and raw JSON must land in node metadata.
	tests := []struct {
		name   string
		extras any
	}{
		{"decoded object", map[string]any{"hp": float64(10)}},
		{"raw json", json.RawMessage(`{"hp":10}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &qgltf.Document{
				Asset:  qgltf.Asset{Version: "2.0"},
				Scenes: []*qgltf.Scene{{Nodes: []uint32{0}}},
				Nodes: []*qgltf.Node{{
					Name:   "Tagged",
					Extras: tt.extras,
				}},
			}

			g, err := buildGraph(doc, "extras.glb")
			if err != nil {
				t.Fatalf("buildGraph: %v", err)
			}
			if got := g.Roots[0].Extras["hp"]; got != float64(10) {
				t.Errorf("extras = %v", g.Roots[0].Extras)
			}
		})
	}
}

func TestDecodeExtras_NonObjectDropped(t *testing.T) {
	for _, extras := range []any{nil, "free text", json.RawMessage(`[1,2]`), map[string]any{}} {
		if got := decodeExtras(extras); got != nil {
			t.Errorf("decodeExtras(%v) = %v, want nil", extras, got)
		}
	}
}

func TestMaterialShading(t *testing.T) {
	tests := []struct {
		name string
		mat  *qgltf.Material
		want string
	}{
		{"standard", &qgltf.Material{}, "MeshStandardMaterial"},
		{"unlit", &qgltf.Material{
			Extensions: qgltf.Extensions{"KHR_materials_unlit": json.RawMessage(`{}`)},
		}, "MeshBasicMaterial"},
		{"physical", &qgltf.Material{
			Extensions: qgltf.Extensions{"KHR_materials_clearcoat": json.RawMessage(`{}`)},
		}, "MeshPhysicalMaterial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := materialShading(tt.mat); got != tt.want {
				t.Errorf("materialShading = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecompose_TranslationScale(t *testing.T) {
	m := [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	m[0], m[5], m[10] = 2, 3, 4
	m[12], m[13], m[14] = 1, 2, 3

	tr := decompose(m)
	if tr.Translation != (scene.Vec3{1, 2, 3}) {
		t.Errorf("translation = %v", tr.Translation)
	}
	if tr.Scale != (scene.Vec3{2, 3, 4}) {
		t.Errorf("scale = %v", tr.Scale)
	}
	if !tr.Rotation.IsIdentity() {
		t.Errorf("rotation = %+v, want identity", tr.Rotation)
	}
}

func TestDecompose_RotationZ(t *testing.T) {
	// 90 degrees about z, column-major.
	m := [16]float64{
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	tr := decompose(m)
	want := scene.Quat{Z: math.Sqrt2 / 2, W: math.Sqrt2 / 2}
	for name, pair := range map[string][2]float64{
		"x": {tr.Rotation.X, want.X},
		"y": {tr.Rotation.Y, want.Y},
		"z": {tr.Rotation.Z, want.Z},
		"w": {tr.Rotation.W, want.W},
	} {
		if math.Abs(pair[0]-pair[1]) > 1e-9 {
			t.Errorf("rotation.%s = %v, want %v", name, pair[0], pair[1])
		}
	}
}
