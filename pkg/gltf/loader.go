// Package gltf loads glTF 2.0 asset files into the scene graph consumed by
// the compiler.
//
// The loader flattens format-level indirection into the graph's key-based
// entity references: mesh primitives become geometry keys, material indices
// become material keys, and punctual-light and camera definitions land in the
// graph registries. Node hierarchy, TRS transforms and animation targeting are
// carried over unchanged; buffer contents are never read.
package gltf

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	qgltf "github.com/qmuntal/gltf"

	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// lightsExtension is the KHR punctual-light extension name.
const lightsExtension = "KHR_lights_punctual"

// unsupportedExtensions are compressed-geometry extensions the loader cannot
// honor. An asset listing one as required is rejected as a whole.
var unsupportedExtensions = []string{
	"KHR_draco_mesh_compression",
	"EXT_meshopt_compression",
}

// Load reads and parses the asset at path and converts it into a scene graph.
func Load(path string) (*scene.Graph, error) {
	doc, err := qgltf.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "asset %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidAsset, err, "parse %s", path)
	}
	return buildGraph(doc, filepath.Base(path))
}

// buildGraph converts a parsed document into a scene graph. source is recorded
// as provenance and used in diagnostics.
func buildGraph(doc *qgltf.Document, source string) (*scene.Graph, error) {
	for _, required := range doc.ExtensionsRequired {
		for _, unsupported := range unsupportedExtensions {
			if required == unsupported {
				return nil, errors.New(errors.ErrCodeUnsupportedAsset,
					"asset %s requires unsupported extension %s", source, required)
			}
		}
	}

	l := &loader{
		doc:    doc,
		source: source,
		g:      scene.New(),
		lights: parseLights(doc),
		joints: make(map[uint32]bool),
		nodes:  make(map[uint32]*scene.Node),
	}
	l.g.Asset = scene.Provenance{
		Source:    source,
		Generator: doc.Asset.Generator,
		Copyright: doc.Asset.Copyright,
	}
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			l.joints[j] = true
		}
	}

	var sceneIdx uint32
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if int(sceneIdx) >= len(doc.Scenes) {
		if len(doc.Scenes) == 0 {
			// An asset without scenes is valid and renders nothing.
			return l.g, nil
		}
		return nil, errors.New(errors.ErrCodeInvalidAsset,
			"asset %s: default scene %d out of range", source, sceneIdx)
	}

	for _, idx := range doc.Scenes[sceneIdx].Nodes {
		root, err := l.convertNode(idx)
		if err != nil {
			return nil, err
		}
		l.g.Roots = append(l.g.Roots, root)
	}

	l.convertAnimations()
	return l.g, nil
}

type loader struct {
	doc    *qgltf.Document
	source string
	g      *scene.Graph
	lights []punctualLight
	joints map[uint32]bool

	// nodes maps document node indices to converted nodes so animation
	// channels can flag their targets after the hierarchy is built.
	nodes map[uint32]*scene.Node
}

// convertNode converts the document node at idx and its subtree.
func (l *loader) convertNode(idx uint32) (*scene.Node, error) {
	if int(idx) >= len(l.doc.Nodes) {
		return nil, errors.New(errors.ErrCodeInvalidAsset,
			"asset %s: node index %d out of range", l.source, idx)
	}
	src := l.doc.Nodes[idx]

	node := scene.NewNode(src.Name, l.nodeKind(src, idx))
	node.Transform = nodeTransform(src)
	node.Extras = decodeExtras(src.Extras)
	l.nodes[idx] = node

	switch node.Kind {
	case scene.KindMesh:
		if err := l.attachMesh(node, src); err != nil {
			return nil, err
		}
	case scene.KindCamera:
		node.Camera = l.ensureCamera(*src.Camera)
	case scene.KindLight:
		key, err := l.ensureLight(src)
		if err != nil {
			return nil, err
		}
		node.Light = key
	}

	for _, child := range src.Children {
		converted, err := l.convertNode(child)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, converted)
	}
	return node, nil
}

// nodeKind classifies a document node. Meshes win over joint membership: a
// node can be animated as a joint and still render its own mesh.
func (l *loader) nodeKind(src *qgltf.Node, idx uint32) scene.Kind {
	switch {
	case src.Mesh != nil:
		return scene.KindMesh
	case src.Camera != nil:
		return scene.KindCamera
	case hasLight(src):
		return scene.KindLight
	case l.joints[idx]:
		return scene.KindBone
	}
	return scene.KindGroup
}

// attachMesh wires geometry, material and skin keys onto node. A document
// mesh with several primitives has no single-geometry equivalent, so the node
// becomes a group carrying one synthesized child mesh per primitive.
func (l *loader) attachMesh(node *scene.Node, src *qgltf.Node) error {
	meshIdx := *src.Mesh
	if int(meshIdx) >= len(l.doc.Meshes) {
		return errors.New(errors.ErrCodeInvalidAsset,
			"asset %s: mesh index %d out of range", l.source, meshIdx)
	}
	mesh := l.doc.Meshes[meshIdx]

	skin := ""
	if src.Skin != nil {
		skin = l.ensureSkin(*src.Skin)
	}

	if len(mesh.Primitives) == 1 {
		l.attachPrimitive(node, mesh, meshIdx, 0, skin)
		return nil
	}

	node.Kind = scene.KindGroup
	for pi := range mesh.Primitives {
		child := scene.NewNode(fmt.Sprintf("%s_%d", node.Name, pi), scene.KindMesh)
		l.attachPrimitive(child, mesh, meshIdx, pi, skin)
		node.Children = append(node.Children, child)
	}
	return nil
}

func (l *loader) attachPrimitive(node *scene.Node, mesh *qgltf.Mesh, meshIdx uint32, pi int, skin string) {
	prim := mesh.Primitives[pi]
	node.Geometry = l.ensureGeometry(mesh, meshIdx, pi)
	if prim.Material != nil {
		node.Material = l.ensureMaterial(*prim.Material)
	}
	node.Skin = skin
}

// ensureGeometry registers the geometry for one mesh primitive and returns
// its key. Keys are derived from document position, so two nodes sharing a
// document mesh share the geometry key and stay interchangeable for
// instancing.
func (l *loader) ensureGeometry(mesh *qgltf.Mesh, meshIdx uint32, pi int) string {
	key := fmt.Sprintf("mesh%d/primitive%d", meshIdx, pi)
	if _, ok := l.g.Geometries[key]; ok {
		return key
	}
	prim := mesh.Primitives[pi]
	geom := &scene.Geometry{
		Key:          key,
		Name:         mesh.Name,
		MorphTargets: len(prim.Targets),
	}
	if pos, ok := prim.Attributes["POSITION"]; ok {
		geom.VertexCount = l.accessorCount(pos)
	}
	if prim.Indices != nil {
		geom.IndexCount = l.accessorCount(*prim.Indices)
	}
	l.g.Geometries[key] = geom
	return key
}

func (l *loader) accessorCount(idx uint32) int {
	if int(idx) >= len(l.doc.Accessors) {
		return 0
	}
	return int(l.doc.Accessors[idx].Count)
}

func (l *loader) ensureMaterial(idx uint32) string {
	key := fmt.Sprintf("material%d", idx)
	if _, ok := l.g.Materials[key]; ok {
		return key
	}
	mat := &scene.Material{Key: key, Shading: "MeshStandardMaterial"}
	if int(idx) < len(l.doc.Materials) {
		src := l.doc.Materials[idx]
		mat.Name = src.Name
		mat.Shading = materialShading(src)
		mat.DoubleSided = src.DoubleSided
		mat.Transparent = src.AlphaMode == qgltf.AlphaBlend
	}
	l.g.Materials[key] = mat
	return key
}

// materialShading maps a document material to the target framework's class.
// Unlit materials become basic, advanced PBR extensions upgrade to physical,
// everything else is standard.
func materialShading(mat *qgltf.Material) string {
	if _, ok := mat.Extensions["KHR_materials_unlit"]; ok {
		return "MeshBasicMaterial"
	}
	physical := []string{
		"KHR_materials_clearcoat",
		"KHR_materials_transmission",
		"KHR_materials_sheen",
		"KHR_materials_volume",
		"KHR_materials_ior",
		"KHR_materials_specular",
		"KHR_materials_iridescence",
	}
	for _, ext := range physical {
		if _, ok := mat.Extensions[ext]; ok {
			return "MeshPhysicalMaterial"
		}
	}
	return "MeshStandardMaterial"
}

func (l *loader) ensureSkin(idx uint32) string {
	key := fmt.Sprintf("skin%d", idx)
	if _, ok := l.g.Skins[key]; ok {
		return key
	}
	skin := &scene.Skin{Key: key}
	if int(idx) < len(l.doc.Skins) {
		src := l.doc.Skins[idx]
		skin.Name = src.Name
		skin.Joints = len(src.Joints)
	}
	l.g.Skins[key] = skin
	return key
}

func (l *loader) ensureCamera(idx uint32) string {
	key := fmt.Sprintf("camera%d", idx)
	if _, ok := l.g.Cameras[key]; ok {
		return key
	}
	cam := &scene.Camera{Key: key, Projection: scene.ProjectionPerspective}
	if int(idx) < len(l.doc.Cameras) {
		src := l.doc.Cameras[idx]
		cam.Name = src.Name
		switch {
		case src.Orthographic != nil:
			cam.Projection = scene.ProjectionOrthographic
			cam.XMag = float64(src.Orthographic.Xmag)
			cam.YMag = float64(src.Orthographic.Ymag)
			cam.Near = float64(src.Orthographic.Znear)
			cam.Far = float64(src.Orthographic.Zfar)
		case src.Perspective != nil:
			// The target framework takes a vertical fov in degrees.
			cam.Fov = float64(src.Perspective.Yfov) * 180 / math.Pi
			if src.Perspective.AspectRatio != nil {
				cam.Aspect = float64(*src.Perspective.AspectRatio)
			}
			cam.Near = float64(src.Perspective.Znear)
			if src.Perspective.Zfar != nil {
				cam.Far = float64(*src.Perspective.Zfar)
			}
		}
	}
	l.g.Cameras[key] = cam
	return key
}

// ensureLight resolves a node's punctual-light reference against the
// document-level light list.
func (l *loader) ensureLight(src *qgltf.Node) (string, error) {
	idx, ok := lightIndex(src)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidAsset,
			"asset %s: node %q carries a malformed light reference", l.source, src.Name)
	}
	if idx >= len(l.lights) {
		return "", errors.New(errors.ErrCodeInvalidAsset,
			"asset %s: node %q references light %d of %d", l.source, src.Name, idx, len(l.lights))
	}

	key := fmt.Sprintf("light%d", idx)
	if _, ok := l.g.Lights[key]; ok {
		return key, nil
	}
	def := l.lights[idx]
	light := &scene.Light{
		Key:       key,
		Name:      def.Name,
		Type:      def.Type,
		Color:     [3]float64{1, 1, 1},
		Intensity: 1,
	}
	if def.Color != nil {
		light.Color = *def.Color
	}
	if def.Intensity != nil {
		light.Intensity = *def.Intensity
	}
	if def.Range != nil {
		light.Range = *def.Range
	}
	if def.Type == scene.LightSpot {
		light.OuterConeAngle = math.Pi / 4
		if def.Spot != nil {
			if def.Spot.InnerConeAngle != nil {
				light.InnerConeAngle = *def.Spot.InnerConeAngle
			}
			if def.Spot.OuterConeAngle != nil {
				light.OuterConeAngle = *def.Spot.OuterConeAngle
			}
		}
	}
	l.g.Lights[key] = light
	return key, nil
}

// convertAnimations builds the clip list and flags targeted nodes so the
// pruner keeps them addressable. Clip duration is read off the keyframe input
// accessor bounds; buffer data is never touched.
func (l *loader) convertAnimations() {
	for ai, anim := range l.doc.Animations {
		clip := scene.AnimationClip{Name: anim.Name}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation%d", ai)
		}

		seen := make(map[string]bool)
		for _, ch := range anim.Channels {
			if ch.Sampler != nil && int(*ch.Sampler) < len(anim.Samplers) {
				if d := l.samplerDuration(anim.Samplers[*ch.Sampler]); d > clip.Duration {
					clip.Duration = d
				}
			}
			if ch.Target.Node == nil {
				continue
			}
			target, ok := l.nodes[*ch.Target.Node]
			if !ok {
				continue
			}
			target.AnimationTarget = true
			if !seen[target.Name] {
				seen[target.Name] = true
				clip.Targets = append(clip.Targets, target.Name)
			}
		}
		l.g.Animations = append(l.g.Animations, clip)
	}
}

func (l *loader) samplerDuration(s *qgltf.AnimationSampler) float64 {
	if s == nil || int(s.Input) >= len(l.doc.Accessors) {
		return 0
	}
	if max := l.doc.Accessors[s.Input].Max; len(max) > 0 {
		return float64(max[0])
	}
	return 0
}

// punctualLight mirrors the KHR punctual-light JSON shape. Optional fields
// are pointers so extension defaults apply only when truly absent.
type punctualLight struct {
	Name      string      `json:"name"`
	Color     *[3]float64 `json:"color"`
	Intensity *float64    `json:"intensity"`
	Type      string      `json:"type"`
	Range     *float64    `json:"range"`
	Spot      *struct {
		InnerConeAngle *float64 `json:"innerConeAngle"`
		OuterConeAngle *float64 `json:"outerConeAngle"`
	} `json:"spot"`
}

// parseLights decodes the document-level punctual-light list, if present.
func parseLights(doc *qgltf.Document) []punctualLight {
	raw, ok := doc.Extensions[lightsExtension].(json.RawMessage)
	if !ok {
		return nil
	}
	var ext struct {
		Lights []punctualLight `json:"lights"`
	}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return nil
	}
	return ext.Lights
}

func hasLight(src *qgltf.Node) bool {
	_, ok := src.Extensions[lightsExtension]
	return ok
}

// lightIndex extracts the light index from a node's extension payload.
func lightIndex(src *qgltf.Node) (int, bool) {
	raw, ok := src.Extensions[lightsExtension].(json.RawMessage)
	if !ok {
		return 0, false
	}
	var ref struct {
		Light *int `json:"light"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil || ref.Light == nil {
		return 0, false
	}
	return *ref.Light, true
}

// decodeExtras converts a node's extras payload into userData metadata.
// The document parser hands extras over as an untyped value: already-decoded
// objects pass through, raw JSON is decoded here. Non-object extras are
// dropped; the output format only carries objects.
func decodeExtras(extras any) map[string]any {
	switch v := extras.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return v
	case json.RawMessage:
		var m map[string]any
		if err := json.Unmarshal(v, &m); err != nil || len(m) == 0 {
			return nil
		}
		return m
	}
	return nil
}
