package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// regEntry is one entry of the emitted type declaration: an allocated
// identifier and the target framework's class for it.
type regEntry struct {
	id   string
	kind string
}

// emitter synthesizes the output text from the pruned tree. Its name
// registries and string builder are the invocation-scoped emission context;
// nothing here survives the compile call.
type emitter struct {
	g       *scene.Graph
	opts    Options
	classes []*instanceClass

	nodeNames *allocator
	matNames  *allocator
	nodeID    map[*treeNode]string
	matID     map[string]string

	nodeReg []regEntry
	matReg  []regEntry

	hasPerspective bool
	hasOrtho       bool

	body   strings.Builder
	indent int
}

// emit performs the second, pre-order traversal over the pruned tree and
// assembles the final source text. Identifier assignment runs as a separate
// deterministic pre-pass so the type declaration and the instances block see
// the same names as the tree body.
func emit(g *scene.Graph, tr *tree, classes []*instanceClass, opts Options) (string, error) {
	e := &emitter{
		g:         g,
		opts:      opts,
		classes:   classes,
		nodeNames: newAllocator(opts.KeepNames),
		matNames:  newAllocator(opts.KeepNames),
		nodeID:    make(map[*treeNode]string),
		matID:     make(map[string]string),
	}

	for _, r := range tr.roots {
		e.assignNode(r)
	}

	e.indent = 3
	for _, r := range tr.roots {
		if err := e.renderNode(r); err != nil {
			return "", err
		}
	}

	var out strings.Builder
	out.WriteString(e.header())
	e.writeImports(&out)
	e.writeTypes(&out)
	e.writeInstances(&out)
	e.writeModel(&out)
	fmt.Fprintf(&out, "useGLTF.preload('%s')\n", opts.AssetPath)
	return out.String(), nil
}

func (e *emitter) hasInstancing() bool { return len(e.classes) > 0 }
func (e *emitter) hasAnimations() bool { return len(e.g.Animations) > 0 }

// assignNode allocates identifiers in pre-order so output is reproducible.
// Only nodes reached through the accessor lookup get identifiers: inline
// meshes, skinned meshes, skeleton roots, and instancing representatives.
func (e *emitter) assignNode(n *treeNode) {
	src := n.src
	switch {
	case src.Kind == scene.KindMesh && src.Geometry != "":
		if n.class != nil {
			if n.class.name == "" {
				// First member in traversal order is the representative.
				n.class.name = e.allocNodeID(n)
			}
		} else {
			e.allocNodeID(n)
		}
		if src.Material != "" {
			e.allocMaterialID(src.Material)
		}
	case src.Kind == scene.KindBone:
		// Skeleton roots are referenced as loaded objects; the bone
		// hierarchy below them is never re-created in the output.
		e.allocNodeID(n)
		return
	case src.Kind == scene.KindCamera:
		if cam := e.g.Cameras[src.Camera]; cam != nil {
			switch cam.Projection {
			case scene.ProjectionOrthographic:
				e.hasOrtho = true
			default:
				e.hasPerspective = true
			}
		}
	}
	for _, c := range n.children {
		e.assignNode(c)
	}
}

func (e *emitter) allocNodeID(n *treeNode) string {
	id := e.nodeNames.allocate(n.src.Name, "nodes")
	e.nodeID[n] = id
	kind := "THREE.Mesh"
	switch {
	case n.src.Kind == scene.KindBone:
		kind = "THREE.Bone"
	case n.src.Skinned():
		kind = "THREE.SkinnedMesh"
	}
	e.nodeReg = append(e.nodeReg, regEntry{id: id, kind: kind})
	return id
}

func (e *emitter) allocMaterialID(key string) string {
	if id, ok := e.matID[key]; ok {
		return id
	}
	candidate := ""
	shading := "MeshStandardMaterial"
	if m := e.g.Materials[key]; m != nil {
		candidate = m.Name
		if m.Shading != "" {
			shading = m.Shading
		}
	}
	id := e.matNames.allocate(candidate, "materials")
	e.matID[key] = id
	e.matReg = append(e.matReg, regEntry{id: id, kind: "THREE." + shading})
	return id
}

// renderNode writes one element and recurses into its children.
func (e *emitter) renderNode(n *treeNode) error {
	el, props, err := e.element(n)
	if err != nil {
		return err
	}
	if n.src.Kind == scene.KindBone {
		e.writeTag(el, props, true)
		return nil
	}
	if len(n.children) == 0 {
		e.writeTag(el, props, true)
		return nil
	}
	e.writeTag(el, props, false)
	e.indent++
	for _, c := range n.children {
		if err := e.renderNode(c); err != nil {
			return err
		}
	}
	e.indent--
	e.bodyLine("</%s>", el)
	return nil
}

// element resolves a tree node to its output element name and props.
// An unrecognized node kind is fatal: the compile aborts with the original
// asset path and node name, and no output is produced.
func (e *emitter) element(n *treeNode) (string, []string, error) {
	src := n.src

	if n.class != nil {
		props := e.nameProp(src)
		if e.opts.Instancing == InstancingSelective && src.Material != "" && src.Material != n.class.rep.src.Material {
			props = append(props, fmt.Sprintf("material={materials.%s}", e.allocMaterialID(src.Material)))
		}
		props = append(props, e.transformProps(n)...)
		props = append(props, e.trailingProps(src)...)
		return "instances." + n.class.name, props, nil
	}

	switch src.Kind {
	case scene.KindGroup:
		props := e.nameProp(src)
		props = append(props, e.transformProps(n)...)
		props = append(props, e.trailingProps(src)...)
		return "group", props, nil

	case scene.KindMesh:
		return e.meshElement(n)

	case scene.KindBone:
		return "primitive", []string{fmt.Sprintf("object={nodes.%s}", e.nodeID[n])}, nil

	case scene.KindCamera:
		return e.cameraElement(n)

	case scene.KindLight:
		return e.lightElement(n)
	}

	return "", nil, errors.New(errors.ErrCodeUnsupportedKind,
		"node %q in %s: unsupported node kind", src.Name, e.g.Asset.Source)
}

func (e *emitter) meshElement(n *treeNode) (string, []string, error) {
	src := n.src
	el := "mesh"
	if src.Skinned() {
		el = "skinnedMesh"
	}

	props := e.nameProp(src)
	id := e.nodeID[n]
	if src.Geometry != "" {
		props = append(props, fmt.Sprintf("geometry={nodes.%s.geometry}", id))
	}
	if src.Material != "" {
		props = append(props, fmt.Sprintf("material={materials.%s}", e.matID[src.Material]))
	}
	if src.Skinned() {
		props = append(props, fmt.Sprintf("skeleton={nodes.%s.skeleton}", id))
	}
	if geom := e.g.Geometries[src.Geometry]; geom != nil && geom.MorphTargets > 0 {
		props = append(props,
			fmt.Sprintf("morphTargetDictionary={nodes.%s.morphTargetDictionary}", id),
			fmt.Sprintf("morphTargetInfluences={nodes.%s.morphTargetInfluences}", id))
	}
	if e.opts.Shadows {
		props = append(props, "castShadow", "receiveShadow")
	}
	props = append(props, e.transformProps(n)...)
	props = append(props, e.trailingProps(src)...)
	return el, props, nil
}

func (e *emitter) cameraElement(n *treeNode) (string, []string, error) {
	src := n.src
	cam := e.g.Cameras[src.Camera]
	if cam == nil {
		return "", nil, errors.New(errors.ErrCodeInvalidAsset,
			"node %q in %s: references unknown camera %q", src.Name, e.g.Asset.Source, src.Camera)
	}

	p := e.opts.Precision
	props := e.nameProp(src)
	props = append(props, "makeDefault={false}")
	el := "PerspectiveCamera"
	if cam.Projection == scene.ProjectionOrthographic {
		el = "OrthographicCamera"
	} else {
		props = append(props, "fov={"+formatNum(cam.Fov, p)+"}")
	}
	if cam.Near != 0 {
		props = append(props, "near={"+formatNum(cam.Near, p)+"}")
	}
	if cam.Far != 0 {
		props = append(props, "far={"+formatNum(cam.Far, p)+"}")
	}
	props = append(props, e.transformProps(n)...)
	props = append(props, e.trailingProps(src)...)
	return el, props, nil
}

func (e *emitter) lightElement(n *treeNode) (string, []string, error) {
	src := n.src
	l := e.g.Lights[src.Light]
	if l == nil {
		return "", nil, errors.New(errors.ErrCodeInvalidAsset,
			"node %q in %s: references unknown light %q", src.Name, e.g.Asset.Source, src.Light)
	}

	var el string
	switch l.Type {
	case scene.LightDirectional:
		el = "directionalLight"
	case scene.LightPoint:
		el = "pointLight"
	case scene.LightSpot:
		el = "spotLight"
	case scene.LightAmbient:
		el = "ambientLight"
	default:
		return "", nil, errors.New(errors.ErrCodeUnsupportedKind,
			"node %q in %s: unsupported light type %q", src.Name, e.g.Asset.Source, l.Type)
	}

	p := e.opts.Precision
	props := e.nameProp(src)
	if !isDefault(l.Intensity, 1, p) {
		props = append(props, "intensity={"+formatNum(l.Intensity, p)+"}")
	}
	if c := formatColor(l.Color); c != "#ffffff" {
		props = append(props, fmt.Sprintf("color=%q", c))
	}
	if (l.Type == scene.LightPoint || l.Type == scene.LightSpot) && l.Range > 0 {
		props = append(props, "distance={"+formatNum(l.Range, p)+"}")
	}
	if l.Type == scene.LightSpot {
		props = append(props, "angle={"+formatNum(l.OuterConeAngle, p)+"}")
		if l.OuterConeAngle > 0 {
			penumbra := 1 - l.InnerConeAngle/l.OuterConeAngle
			if !isDefault(penumbra, 0, p) {
				props = append(props, "penumbra={"+formatNum(penumbra, p)+"}")
			}
		}
	}
	props = append(props, e.transformProps(n)...)
	props = append(props, e.trailingProps(src)...)
	return el, props, nil
}

// nameProp returns the name prop when original names are kept.
func (e *emitter) nameProp(src *scene.Node) []string {
	if !e.opts.KeepNames || src.Name == "" {
		return nil
	}
	return []string{fmt.Sprintf("name=%q", src.Name)}
}

// transformProps renders the non-default transform components, each rounded
// to the configured precision. A component rounding to its kind default is
// omitted entirely; a uniform scale collapses to a single number.
func (e *emitter) transformProps(n *treeNode) []string {
	p := e.opts.Precision
	t := n.transform
	var props []string

	if !vecIsDefault(t.Translation, 0, p) {
		props = append(props, "position={"+formatVec(t.Translation, p)+"}")
	}
	if eu := t.Rotation.Euler(); !vecIsDefault(eu, 0, p) {
		props = append(props, "rotation={"+formatVec(eu, p)+"}")
	}
	if !vecIsDefault(t.Scale, 1, p) {
		sx := formatNum(t.Scale[0], p)
		sy := formatNum(t.Scale[1], p)
		sz := formatNum(t.Scale[2], p)
		if sx == sy && sy == sz {
			props = append(props, "scale={"+sx+"}")
		} else {
			props = append(props, "scale={"+formatVec(t.Scale, p)+"}")
		}
	}
	return props
}

// trailingProps renders visibility and metadata props.
func (e *emitter) trailingProps(src *scene.Node) []string {
	var props []string
	if !src.Visible {
		props = append(props, "visible={false}")
	}
	if e.opts.Meta && len(src.Extras) > 0 {
		if data, err := json.Marshal(src.Extras); err == nil {
			props = append(props, "userData={"+string(data)+"}")
		}
	}
	return props
}

// writeTag writes an element tag, wrapping props onto separate lines when
// the single-line form exceeds the configured print width.
func (e *emitter) writeTag(el string, props []string, selfClose bool) {
	ind := strings.Repeat("  ", e.indent)

	single := "<" + el
	if len(props) > 0 {
		single += " " + strings.Join(props, " ")
	}
	if selfClose {
		single += " />"
	} else {
		single += ">"
	}
	if len(props) == 0 || len(ind)+len(single) <= e.opts.PrintWidth {
		e.body.WriteString(ind + single + "\n")
		return
	}

	e.body.WriteString(ind + "<" + el + "\n")
	for _, p := range props {
		e.body.WriteString(ind + "  " + p + "\n")
	}
	if selfClose {
		e.body.WriteString(ind + "/>\n")
	} else {
		e.body.WriteString(ind + ">\n")
	}
}

func (e *emitter) bodyLine(format string, args ...any) {
	e.body.WriteString(strings.Repeat("  ", e.indent))
	fmt.Fprintf(&e.body, format, args...)
	e.body.WriteByte('\n')
}

// header renders the metadata comment block.
func (e *emitter) header() string {
	var b strings.Builder
	b.WriteString("/*\nAuto-generated by: sceneforge\n")
	if s := e.g.Asset.Source; s != "" {
		fmt.Fprintf(&b, "Source: %s\n", s)
	}
	if gen := e.g.Asset.Generator; gen != "" {
		fmt.Fprintf(&b, "Generator: %s\n", gen)
	}
	if c := e.g.Asset.Copyright; c != "" {
		fmt.Fprintf(&b, "Copyright: %s\n", c)
	}
	if e.opts.Debug {
		fmt.Fprintf(&b, "Stats: %d meshes, %d materials, %d instanced classes\n",
			len(e.nodeReg), len(e.matReg), len(e.classes))
	}
	b.WriteString("*/\n\n")
	return b.String()
}

func (e *emitter) writeImports(out *strings.Builder) {
	if e.opts.Types {
		out.WriteString("import * as THREE from 'three'\n")
	}

	var hooks []string
	if e.hasInstancing() {
		hooks = append(hooks, "createContext", "useContext", "useMemo")
	}
	if e.hasAnimations() {
		hooks = append(hooks, "useRef")
	}
	if len(hooks) == 0 {
		out.WriteString("import React from 'react'\n")
	} else {
		fmt.Fprintf(out, "import React, { %s } from 'react'\n", strings.Join(hooks, ", "))
	}

	drei := []string{"useGLTF"}
	if e.hasAnimations() {
		drei = append(drei, "useAnimations")
	}
	if e.hasInstancing() {
		drei = append(drei, "Merged")
	}
	if e.hasPerspective {
		drei = append(drei, "PerspectiveCamera")
	}
	if e.hasOrtho {
		drei = append(drei, "OrthographicCamera")
	}
	fmt.Fprintf(out, "import { %s } from '@react-three/drei'\n", strings.Join(drei, ", "))

	if e.opts.Types {
		out.WriteString("import { GLTF } from 'three-stdlib'\n")
	}
	out.WriteByte('\n')
}

// writeTypes renders the result-type declaration enumerating every
// referenced node and material, derived from the traversal registries.
func (e *emitter) writeTypes(out *strings.Builder) {
	if !e.opts.Types {
		return
	}
	out.WriteString("type GLTFResult = GLTF & {\n  nodes: {\n")
	for _, r := range e.nodeReg {
		fmt.Fprintf(out, "    %s: %s\n", r.id, r.kind)
	}
	out.WriteString("  }\n  materials: {\n")
	for _, r := range e.matReg {
		fmt.Fprintf(out, "    %s: %s\n", r.id, r.kind)
	}
	out.WriteString("  }\n}\n\n")
	if e.hasInstancing() {
		out.WriteString("type ContextType = Record<string, React.ForwardRefExoticComponent<JSX.IntrinsicElements['mesh']>>\n\n")
	}
}

func (e *emitter) castResult() string {
	if e.opts.Types {
		return " as GLTFResult"
	}
	return ""
}

// writeInstances renders the shared-definition wrapper component. Every
// shared definition is written exactly once here; members in the tree body
// reference it through the context lookup.
func (e *emitter) writeInstances(out *strings.Builder) {
	if !e.hasInstancing() {
		return
	}
	if e.opts.Types {
		out.WriteString("const context = createContext({} as ContextType)\n\n")
		out.WriteString("export function Instances({ children, ...props }: JSX.IntrinsicElements['group']) {\n")
	} else {
		out.WriteString("const context = createContext()\n\n")
		out.WriteString("export function Instances({ children, ...props }) {\n")
	}
	fmt.Fprintf(out, "  const { nodes } = useGLTF('%s')%s\n", e.opts.AssetPath, e.castResult())
	out.WriteString("  const instances = useMemo(() => ({\n")
	for _, c := range e.classes {
		fmt.Fprintf(out, "    %s: nodes.%s,\n", c.name, c.name)
	}
	out.WriteString("  }), [nodes])\n")
	out.WriteString("  return (\n")
	out.WriteString("    <Merged meshes={instances} {...props}>\n")
	if e.opts.Types {
		out.WriteString("      {(instances: ContextType) => <context.Provider value={instances} children={children} />}\n")
	} else {
		out.WriteString("      {(instances) => <context.Provider value={instances} children={children} />}\n")
	}
	out.WriteString("    </Merged>\n  )\n}\n\n")
}

func (e *emitter) writeModel(out *strings.Builder) {
	if e.opts.Types {
		fmt.Fprintf(out, "export function %s(props: JSX.IntrinsicElements['group']) {\n", e.opts.ComponentName)
	} else {
		fmt.Fprintf(out, "export function %s(props) {\n", e.opts.ComponentName)
	}
	if e.hasInstancing() {
		out.WriteString("  const instances = useContext(context)\n")
	}
	if e.hasAnimations() {
		if e.opts.Types {
			out.WriteString("  const group = useRef<THREE.Group>(null)\n")
		} else {
			out.WriteString("  const group = useRef()\n")
		}
		fmt.Fprintf(out, "  const { nodes, materials, animations } = useGLTF('%s')%s\n", e.opts.AssetPath, e.castResult())
		out.WriteString("  const { actions } = useAnimations(animations, group)\n")
	} else {
		fmt.Fprintf(out, "  const { nodes, materials } = useGLTF('%s')%s\n", e.opts.AssetPath, e.castResult())
	}
	out.WriteString("  return (\n")
	if e.hasAnimations() {
		out.WriteString("    <group ref={group} {...props} dispose={null}>\n")
	} else {
		out.WriteString("    <group {...props} dispose={null}>\n")
	}
	out.WriteString(e.body.String())
	out.WriteString("    </group>\n  )\n}\n\n")
}
