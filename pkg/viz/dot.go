// Package viz renders scene graphs as Graphviz diagrams for inspection and
// debugging. The hierarchy is drawn top-down with one box per node; shared
// entity references show up in the labels rather than as extra edges, keeping
// large assets readable.
package viz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/sceneforge/sceneforge/pkg/scene"
)

// Options configures scene diagram rendering.
type Options struct {
	// Detailed includes entity keys and transforms in node labels.
	// When false, only name and kind are shown.
	Detailed bool
}

// ToDOT converts a scene graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Mesh nodes are filled to stand out; bones are dashed so skeletons are easy
// to tell apart from render geometry.
func ToDOT(g *scene.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := make(map[*scene.Node]string)
	var nodes, edges []string
	var visit func(n *scene.Node)
	visit = func(n *scene.Node) {
		id := fmt.Sprintf("n%d", len(ids))
		ids[n] = id
		label := fmtLabel(n, opts.Detailed)
		nodes = append(nodes, fmt.Sprintf("  %s [%s];", id, strings.Join(fmtAttrs(n, label), ", ")))
		for _, c := range n.Children {
			visit(c)
			edges = append(edges, fmt.Sprintf("  %s -> %s;", id, ids[c]))
		}
	}
	for _, r := range g.Roots {
		visit(r)
	}

	for _, line := range nodes {
		buf.WriteString(line + "\n")
	}
	buf.WriteString("\n")
	for _, line := range edges {
		buf.WriteString(line + "\n")
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *scene.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	label := fmt.Sprintf("%s\n%s", name, n.Kind)

	if !detailed {
		return label
	}
	var parts []string
	if n.Geometry != "" {
		parts = append(parts, "geometry: "+n.Geometry)
	}
	if n.Material != "" {
		parts = append(parts, "material: "+n.Material)
	}
	if n.Skin != "" {
		parts = append(parts, "skin: "+n.Skin)
	}
	if n.Camera != "" {
		parts = append(parts, "camera: "+n.Camera)
	}
	if n.Light != "" {
		parts = append(parts, "light: "+n.Light)
	}
	if !n.Transform.IsIdentity() {
		t := n.Transform.Translation
		parts = append(parts, fmt.Sprintf("t: [%.2f %.2f %.2f]", t[0], t[1], t[2]))
	}
	if n.AnimationTarget {
		parts = append(parts, "animated")
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *scene.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case scene.KindMesh:
		attrs = append(attrs, "fillcolor=lightsteelblue")
	case scene.KindBone:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case scene.KindCamera, scene.KindLight:
		attrs = append(attrs, "shape=diamond")
	}
	if !n.Visible {
		attrs = append(attrs, "fontcolor=grey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG, nil)
}

func render(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if post != nil {
		return post(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element to a zero-origin viewBox so
// embedding pages can scale it predictably.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
