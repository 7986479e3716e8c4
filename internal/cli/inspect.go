package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/gltf"
	"github.com/sceneforge/sceneforge/pkg/scene"
)

// Tree styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	treeKindStyle     = lipgloss.NewStyle().Foreground(colorGray)
)

// newInspectCmd creates the inspect command, an interactive browser for an
// asset's node hierarchy.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <asset-file>",
		Short: "Browse an asset's node hierarchy interactively",
		Long: `Open an interactive tree browser over the asset's node hierarchy.

Keys:
  up/k, down/j   move the cursor
  enter, space   collapse or expand the node under the cursor
  q, esc         quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			g, err := gltf.Load(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			model := newTreeModel(g, args[0])
			p := tea.NewProgram(model, tea.WithContext(c.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// treeRow is one visible line of the tree, a flattened node with its depth.
type treeRow struct {
	node  *scene.Node
	depth int
}

// TreeModel is the bubbletea model for the hierarchy browser.
type TreeModel struct {
	graph     *scene.Graph
	title     string
	rows      []treeRow
	collapsed map[*scene.Node]bool
	cursor    int
	height    int
	offset    int
}

// newTreeModel creates a tree model with every node expanded.
func newTreeModel(g *scene.Graph, title string) TreeModel {
	m := TreeModel{
		graph:     g,
		title:     title,
		collapsed: make(map[*scene.Node]bool),
		height:    15,
	}
	m.rebuild()
	return m
}

// rebuild flattens the hierarchy into visible rows, skipping the children of
// collapsed nodes.
func (m *TreeModel) rebuild() {
	m.rows = m.rows[:0]
	var walk func(n *scene.Node, depth int)
	walk = func(n *scene.Node, depth int) {
		m.rows = append(m.rows, treeRow{node: n, depth: depth})
		if m.collapsed[n] {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range m.graph.Roots {
		walk(r, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if len(m.rows) > 0 {
				n := m.rows[m.cursor].node
				if len(n.Children) > 0 {
					m.collapsed[n] = !m.collapsed[n]
					m.rebuild()
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ navigate  ⏎ collapse  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		n := row.node

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "  "
		if len(n.Children) > 0 {
			if m.collapsed[n] {
				marker = "+ "
			} else {
				marker = "- "
			}
		}

		name := n.Name
		if name == "" {
			name = "(unnamed)"
		}

		style := treeNormalStyle
		if i == m.cursor {
			style = treeSelectedStyle
		} else if !n.Visible {
			style = treeDimStyle
		}

		b.WriteString(cursor)
		b.WriteString(strings.Repeat("  ", row.depth))
		b.WriteString(marker)
		b.WriteString(style.Render(name))
		b.WriteString(" ")
		b.WriteString(treeKindStyle.Render(m.describe(n)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))

	return b.String()
}

// describe summarizes a node's kind and entity references for the detail
// column.
func (m TreeModel) describe(n *scene.Node) string {
	parts := []string{n.Kind.String()}
	if n.Geometry != "" {
		if geo, ok := m.graph.Geometries[n.Geometry]; ok {
			parts = append(parts, fmt.Sprintf("%d verts", geo.VertexCount))
		}
	}
	if n.Material != "" {
		if mat, ok := m.graph.Materials[n.Material]; ok && mat.Name != "" {
			parts = append(parts, mat.Name)
		}
	}
	if n.Skin != "" {
		parts = append(parts, "skinned")
	}
	if n.AnimationTarget {
		parts = append(parts, "animated")
	}
	if !n.Visible {
		parts = append(parts, "hidden")
	}
	return "[" + strings.Join(parts, " · ") + "]"
}
