package canvas

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colors containers are drawn with
var Palette = []lipgloss.Color{
	"#4ccbf1", "#4dca7d", "#6ead26",
	"#f5c800", "#f89048", "#f46251",
	"#eb82bc", "#9f83e4", "#5084f3",
}

// RenderOptions configures text rendering
type RenderOptions struct {
	// Styled enables lipgloss colors
	Styled bool
	// Highlight is the name of a node drawn in reverse video
	Highlight string
}

// Snapshot renders the tree under n as plain text, one node per line
func Snapshot(n *Node) string {
	return strings.Join(Lines(n, RenderOptions{}), "\n")
}

// Lines renders the tree under n, one node per line. Relocated children are
// marked with an arrow and tinted with their container's color.
func Lines(n *Node, opts RenderOptions) []string {
	var lines []string
	lines = append(lines, label(n, false, "", opts))
	walk(n, "", opts, &lines)
	return lines
}

func walk(n *Node, prefix string, opts RenderOptions, lines *[]string) {
	children := n.Children()
	declared := len(n.children)
	for i, c := range children {
		last := i == len(children)-1
		branch, indent := "├─", "│  "
		if last {
			branch, indent = "└─", "   "
		}
		relocated := i >= declared
		tint := ""
		if relocated {
			branch += "▸"
			tint = n.container
		} else {
			branch += " "
		}
		*lines = append(*lines, style(prefix+branch, tint, opts)+label(c, relocated, tint, opts))
		walk(c, prefix+indent, opts, lines)
	}
}

func label(n *Node, relocated bool, tint string, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString(n.kind.String())
	b.WriteString(" ")
	b.WriteString(n.name)
	if n.text != "" {
		fmt.Fprintf(&b, " %q", n.text)
	}
	text := b.String()

	if opts.Styled {
		if relocated {
			text = style(text, tint, opts)
		}
		if n.name == opts.Highlight {
			text = lipgloss.NewStyle().Reverse(true).Render(text)
		}
	}
	if n.container != "" {
		text += " " + containerTag(n.container, opts)
	}
	return text
}

func containerTag(id string, opts RenderOptions) string {
	tag := "[" + id + "]"
	if !opts.Styled {
		return tag
	}
	if color, ok := ContainerColor(id); ok {
		return lipgloss.NewStyle().Foreground(color).Bold(true).Render(tag)
	}
	return ColorDim(tag)
}

func style(text, container string, opts RenderOptions) string {
	if !opts.Styled {
		return text
	}
	if color, ok := ContainerColor(container); ok {
		return lipgloss.NewStyle().Foreground(color).Render(text)
	}
	return ColorDim(text)
}

// ContainerColor picks a palette color for a container id. The same id
// always gets the same color.
func ContainerColor(id string) (lipgloss.Color, bool) {
	if id == "" {
		return "", false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return Palette[h.Sum32()%uint32(len(Palette))], true
}

func paint(color lipgloss.Color) func(string) string {
	st := lipgloss.NewStyle().Foreground(color)
	return func(text string) string { return st.Render(text) }
}

// Terminal colors for status text
var (
	ColorDim    = paint("8")
	ColorYellow = paint("3")
	ColorRed    = paint("1")
)
