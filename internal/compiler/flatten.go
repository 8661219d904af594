package compiler

import (
	"fmt"
	"strings"

	"strevm/internal/graph"
)

// Flatten walks a Bigraph's root nodes in insertion order and emits one
// assembly line (or comment) per recognized node, recursing into
// children for procers/while. It then concatenates the flattener's
// output after the lines expression lowering already produced during
// graph construction, filters blank and comment-only lines, and appends a
// terminating HALT.
func Flatten(ctx *CompileContext, g *graph.Bigraph) []string {
	var flattened []string
	visited := make([]bool, len(g.Nodes))

	for i, n := range g.Nodes {
		if n.Parent != -1 || visited[i] {
			continue
		}
		flattenNode(g, i, visited, &flattened)
	}

	combined := append(append([]string{}, g.Instructions...), flattened...)
	filtered := filterAssemblable(combined)
	filtered = append(filtered, "HALT")
	return filtered
}

func flattenNode(g *graph.Bigraph, idx int, visited []bool, out *[]string) {
	if visited[idx] {
		return
	}
	visited[idx] = true
	n := g.Nodes[idx]

	if strings.TrimSpace(n.Name) == "" {
		return
	}

	switch {
	case strings.HasPrefix(n.Name, "decl_"):
		*out = append(*out, fmt.Sprintf("; declaration of %s", n.Name[len("decl_"):]))
	case strings.HasPrefix(n.Name, "assign_"):
		*out = append(*out, fmt.Sprintf("; assignment to %s", n.Name[len("assign_"):]))
	case n.Name == "procers":
		*out = append(*out, "NOP ; begin procers")
		for _, c := range n.Children {
			flattenNode(g, c, visited, out)
		}
		*out = append(*out, "NOP ; end procers")
	case n.Name == "colectavgB":
		*out = append(*out, "NOP ; colectavgB stub")
	case n.Name == "while":
		*out = append(*out, "NOP ; begin while")
		for _, c := range n.Children {
			flattenNode(g, c, visited, out)
		}
		*out = append(*out, "NOP ; end while")
	default:
		*out = append(*out, fmt.Sprintf("; unrecognized node: %s", n.Name))
	}
}

// filterAssemblable drops blank lines and comment-only lines before the
// combined stream is handed to the assembler.
func filterAssemblable(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || trimmed[0] == ';' {
			continue
		}
		out = append(out, l)
	}
	return out
}
