package bplustree

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
)

// WriteDOT renders the tree as a Graphviz digraph. Internal nodes list their
// separators with one port per child; leaves list their keys and are joined
// by dashed edges along the sibling chain.
func (t *Tree[K, V]) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph BPlusTree {")
	fmt.Fprintln(bw, `  graph [ranksep=0.8, nodesep=0.5, bgcolor="#ffffff", rankdir=TB];`)
	fmt.Fprintln(bw, `  node [shape=none, fontname="Helvetica", fontsize=10];`)
	fmt.Fprintln(bw, `  edge [arrowsize=0.8, color="#444444"];`)

	names := make(map[*Node[K, V]]string)
	var leaves []*Node[K, V]

	var export func(n *Node[K, V]) string
	export = func(n *Node[K, V]) string {
		name := fmt.Sprintf("node%d", len(names))
		names[n] = name
		fill := 100 * float64(n.Len()) / float64(t.td.max)

		var label strings.Builder
		if n.IsLeaf() {
			fmt.Fprintf(&label, `<<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="4">`+
				`<TR><TD BGCOLOR="#D5E8D4"><B>LEAF</B><BR/><FONT POINT-SIZE="8">Fill: %.1f%%</FONT></TD></TR>`+
				`<TR><TD PORT="keys" BGCOLOR="#F5F5F5" ALIGN="LEFT">`, fill)
			for _, s := range n.slots {
				fmt.Fprintf(&label, "<B>%s</B><BR/>", dotText(s.key))
			}
			label.WriteString(`</TD></TR></TABLE>>`)
			fmt.Fprintf(bw, "  %s [label=%s];\n", name, label.String())
			leaves = append(leaves, n)
			return name
		}

		fmt.Fprintf(&label, `<<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="4">`+
			`<TR><TD COLSPAN="%d" BGCOLOR="#DAE8FC"><B>INTERNAL</B><BR/><FONT POINT-SIZE="8">Fill: %.1f%%</FONT></TD></TR><TR>`,
			max(n.Len(), 1), fill)
		for i, s := range n.slots {
			fmt.Fprintf(&label, `<TD PORT="f%d" BGCOLOR="#E1F5FE">&lt; %s</TD>`, i, dotText(s.key))
		}
		if n.Len() == 0 {
			label.WriteString("<TD></TD>")
		}
		label.WriteString(`</TR></TABLE>>`)
		fmt.Fprintf(bw, "  %s [label=%s];\n", name, label.String())

		for i, s := range n.slots {
			fmt.Fprintf(bw, "  %s:f%d -> %s;\n", name, i, export(s.child))
		}
		return name
	}

	if t.root != nil {
		export(t.root)
	}

	if len(leaves) > 1 {
		fmt.Fprintln(bw, "  { rank=same;")
		for _, l := range leaves {
			fmt.Fprintf(bw, "    %s;\n", names[l])
		}
		fmt.Fprintln(bw, "  }")
		for _, l := range leaves {
			if target, ok := names[l.next]; ok && l.next != nil {
				fmt.Fprintf(bw, "  %s -> %s [style=dashed, color=\"#03A9F4\", constraint=false];\n", names[l], target)
			}
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func dotText(v any) string {
	s := fmt.Sprint(v)
	if len(s) > 12 {
		s = s[:12] + ".."
	}
	return html.EscapeString(s)
}
