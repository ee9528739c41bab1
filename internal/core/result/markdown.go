package result

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToMarkdown converts an HTML fragment to simplified markdown. Headings,
// paragraphs, lists and tables are kept; everything else collapses to text.
func ToMarkdown(fragment string) (string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	var w mdWriter
	w.walk(doc)
	return strings.TrimSpace(strings.Join(w.blocks, "\n\n")), nil
}

type mdWriter struct {
	blocks []string
}

func (w *mdWriter) block(s string) {
	s = strings.TrimSpace(s)
	if s != "" {
		w.blocks = append(w.blocks, s)
	}
}

func (w *mdWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.block(collapse(n.Data))
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Title:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			if text := inlineText(n); text != "" {
				w.block(strings.Repeat("#", level) + " " + text)
			}
			return
		case atom.P, atom.Pre, atom.Blockquote:
			w.block(inlineText(n))
			return
		case atom.Table:
			w.block(tableMarkdown(n))
			return
		case atom.Ul, atom.Ol:
			w.block(listMarkdown(n))
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func listMarkdown(list *html.Node) string {
	var lines []string
	i := 1
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		marker := "-"
		if list.DataAtom == atom.Ol {
			marker = strconv.Itoa(i) + "."
			i++
		}
		lines = append(lines, marker+" "+inlineText(c))
	}
	return strings.Join(lines, "\n")
}

func tableMarkdown(table *html.Node) string {
	rows := tableRows(table, inlineText)
	if len(rows) == 0 {
		return ""
	}

	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := range cols {
			cell := ""
			if i < len(cells) {
				cell = strings.ReplaceAll(cells[i], "|", `\|`)
			}
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sb.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return sb.String()
}

// tableRows returns cellText of each th/td cell, row by row.
func tableRows(table *html.Node, cellText func(*html.Node) string) [][]string {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// nested tables are flattened into their cell text
			case atom.Tr:
				var cells []string
				for td := c.FirstChild; td != nil; td = td.NextSibling {
					if td.Type == html.ElementNode && (td.DataAtom == atom.Td || td.DataAtom == atom.Th) {
						cells = append(cells, cellText(td))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			default:
				visit(c)
			}
		}
	}
	visit(table)
	return rows
}

func inlineText(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.Br:
				sb.WriteString(" ")
				return
			case atom.Strong, atom.B:
				var inner strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					inner.WriteString(inlineText(c))
					inner.WriteString(" ")
				}
				if text := collapse(inner.String()); text != "" {
					sb.WriteString(" **" + text + "** ")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return collapse(sb.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
