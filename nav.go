package epub

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// parseNavDoc parses an EPUB 3 XHTML navigation document and returns the
// toc nav as tree roots. Node srcs stay relative to the nav document;
// the facade resolves them. playOrder is assigned in document order,
// starting at 1, since nav documents carry none.
func parseNavDoc(data []byte) (*TocTree, error) {
	doc, err := html.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		return nil, err
	}

	var tocNav *html.Node
	var findNav func(*html.Node)
	findNav = func(n *html.Node) {
		if tocNav != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "nav" && hasEpubType(n, "toc") {
			tocNav = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findNav(c)
		}
	}
	findNav(doc)

	t := &TocTree{}
	if tocNav == nil {
		return t, nil
	}

	playOrder := 0
	if ol := findFirstChildElement(tocNav, "ol"); ol != nil {
		t.Roots = parseNavList(ol, 0, &playOrder)
	}
	return t, nil
}

// parseNavList converts the <li> children of an <ol> into tree nodes.
func parseNavList(ol *html.Node, depth int, playOrder *int) []*TocTreeNode {
	var nodes []*TocTreeNode
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			nodes = append(nodes, parseNavEntry(c, depth, playOrder))
		}
	}
	return nodes
}

// parseNavEntry converts one <li>: the first <a> supplies title and src,
// a <span> supplies a title for unlinked headings, and a nested <ol>
// supplies children.
func parseNavEntry(li *html.Node, depth int, playOrder *int) *TocTreeNode {
	*playOrder++
	node := &TocTreeNode{PlayOrder: *playOrder, Depth: depth}

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			if node.Src == "" {
				node.Src = unescapeHref(navGetAttr(c, "href"))
				node.Title = strings.TrimSpace(nodeTextContent(c))
				node.ID = navGetAttr(c, "id")
			}
		case "span":
			if node.Title == "" {
				node.Title = strings.TrimSpace(nodeTextContent(c))
			}
		case "ol":
			node.Children = parseNavList(c, depth+1, playOrder)
		}
	}
	return node
}

// hasEpubType checks whether n has an epub:type attribute containing the
// given token (space-separated token matching).
func hasEpubType(n *html.Node, typeName string) bool {
	val := navGetAttr(n, "epub:type")
	for _, t := range strings.Fields(val) {
		if t == typeName {
			return true
		}
	}
	return false
}

// navGetAttr returns the value of the attribute with the given key on n.
func navGetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findFirstChildElement performs a depth-first search for the first
// descendant element with the given tag name.
func findFirstChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findFirstChildElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// nodeTextContent recursively collects all text content within a node.
func nodeTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeTextContent(c))
	}
	return sb.String()
}
