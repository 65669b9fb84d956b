package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// NavPoint is one entry in the NCX navigation map. Children hold the
// nested navPoints in playOrder.
type NavPoint struct {
	ID        string
	Class     string
	PlayOrder int
	Label     string
	Src       string
	Children  []*NavPoint
}

// NCXMeta holds the well-known head metas; anything else lands in Other.
type NCXMeta struct {
	UID            string
	Depth          int
	TotalPageCount int
	MaxPageNumber  int
	Other          map[string]string
}

// PageTarget is one printed-page anchor from the pageList.
type PageTarget struct {
	ID        string
	Type      string
	Value     int
	PlayOrder int
	Label     string
	Src       string
}

// PageList is the optional printed-page navigation list.
type PageList struct {
	Label   string
	Targets []PageTarget
}

// NCX is the parsed NCX navigation document.
type NCX struct {
	Version   string
	Lang      string
	Meta      NCXMeta
	DocTitle  string
	NavPoints []*NavPoint
	PageList  *PageList
}

// Depth returns the declared dtb:depth when present, otherwise the
// nesting depth computed from the navigation map.
func (n *NCX) Depth() int {
	if n.Meta.Depth > 0 {
		return n.Meta.Depth
	}
	var walk func(pts []*NavPoint) int
	walk = func(pts []*NavPoint) int {
		max := 0
		for _, p := range pts {
			if d := 1 + walk(p.Children); d > max {
				max = d
			}
		}
		return max
	}
	return walk(n.NavPoints)
}

// AllNavPoints flattens the navigation map depth-first, parents before
// children.
func (n *NCX) AllNavPoints() []*NavPoint {
	var out []*NavPoint
	var walk func(pts []*NavPoint)
	walk = func(pts []*NavPoint) {
		for _, p := range pts {
			out = append(out, p)
			walk(p.Children)
		}
	}
	walk(n.NavPoints)
	return out
}

// FindNavPoint returns the first navPoint with the given id, depth-first.
func (n *NCX) FindNavPoint(id string) (*NavPoint, bool) {
	for _, p := range n.AllNavPoints() {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// ChapterPaths returns the src of every navPoint in depth-first order,
// empty entries skipped.
func (n *NCX) ChapterPaths() []string {
	var out []string
	for _, p := range n.AllNavPoints() {
		if p.Src != "" {
			out = append(out, p.Src)
		}
	}
	return out
}

// HasPageList reports whether the document carried a non-empty pageList.
func (n *NCX) HasPageList() bool {
	return n.PageList != nil && len(n.PageList.Targets) > 0
}

// parseNCXDoc parses an NCX document from its raw text.
//
// navPoint nesting arrives as a flat event stream, so an explicit stack
// reconstructs the tree: a navPoint start pushes the in-progress point,
// its end pops the parent and attaches the finished point (or appends it
// as a root). Label text and content src always bind to the innermost
// open point. After the walk the whole map is sorted by playOrder,
// recursively and stably.
func parseNCXDoc(data []byte) (*NCX, error) {
	dec := newXMLDecoder(bytes.NewReader(stripBOM(data)))

	ncx := &NCX{Meta: NCXMeta{Other: make(map[string]string)}}

	var (
		section  string
		stack    []*NavPoint
		current  *NavPoint
		pageList *PageList
		target   *PageTarget
		textBuf  strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNCXParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			textBuf.Reset()
			switch localName(t.Name) {
			case "ncx":
				ncx.Version = attrValue(t.Attr, "version")
				ncx.Lang = attrValue(t.Attr, "lang")
			case "head", "docTitle", "navMap", "pageList":
				section = localName(t.Name)
				if section == "pageList" {
					pageList = &PageList{}
				}
			case "meta":
				if section != "head" {
					continue
				}
				name := attrValue(t.Attr, "name")
				content := attrValue(t.Attr, "content")
				switch name {
				case "dtb:uid":
					ncx.Meta.UID = content
				case "dtb:depth":
					ncx.Meta.Depth = parseIntOrZero(content)
				case "dtb:totalPageCount":
					ncx.Meta.TotalPageCount = parseIntOrZero(content)
				case "dtb:maxPageNumber":
					ncx.Meta.MaxPageNumber = parseIntOrZero(content)
				default:
					if name != "" {
						ncx.Meta.Other[name] = content
					}
				}
			case "navPoint":
				if current != nil {
					stack = append(stack, current)
				}
				current = &NavPoint{
					ID:        attrValue(t.Attr, "id"),
					Class:     attrValue(t.Attr, "class"),
					PlayOrder: parseIntOrZero(attrValue(t.Attr, "playOrder")),
				}
			case "pageTarget":
				if section != "pageList" {
					continue
				}
				target = &PageTarget{
					ID:        attrValue(t.Attr, "id"),
					Type:      attrValue(t.Attr, "type"),
					Value:     parseIntOrZero(attrValue(t.Attr, "value")),
					PlayOrder: parseIntOrZero(attrValue(t.Attr, "playOrder")),
				}
				if target.Type == "" {
					target.Type = "normal"
				}
			case "content":
				src := attrValue(t.Attr, "src")
				switch {
				case target != nil:
					target.Src = src
				case current != nil:
					current.Src = src
				}
			}

		case xml.CharData:
			textBuf.Write(t)

		case xml.EndElement:
			switch localName(t.Name) {
			case "head", "docTitle", "navMap":
				section = ""
			case "pageList":
				section = ""
				if pageList != nil && len(pageList.Targets) > 0 {
					ncx.PageList = pageList
				}
				pageList = nil
			case "text":
				text := strings.TrimSpace(textBuf.String())
				switch {
				case section == "docTitle":
					ncx.DocTitle = text
				case target != nil:
					target.Label = text
				case section == "pageList" && pageList != nil:
					pageList.Label = text
				case current != nil:
					current.Label = text
				}
			case "navPoint":
				finished := current
				if len(stack) > 0 {
					parent := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					parent.Children = append(parent.Children, finished)
					current = parent
				} else {
					if finished != nil {
						ncx.NavPoints = append(ncx.NavPoints, finished)
					}
					current = nil
				}
			case "pageTarget":
				if target != nil && pageList != nil {
					pageList.Targets = append(pageList.Targets, *target)
				}
				target = nil
			}
		}
	}

	sortNavPoints(ncx.NavPoints)
	return ncx, nil
}

// sortNavPoints orders siblings by playOrder at every level. The sort is
// stable so document order breaks ties.
func sortNavPoints(pts []*NavPoint) {
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].PlayOrder < pts[j].PlayOrder
	})
	for _, p := range pts {
		sortNavPoints(p.Children)
	}
}

// parseIntOrZero parses a decimal attribute, treating anything unparseable
// as 0.
func parseIntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
