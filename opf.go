package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ManifestItem is one publication resource declared in the manifest.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// HasProperty reports whether the item declares the given property token.
func (it ManifestItem) HasProperty(p string) bool {
	for _, prop := range it.Properties {
		if prop == p {
			return true
		}
	}
	return false
}

// IsNav reports whether the item is the navigation document.
func (it ManifestItem) IsNav() bool { return it.HasProperty("nav") }

// IsCoverImage reports whether the item is flagged as the cover image.
func (it ManifestItem) IsCoverImage() bool { return it.HasProperty("cover-image") }

// IsImage reports whether the item's media type is an image type.
func (it ManifestItem) IsImage() bool {
	return strings.HasPrefix(it.MediaType, "image/")
}

// IsCSS reports whether the item is a stylesheet.
func (it ManifestItem) IsCSS() bool { return it.MediaType == "text/css" }

// IsXHTML reports whether the item is an XHTML content document.
func (it ManifestItem) IsXHTML() bool {
	return it.MediaType == "application/xhtml+xml" || it.MediaType == "text/html"
}

// SpineItemRef is one reading-order entry. Linear is false only when the
// itemref declares linear="no".
type SpineItemRef struct {
	IDRef  string
	Linear bool
}

// PackageDocument is the parsed .opf package document: version, the
// metadata store, the manifest keyed by item id, and the spine reading
// order.
type PackageDocument struct {
	Version     string
	Metadata    *MetadataStore
	Manifest    map[string]ManifestItem
	Spine       []SpineItemRef
	SpineTocRef string

	manifestOrder []string
}

// Item looks up a manifest item by id.
func (p *PackageDocument) Item(id string) (ManifestItem, bool) {
	it, ok := p.Manifest[id]
	return it, ok
}

// ManifestItems returns the manifest in document order.
func (p *PackageDocument) ManifestItems() []ManifestItem {
	out := make([]ManifestItem, 0, len(p.manifestOrder))
	for _, id := range p.manifestOrder {
		out = append(out, p.Manifest[id])
	}
	return out
}

// NavPath returns the href of the navigation document, the first manifest
// item carrying the nav property. ok is false when there is none.
func (p *PackageDocument) NavPath() (string, bool) {
	for _, it := range p.ManifestItems() {
		if it.IsNav() {
			return it.Href, true
		}
	}
	return "", false
}

// CoverImagePath returns the href of the first manifest item carrying the
// cover-image property.
func (p *PackageDocument) CoverImagePath() (string, bool) {
	for _, it := range p.ManifestItems() {
		if it.IsCoverImage() {
			return it.Href, true
		}
	}
	return "", false
}

// ChapterPaths returns the hrefs of linear spine entries in reading order.
// Spine entries whose idref has no manifest item are skipped.
func (p *PackageDocument) ChapterPaths() []string {
	var out []string
	for _, ref := range p.Spine {
		if !ref.Linear {
			continue
		}
		if it, ok := p.Manifest[ref.IDRef]; ok {
			out = append(out, it.Href)
		}
	}
	return out
}

// ImagePaths returns the hrefs of all image manifest items in document order.
func (p *PackageDocument) ImagePaths() []string {
	var out []string
	for _, it := range p.ManifestItems() {
		if it.IsImage() {
			out = append(out, it.Href)
		}
	}
	return out
}

// CSSPaths returns the hrefs of all stylesheet manifest items.
func (p *PackageDocument) CSSPaths() []string {
	var out []string
	for _, it := range p.ManifestItems() {
		if it.IsCSS() {
			out = append(out, it.Href)
		}
	}
	return out
}

// parsePackageDoc parses a package document from its raw text.
//
// The token loop tracks which top-level section the cursor is inside
// (metadata, manifest or spine, by local name). Metadata children split
// three ways: name/content metas, property metas (element text wins over
// a content attribute, a refines target routes the fact into the
// refinement table), and everything else as a Dublin Core element with
// verbatim attribute capture. Manifest items missing any of id, href or
// media-type are dropped, as are spine entries with an empty idref.
func parsePackageDoc(data []byte, cfg TagConfig) (*PackageDocument, error) {
	dec := newXMLDecoder(bytes.NewReader(stripBOM(data)))

	doc := &PackageDocument{
		Metadata: NewMetadataStore(cfg),
		Manifest: make(map[string]ManifestItem),
	}

	var (
		section string
		textBuf strings.Builder

		// pending property-style meta, recorded at its end element
		metaOpen     bool
		metaProperty string
		metaRefines  string
		metaScheme   string
		metaContent  string

		// pending Dublin Core element
		dcOpen  bool
		dcTag   string
		dcAttrs map[string]string
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPackageParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			textBuf.Reset()
			name := localName(t.Name)
			switch name {
			case "package":
				doc.Version = attrValue(t.Attr, "version")
			case "metadata", "manifest", "spine":
				section = name
				if name == "spine" {
					doc.SpineTocRef = attrValue(t.Attr, "toc")
				}
			case "meta":
				if section != "metadata" {
					continue
				}
				metaName := attrValue(t.Attr, "name")
				content := attrValue(t.Attr, "content")
				if metaName != "" && content != "" {
					doc.Metadata.AddMetaName(metaName, content)
					continue
				}
				if prop := attrValue(t.Attr, "property"); prop != "" {
					metaOpen = true
					metaProperty = prop
					metaRefines = strings.TrimPrefix(attrValue(t.Attr, "refines"), "#")
					metaScheme = attrValue(t.Attr, "scheme")
					metaContent = content
				}
			case "item":
				if section != "manifest" {
					continue
				}
				it := ManifestItem{
					ID:        attrValue(t.Attr, "id"),
					Href:      attrValue(t.Attr, "href"),
					MediaType: attrValue(t.Attr, "media-type"),
				}
				if it.ID == "" || it.Href == "" || it.MediaType == "" {
					continue
				}
				if props := strings.Fields(attrValue(t.Attr, "properties")); len(props) > 0 {
					it.Properties = props
				}
				if _, dup := doc.Manifest[it.ID]; !dup {
					doc.manifestOrder = append(doc.manifestOrder, it.ID)
				}
				doc.Manifest[it.ID] = it
			case "itemref":
				if section != "spine" {
					continue
				}
				idref := attrValue(t.Attr, "idref")
				if idref == "" {
					continue
				}
				doc.Spine = append(doc.Spine, SpineItemRef{
					IDRef:  idref,
					Linear: attrValue(t.Attr, "linear") != "no",
				})
			default:
				if section == "metadata" {
					dcOpen = true
					dcTag = name
					dcAttrs = make(map[string]string, len(t.Attr))
					for _, a := range t.Attr {
						dcAttrs[localName(a.Name)] = a.Value
					}
				}
			}

		case xml.CharData:
			textBuf.Write(t)

		case xml.EndElement:
			name := localName(t.Name)
			switch name {
			case "metadata", "manifest", "spine":
				section = ""
			case "meta":
				if !metaOpen {
					continue
				}
				metaOpen = false
				content := strings.TrimSpace(textBuf.String())
				if content == "" {
					content = metaContent
				}
				if metaRefines != "" {
					doc.Metadata.AddMetaRefines(metaRefines, metaProperty, content, metaScheme)
				} else {
					doc.Metadata.AddMetaProperty(metaProperty, content)
				}
			default:
				if dcOpen && name == dcTag {
					dcOpen = false
					if value := strings.TrimSpace(textBuf.String()); value != "" {
						doc.Metadata.AddDublinCore(dcTag, value, dcAttrs)
					}
				}
			}
		}
	}

	return doc, nil
}
