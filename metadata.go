package epub

import (
	"strconv"
	"strings"
)

// refinesKeyPrefix is the bookkeeping prefix under which refinement facts
// are mirrored into the raw tag map. Keys with this prefix never surface
// through Other().
const refinesKeyPrefix = "refines-"

// MetadataValue is one recorded metadata fact. Exactly four concrete
// forms exist, distinguishing how the fact was expressed in the package
// document: a Dublin Core element, a name/content meta, a property meta,
// or a refinement targeting another expression by id.
type MetadataValue interface {
	// Content returns the primary textual payload of the fact.
	Content() string

	metadataValue()
}

// DublinCoreValue is a Dublin Core element: its text content plus every
// attribute, captured verbatim under attribute local names.
type DublinCoreValue struct {
	Value string
	Attrs map[string]string
}

// MetaNameValue is a legacy <meta name="..." content="..."> pair.
type MetaNameValue struct {
	ContentAttr string
}

// MetaPropertyValue is a property-style meta expression.
type MetaPropertyValue struct {
	ContentText string
}

// MetaRefinesValue is a refinement of another expression, keyed by the
// target id with the leading '#' stripped.
type MetaRefinesValue struct {
	RefinesID   string
	Property    string
	ContentText string
	Scheme      string
}

func (v DublinCoreValue) Content() string   { return v.Value }
func (v MetaNameValue) Content() string     { return v.ContentAttr }
func (v MetaPropertyValue) Content() string { return v.ContentText }
func (v MetaRefinesValue) Content() string  { return v.ContentText }

func (DublinCoreValue) metadataValue()   {}
func (MetaNameValue) metadataValue()     {}
func (MetaPropertyValue) metadataValue() {}
func (MetaRefinesValue) metadataValue()  {}

// Creator is an author or contributor resolved from the metadata.
type Creator struct {
	Name string
	Role string
	// DisplaySeq is the 1-based display ordering refinement; 0 means unset.
	DisplaySeq int
	ID         string
}

// Identifier is a book identifier (ISBN, UUID, DOI, ...).
type Identifier struct {
	Value  string
	Scheme string
	ID     string
}

// MetadataStore accumulates metadata facts under their raw tag names and
// answers semantic queries through an injected TagConfig. Values for a tag
// keep insertion order; refinements are held in a side table keyed by
// target id, never embedded in the values they refine.
type MetadataStore struct {
	cfg     TagConfig
	raw     map[string][]MetadataValue
	rawKeys []string // tag insertion order
	refines map[string][]MetaRefinesValue
}

// NewMetadataStore returns an empty store resolving fields through cfg.
func NewMetadataStore(cfg TagConfig) *MetadataStore {
	return &MetadataStore{
		cfg:     cfg,
		raw:     make(map[string][]MetadataValue),
		refines: make(map[string][]MetaRefinesValue),
	}
}

func (m *MetadataStore) record(tag string, v MetadataValue) {
	if _, seen := m.raw[tag]; !seen {
		m.rawKeys = append(m.rawKeys, tag)
	}
	m.raw[tag] = append(m.raw[tag], v)
}

// AddDublinCore records a Dublin Core element under its local tag name.
func (m *MetadataStore) AddDublinCore(tag, value string, attrs map[string]string) {
	m.record(tag, DublinCoreValue{Value: value, Attrs: attrs})
}

// AddMetaName records a name/content meta under the name as tag.
func (m *MetadataStore) AddMetaName(name, content string) {
	m.record(name, MetaNameValue{ContentAttr: content})
}

// AddMetaProperty records a property meta under the property as tag.
func (m *MetadataStore) AddMetaProperty(property, content string) {
	m.record(property, MetaPropertyValue{ContentText: content})
}

// AddMetaRefines records a refinement in the side table and mirrors it
// under the bookkeeping tag "refines-<id>".
func (m *MetadataStore) AddMetaRefines(refinesID, property, content, scheme string) {
	v := MetaRefinesValue{RefinesID: refinesID, Property: property, ContentText: content, Scheme: scheme}
	m.refines[refinesID] = append(m.refines[refinesID], v)
	m.record(refinesKeyPrefix+refinesID, v)
}

// Values returns the recorded facts for a raw tag, in insertion order.
func (m *MetadataStore) Values(tag string) []MetadataValue {
	return m.raw[tag]
}

// Refines returns the refinement facts targeting id.
func (m *MetadataStore) Refines(id string) []MetaRefinesValue {
	return m.refines[id]
}

// refineValue finds the first refinement of id carrying property.
func (m *MetadataStore) refineValue(id, property string) (MetaRefinesValue, bool) {
	for _, v := range m.refines[id] {
		if v.Property == property {
			return v, true
		}
	}
	return MetaRefinesValue{}, false
}

// findFirst scans the candidate tags in configured order and returns the
// first recorded value.
func (m *MetadataStore) findFirst(tl TagList) (MetadataValue, bool) {
	for _, tag := range tl.Tags {
		if vs := m.raw[tag]; len(vs) > 0 {
			return vs[0], true
		}
	}
	return nil, false
}

// findAll concatenates the values of every candidate tag, candidates in
// configured order and values in insertion order.
func (m *MetadataStore) findAll(tl TagList) []MetadataValue {
	var out []MetadataValue
	for _, tag := range tl.Tags {
		out = append(out, m.raw[tag]...)
	}
	return out
}

func (m *MetadataStore) firstContent(tl TagList) string {
	if v, ok := m.findFirst(tl); ok {
		return v.Content()
	}
	return ""
}

// Title returns the book title, or "" when absent.
func (m *MetadataStore) Title() string { return m.firstContent(m.cfg.Title) }

// Language returns the primary language, or "" when absent.
func (m *MetadataStore) Language() string { return m.firstContent(m.cfg.Language) }

// Publisher returns the publisher, or "" when absent.
func (m *MetadataStore) Publisher() string { return m.firstContent(m.cfg.Publisher) }

// Date returns the publication date, or "" when absent.
func (m *MetadataStore) Date() string { return m.firstContent(m.cfg.Date) }

// Description returns the description, or "" when absent.
func (m *MetadataStore) Description() string { return m.firstContent(m.cfg.Description) }

// Rights returns the rights statement, or "" when absent.
func (m *MetadataStore) Rights() string { return m.firstContent(m.cfg.Rights) }

// Cover returns the cover metadata value, usually a manifest id, or ""
// when absent.
func (m *MetadataStore) Cover() string { return m.firstContent(m.cfg.Cover) }

// Modified returns the last-modified timestamp, or "" when absent.
func (m *MetadataStore) Modified() string { return m.firstContent(m.cfg.Modified) }

// Creators returns the resolved creator list.
func (m *MetadataStore) Creators() []Creator { return m.people(m.cfg.Creator) }

// Contributors returns the resolved contributor list.
func (m *MetadataStore) Contributors() []Creator { return m.people(m.cfg.Contributor) }

// people resolves creator-shaped facts. Dublin Core values carry name,
// role and id in attributes; the role attribute is kept verbatim. When
// the value has an id, refinements may supply the role (a MARC relator
// code, translated) and display-seq instead. Meta-based values carry a
// name only.
func (m *MetadataStore) people(tl TagList) []Creator {
	var out []Creator
	for _, v := range m.findAll(tl) {
		switch dc := v.(type) {
		case DublinCoreValue:
			c := Creator{
				Name: dc.Value,
				Role: dc.Attrs["role"],
				ID:   dc.Attrs["id"],
			}
			if c.ID != "" {
				if rv, ok := m.refineValue(c.ID, "role"); ok {
					c.Role = mapRole(rv.ContentText)
				}
				if rv, ok := m.refineValue(c.ID, "display-seq"); ok {
					if n, err := strconv.Atoi(strings.TrimSpace(rv.ContentText)); err == nil {
						c.DisplaySeq = n
					}
				}
			}
			out = append(out, c)
		default:
			if v.Content() != "" {
				out = append(out, Creator{Name: v.Content()})
			}
		}
	}
	return out
}

// Subjects returns all subject strings.
func (m *MetadataStore) Subjects() []string {
	var out []string
	for _, v := range m.findAll(m.cfg.Subject) {
		if v.Content() != "" {
			out = append(out, v.Content())
		}
	}
	return out
}

// Identifiers returns all identifiers with their schemes. Dublin Core
// values carry scheme and id in attributes; a missing scheme may be
// recovered from an identifier-type refinement.
func (m *MetadataStore) Identifiers() []Identifier {
	var out []Identifier
	for _, v := range m.findAll(m.cfg.Identifier) {
		switch dc := v.(type) {
		case DublinCoreValue:
			id := Identifier{Value: dc.Value, Scheme: dc.Attrs["scheme"], ID: dc.Attrs["id"]}
			if id.ID != "" && id.Scheme == "" {
				if rv, ok := m.refineValue(id.ID, "identifier-type"); ok {
					id.Scheme = rv.ContentText
					if rv.Scheme != "" {
						id.Scheme = rv.Scheme
					}
				}
			}
			out = append(out, id)
		default:
			if v.Content() != "" {
				out = append(out, Identifier{Value: v.Content()})
			}
		}
	}
	return out
}

// Other returns the first value content of every tag not claimed by the
// configuration, excluding refinement bookkeeping keys.
func (m *MetadataStore) Other() map[string]string {
	claimed := m.cfg.allTags()
	out := make(map[string]string)
	for _, tag := range m.rawKeys {
		if claimed[tag] || strings.HasPrefix(tag, refinesKeyPrefix) {
			continue
		}
		if vs := m.raw[tag]; len(vs) > 0 {
			out[tag] = vs[0].Content()
		}
	}
	return out
}

// MetadataStats counts recorded facts by kind.
type MetadataStats struct {
	Tags         int
	DublinCore   int
	MetaName     int
	MetaProperty int
	MetaRefines  int
}

// Stats summarizes the store contents.
func (m *MetadataStore) Stats() MetadataStats {
	var s MetadataStats
	for _, tag := range m.rawKeys {
		if strings.HasPrefix(tag, refinesKeyPrefix) {
			continue
		}
		s.Tags++
		for _, v := range m.raw[tag] {
			switch v.(type) {
			case DublinCoreValue:
				s.DublinCore++
			case MetaNameValue:
				s.MetaName++
			case MetaPropertyValue:
				s.MetaProperty++
			}
		}
	}
	for _, vs := range m.refines {
		s.MetaRefines += len(vs)
	}
	return s
}

// mapRole translates the common MARC relator codes; unknown codes pass
// through unchanged.
func mapRole(code string) string {
	switch code {
	case "aut":
		return "author"
	case "edt":
		return "editor"
	case "trl":
		return "translator"
	case "ill":
		return "illustrator"
	default:
		return code
	}
}
