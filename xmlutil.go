package epub

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// newXMLDecoder builds a token decoder configured for the XML documents
// found in real-world books: charset handling via x/text, and the full
// HTML entity table since producers routinely emit &nbsp; and friends
// without declaring them. The decoder stays strict otherwise, so a
// malformed document surfaces as a parse error.
func newXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader
	return dec
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		// Unknown label: pass bytes through rather than failing the parse.
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

// localName returns the element or attribute name without its namespace
// prefix. encoding/xml resolves prefixes to namespace URLs in Name.Space,
// so Name.Local is already prefix-free for well-formed documents; this
// also handles undeclared prefixes that survive as "prefix:name".
func localName(n xml.Name) string {
	if i := strings.LastIndex(n.Local, ":"); i >= 0 {
		return n.Local[i+1:]
	}
	return n.Local
}

// attrValue returns the value of the attribute whose local name matches
// name, or "" if absent.
func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if localName(a.Name) == name {
			return a.Value
		}
	}
	return ""
}
