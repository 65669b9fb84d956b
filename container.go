package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// containerPath is the well-known location of container.xml in a book archive.
const containerPath = "META-INF/container.xml"

// packageMediaType is the media type that marks a rootfile as the package
// document.
const packageMediaType = "application/oebps-package+xml"

// Container is the parsed form of META-INF/container.xml: the manifest of
// rootfile entries pointing at package documents, in document order.
type Container struct {
	Rootfiles []RootfileEntry
}

// RootfileEntry is a single <rootfile> declaration.
type RootfileEntry struct {
	FullPath  string
	MediaType string
}

// PackagePath selects the package document path: the first entry whose
// media type is the package media type, otherwise the first entry.
// ok is false when the container has no entries.
func (c *Container) PackagePath() (path string, ok bool) {
	for _, rf := range c.Rootfiles {
		if rf.MediaType == packageMediaType {
			return rf.FullPath, true
		}
	}
	if len(c.Rootfiles) > 0 {
		return c.Rootfiles[0].FullPath, true
	}
	return "", false
}

// parseContainerDoc parses the container document from its raw text.
//
// The decoder walks the token stream directly: a flag tracks whether the
// cursor is inside <rootfiles>, and each <rootfile> seen there is recorded
// when both its full-path and media-type attributes are non-empty.
// A document that yields zero entries is an error.
func parseContainerDoc(data []byte) (*Container, error) {
	dec := newXMLDecoder(bytes.NewReader(stripBOM(data)))

	c := &Container{}
	inRootfiles := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContainerParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch localName(t.Name) {
			case "rootfiles":
				inRootfiles = true
			case "rootfile":
				if !inRootfiles {
					continue
				}
				fullPath := strings.TrimSpace(attrValue(t.Attr, "full-path"))
				mediaType := strings.TrimSpace(attrValue(t.Attr, "media-type"))
				if fullPath == "" || mediaType == "" {
					continue
				}
				c.Rootfiles = append(c.Rootfiles, RootfileEntry{
					FullPath:  fullPath,
					MediaType: mediaType,
				})
			}
		case xml.EndElement:
			if localName(t.Name) == "rootfiles" {
				inRootfiles = false
			}
		}
	}

	if len(c.Rootfiles) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrContainerParse, ErrNoRootfiles)
	}
	return c, nil
}
