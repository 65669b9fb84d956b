package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// buildZipBytes writes a ZIP archive with the mimetype entry first (when
// present) and the remaining files in sorted order, so entry order is
// deterministic across runs.
func buildZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	write := func(name, content string) {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if mt, ok := files["mimetype"]; ok {
		write("mimetype", mt)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		write(name, files[name])
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

// buildArchive returns a zipArchive over an in-memory ZIP built from files.
func buildArchive(t *testing.T, files map[string]string) *zipArchive {
	t.Helper()
	data := buildZipBytes(t, files)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip reader: %v", err)
	}
	return newZipArchive(zr)
}

// buildBook opens a Book over an in-memory archive. A valid mimetype entry
// is added when the files map has none.
func buildBook(t *testing.T, files map[string]string, opts ...Option) *Book {
	t.Helper()
	if _, ok := files["mimetype"]; !ok {
		withMimetype := make(map[string]string, len(files)+1)
		withMimetype["mimetype"] = epubMimetype
		for k, v := range files {
			withMimetype[k] = v
		}
		files = withMimetype
	}
	b, err := NewBook(buildArchive(t, files), opts...)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	return b
}

// buildBookFile writes the archive to a temporary file, for testing Open.
func buildBookFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildZipBytes(t, files), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return fp
}

// A minimal but complete book used by the facade tests.

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testPackageOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:opf="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Test Book</dc:title>
    <dc:creator id="creator01">Jane Writer</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="pub-id" opf:scheme="ISBN">urn:isbn:9780000000001</dc:identifier>
    <dc:publisher>Test House</dc:publisher>
    <dc:description>A book that exists for tests.</dc:description>
    <meta refines="#creator01" property="role" scheme="marc:relators">aut</meta>
    <meta refines="#creator01" property="display-seq">1</meta>
    <meta property="dcterms:modified">2023-01-01T00:00:00Z</meta>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="chap1" href="chap1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chap2" href="chap2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg" properties="cover-image"/>
    <item id="style" href="css/style.css" media-type="text/css"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="chap1"/>
    <itemref idref="chap2"/>
    <itemref idref="nav" linear="no"/>
  </spine>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:isbn:9780000000001"/>
    <meta name="dtb:depth" content="2"/>
  </head>
  <docTitle><text>The Test Book</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter One</text></navLabel>
      <content src="chap1.xhtml"/>
      <navPoint id="np1a" playOrder="2">
        <navLabel><text>Section 1.1</text></navLabel>
        <content src="chap1.xhtml#s1"/>
      </navPoint>
    </navPoint>
    <navPoint id="np2" playOrder="3">
      <navLabel><text>Chapter Two</text></navLabel>
      <content src="chap2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const testNavXHTML = `<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Nav</title></head>
<body>
  <nav epub:type="toc">
    <ol>
      <li><a href="chap1.xhtml">Chapter One</a>
        <ol><li><a href="chap1.xhtml#s1">Section 1.1</a></li></ol>
      </li>
      <li><a href="chap2.xhtml">Chapter Two</a></li>
    </ol>
  </nav>
  <nav epub:type="landmarks">
    <ol><li><a href="chap1.xhtml">Start</a></li></ol>
  </nav>
</body>
</html>`

// jpegMagic is a minimal JPEG-looking payload (SOI marker); enough for
// format detection, not decodable.
const jpegMagic = "\xFF\xD8\xFF\xE0 not a real jpeg"

// testBookFiles returns the standard fixture files.
func testBookFiles() map[string]string {
	return map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testPackageOPF,
		"OEBPS/toc.ncx":          testNCX,
		"OEBPS/nav.xhtml":        testNavXHTML,
		"OEBPS/chap1.xhtml":      "<html><body><p>one</p></body></html>",
		"OEBPS/chap2.xhtml":      "<html><body><p>two</p></body></html>",
		"OEBPS/images/cover.jpg": jpegMagic,
		"OEBPS/css/style.css":    "body {}",
	}
}
