package epub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const pngMagic = "\x89PNG\r\n\x1a\n not a real png"
const gifMagic = "GIF89a not a real gif"

// coverTestBook builds a one-chapter book around the given opf metadata
// and manifest fragments, plus extra archive files.
func coverTestBook(t *testing.T, metadata, manifest string, extra map[string]string) *Book {
	t.Helper()
	opf := fmt.Sprintf(`<package version="3.0">
  <metadata>%s</metadata>
  <manifest>
    <item id="chap1" href="chap1.xhtml" media-type="application/xhtml+xml"/>
    %s
  </manifest>
  <spine><itemref idref="chap1"/></spine>
</package>`, metadata, manifest)

	files := map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      opf,
		"OEBPS/chap1.xhtml":      "<html/>",
	}
	for k, v := range extra {
		files[k] = v
	}
	return buildBook(t, files)
}

func TestCoverFromManifestProperty(t *testing.T) {
	b := coverTestBook(t,
		`<meta name="cover" content="other-img"/>`,
		`<item id="the-cover" href="images/cover.jpg" media-type="image/jpeg" properties="cover-image"/>
     <item id="other-img" href="images/other.png" media-type="image/png"/>`,
		map[string]string{
			"OEBPS/images/cover.jpg": jpegMagic,
			"OEBPS/images/other.png": pngMagic,
		})

	// the cover-image property outranks the metadata cover field
	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/images/cover.jpg", cover.Path)
	require.Equal(t, "cover.jpg", cover.Filename)
	require.Equal(t, "jpeg", cover.Format)
}

func TestCoverFromMetadataID(t *testing.T) {
	b := coverTestBook(t,
		`<meta name="cover" content="img1"/>`,
		`<item id="img1" href="images/art.png" media-type="image/png"/>`,
		map[string]string{"OEBPS/images/art.png": pngMagic})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/images/art.png", cover.Path)
	require.Equal(t, "png", cover.Format)
}

func TestCoverFromMetadataLiteralPath(t *testing.T) {
	// the cover value is not a manifest id; it resolves as a path
	b := coverTestBook(t,
		`<meta name="cover" content="images/direct.gif"/>`,
		``,
		map[string]string{"OEBPS/images/direct.gif": gifMagic})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/images/direct.gif", cover.Path)
	require.Equal(t, "gif", cover.Format)
}

func TestCoverFromConventionalFilename(t *testing.T) {
	b := coverTestBook(t, ``, ``,
		map[string]string{"OEBPS/cover.png": pngMagic})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/cover.png", cover.Path)
}

func TestCoverConventionalFilenamePackageDirOnly(t *testing.T) {
	// a conventional cover name is probed in the package directory only;
	// one at the archive root must not outrank the manifest image
	b := coverTestBook(t, ``,
		`<item id="pic" href="art/pic.png" media-type="image/png"/>`,
		map[string]string{
			"cover.jpg":         jpegMagic,
			"OEBPS/art/pic.png": pngMagic,
		})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/art/pic.png", cover.Path)
}

func TestCoverFromFirstManifestImage(t *testing.T) {
	b := coverTestBook(t, ``,
		`<item id="pic2" href="art/second.png" media-type="image/png"/>
     <item id="pic1" href="art/first.jpg" media-type="image/jpeg"/>`,
		map[string]string{
			"OEBPS/art/second.png": pngMagic,
			"OEBPS/art/first.jpg":  jpegMagic,
		})

	// manifest document order decides, not archive order
	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/art/second.png", cover.Path)
}

func TestCoverFromFirstArchiveImage(t *testing.T) {
	b := coverTestBook(t, ``, ``,
		map[string]string{"extras/photo.gif": gifMagic})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "extras/photo.gif", cover.Path)
}

func TestCoverUnreadableCandidateFallsThrough(t *testing.T) {
	// the declared cover image is not in the archive; the conventional
	// file name still wins over nothing
	b := coverTestBook(t, ``,
		`<item id="ghost" href="images/ghost.jpg" media-type="image/jpeg" properties="cover-image"/>`,
		map[string]string{"OEBPS/cover.jpg": jpegMagic})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "OEBPS/cover.jpg", cover.Path)
}

func TestCoverNotFound(t *testing.T) {
	b := coverTestBook(t, ``, ``, nil)
	_, err := b.Cover()
	require.ErrorIs(t, err, ErrNoCover)
}

func TestDetectImageFormat(t *testing.T) {
	require.Equal(t, "jpeg", detectImageFormat([]byte(jpegMagic), "x.bin"))
	require.Equal(t, "png", detectImageFormat([]byte(pngMagic), "x.bin"))
	require.Equal(t, "gif", detectImageFormat([]byte(gifMagic), "x.bin"))
	// no magic match: extension decides
	require.Equal(t, "webp", detectImageFormat([]byte("RIFF....WEBP"), "img/pic.WEBP"))
	require.Equal(t, "", detectImageFormat([]byte("???"), "noext"))
}

func TestIsImageFile(t *testing.T) {
	require.True(t, isImageFile("a/b/cover.JPG"))
	require.True(t, isImageFile("x.svg"))
	require.False(t, isImageFile("style.css"))
	require.False(t, isImageFile("archive.zip"))
}

func TestCoverDimensions(t *testing.T) {
	// 1x1 transparent GIF
	gif := []byte{
		'G', 'I', 'F', '8', '9', 'a',
		0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
		0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF,
		0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
		0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
	}
	b := coverTestBook(t, ``, ``,
		map[string]string{"OEBPS/cover.gif": string(gif)})

	cover, err := b.Cover()
	require.NoError(t, err)
	require.Equal(t, "gif", cover.Format)
	require.Equal(t, 1, cover.Width)
	require.Equal(t, 1, cover.Height)

	// undecodable data leaves the dimensions at zero
	b2 := coverTestBook(t, ``, ``,
		map[string]string{"OEBPS/cover.jpg": jpegMagic})
	c2, err := b2.Cover()
	require.NoError(t, err)
	require.Equal(t, 0, c2.Width)
}
