package epub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNavDoc(t *testing.T) {
	tree, err := parseNavDoc([]byte(testNavXHTML))
	require.NoError(t, err)

	require.Len(t, tree.Roots, 2)
	require.Equal(t, "Chapter One", tree.Roots[0].Title)
	require.Equal(t, "chap1.xhtml", tree.Roots[0].Src)
	require.Len(t, tree.Roots[0].Children, 1)
	require.Equal(t, "Section 1.1", tree.Roots[0].Children[0].Title)
	require.Equal(t, 1, tree.Roots[0].Children[0].Depth)

	// landmarks nav is not part of the toc
	require.Equal(t, "Chapter Two", tree.Roots[1].Title)
}

func TestParseNavDocPlayOrderAssignment(t *testing.T) {
	tree, err := parseNavDoc([]byte(testNavXHTML))
	require.NoError(t, err)

	// document order, depth-first, starting at 1
	require.Equal(t, 1, tree.Roots[0].PlayOrder)
	require.Equal(t, 2, tree.Roots[0].Children[0].PlayOrder)
	require.Equal(t, 3, tree.Roots[1].PlayOrder)
}

func TestParseNavDocSpanHeading(t *testing.T) {
	doc := `<html xmlns:epub="http://www.idpf.org/2007/ops"><body>
<nav epub:type="toc"><ol>
  <li><span>Unlinked Part</span>
    <ol><li><a href="ch1.xhtml">Chapter 1</a></li></ol>
  </li>
</ol></nav>
</body></html>`
	tree, err := parseNavDoc([]byte(doc))
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)
	require.Equal(t, "Unlinked Part", tree.Roots[0].Title)
	require.Empty(t, tree.Roots[0].Src)
	require.Equal(t, "Chapter 1", tree.Roots[0].Children[0].Title)
}

func TestParseNavDocNoTocNav(t *testing.T) {
	doc := `<html xmlns:epub="http://www.idpf.org/2007/ops"><body>
<nav epub:type="landmarks"><ol><li><a href="x.xhtml">X</a></li></ol></nav>
</body></html>`
	tree, err := parseNavDoc([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, tree.Roots)
}

func TestParseNavDocEscapedHref(t *testing.T) {
	doc := `<html xmlns:epub="http://www.idpf.org/2007/ops"><body>
<nav epub:type="toc"><ol><li><a href="my%20chapter.xhtml">My Chapter</a></li></ol></nav>
</body></html>`
	tree, err := parseNavDoc([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "my chapter.xhtml", tree.Roots[0].Src)
}
