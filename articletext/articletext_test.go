package articletext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sampleArticle = `<!DOCTYPE html>
<html>
<head><title>Quarterly results</title></head>
<body>
<nav>Home | Markets | Tech</nav>
<article>
<h1>Company beats estimates</h1>
<p>The company reported revenue well above analyst expectations for the third quarter,
driven by strong demand in its core segment. Management raised full-year guidance.</p>
<p>Shares rose in after-hours trading following the announcement.</p>
</article>
<footer>Copyright 2026</footer>
</body>
</html>`

func TestExtractText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(sampleArticle))
	require.NoError(t, err)

	text := ExtractText(doc)

	assert.Contains(t, text, "analyst expectations")
	assert.Contains(t, text, "after-hours trading")
}

func TestExtractText_EmptyDocument(t *testing.T) {
	doc, err := html.Parse(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)

	assert.Empty(t, ExtractText(doc))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", Excerpt("  short   text  ", 100))

	long := strings.Repeat("word ", 300)
	got := Excerpt(long, MaxExcerptLen)
	assert.Equal(t, MaxExcerptLen, len([]rune(got)))
}
