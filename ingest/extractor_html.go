package ingest

import (
	"bytes"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

var _ Extractor = HTMLExtractor{}

// localDocURL stands in for the page URL readability expects; extracted
// documents come from disk, not the web.
var localDocURL = &url.URL{Scheme: "file", Path: "/"}

// HTMLExtractor extracts article text from HTML using readability, falling
// back to plain tag stripping for pages readability cannot parse, such as
// fragments without a body.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(content []byte) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(content), localDocURL)
	if err == nil && article.TextContent != "" {
		return strings.TrimSpace(article.TextContent), nil
	}
	return StripHTML(string(content)), nil
}
