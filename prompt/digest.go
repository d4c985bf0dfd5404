package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// ContentDigest converts captured page HTML to markdown and clips it to
// maxChars at a line boundary. Conversion failures yield an empty digest —
// the prompt simply carries no content appendix.
func ContentDigest(pageHTML string, maxChars int) string {
	if pageHTML == "" || maxChars <= 0 {
		return ""
	}
	md, err := mdConverter.ConvertString(pageHTML)
	if err != nil {
		return ""
	}
	md = strings.TrimSpace(md)
	if len(md) <= maxChars {
		return md
	}
	end := maxChars
	for end > 0 && !utf8.RuneStart(md[end]) {
		end--
	}
	cut := md[:end]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + TruncationMarker
}

// WithDigest appends a content digest section to an already rendered prompt,
// spending at most the remaining budget.
func WithDigest(rendered, pageHTML string, opts Options) string {
	opts.defaults()
	remaining := opts.MaxChars - len(rendered)
	header := "\n## Content digest\n"
	if remaining <= len(header) {
		return rendered
	}
	digest := ContentDigest(pageHTML, remaining-len(header))
	if digest == "" {
		return rendered
	}
	return rendered + header + digest
}
