// Package richtext translates the text nodes of HTML fragments found in API
// payloads while leaving markup, code and opted-out elements untouched.
package richtext

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IgnoredTags are elements whose content is never translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
	"svg":      true,
}

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(\s[^<>]*)?/?>`)

// IsHTML reports whether s looks like an HTML fragment rather than plain text.
func IsHTML(s string) bool {
	return strings.Contains(s, "<") && tagPattern.MatchString(s)
}

// BatchTranslator translates texts in order. Failed entries keep their input.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string, targetLang string) []string
}

// Fragment is a parsed HTML fragment with its translatable text nodes.
type Fragment struct {
	doc   *goquery.Document
	nodes []*html.Node
}

// Processor extracts and rewrites text nodes.
type Processor struct {
	ignoredTags map[string]bool
}

// New creates a processor with the default ignored tags.
func New() *Processor {
	return &Processor{ignoredTags: IgnoredTags}
}

// NewWithIgnoredTags creates a processor with custom ignored tags.
func NewWithIgnoredTags(tags []string) *Processor {
	ignored := make(map[string]bool, len(tags))
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &Processor{ignoredTags: ignored}
}

// Parse parses content as a body fragment.
func (p *Processor) Parse(content string) (*Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	f := &Fragment{doc: doc}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && p.skip(n) {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			f.nodes = append(f.nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			walk(n)
		}
	})

	return f, nil
}

func (p *Processor) skip(n *html.Node) bool {
	if p.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "data-no-translate" || (attr.Key == "translate" && attr.Val == "no") {
			return true
		}
	}
	return false
}

// Texts returns the distinct trimmed texts in document order.
func (f *Fragment) Texts() []string {
	seen := make(map[string]bool, len(f.nodes))
	texts := make([]string, 0, len(f.nodes))
	for _, n := range f.nodes {
		trimmed := strings.TrimSpace(n.Data)
		if !seen[trimmed] {
			seen[trimmed] = true
			texts = append(texts, trimmed)
		}
	}
	return texts
}

// Apply replaces every text node found in translations, keeping the
// original surrounding whitespace, and renders the fragment.
func (f *Fragment) Apply(translations map[string]string) (string, error) {
	for _, n := range f.nodes {
		if translated, ok := translations[strings.TrimSpace(n.Data)]; ok {
			n.Data = preserveWhitespace(n.Data, translated)
		}
	}
	return f.doc.Find("body").Html()
}

// Translate translates the text nodes of content to targetLang. Content
// that does not parse is returned unchanged along with the error.
func (p *Processor) Translate(ctx context.Context, t BatchTranslator, content, targetLang string) (string, error) {
	f, err := p.Parse(content)
	if err != nil {
		return content, err
	}

	texts := f.Texts()
	if len(texts) == 0 {
		return content, nil
	}

	translated := t.TranslateBatch(ctx, texts, targetLang)
	translations := make(map[string]string, len(texts))
	for i, text := range texts {
		if i < len(translated) && translated[i] != text {
			translations[text] = translated[i]
		}
	}
	if len(translations) == 0 {
		return content, nil
	}

	out, err := f.Apply(translations)
	if err != nil {
		return content, err
	}
	return out, nil
}

// preserveWhitespace keeps the leading and trailing whitespace of original.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))

	return original[:leadingLen] + strings.TrimSpace(translated) + original[len(original)-trailingLen:]
}
