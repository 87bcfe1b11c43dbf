// Package compress shrinks fetched job-posting HTML until it fits the model's
// context budget, degrading from pruned markup to plain text.
package compress

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/kiranshivaraju/jobloader/internal/telemetry"
	"golang.org/x/net/html"
)

const (
	// DefaultHTMLBudget is the largest markup result returned as HTML.
	DefaultHTMLBudget = 14000
	// DefaultTextBudget is the ceiling for text results.
	DefaultTextBudget = 10000
)

// Stage labels recorded in html_processing_names.
const (
	StageOriginal     = "original"
	StagePrune        = "remove tags/atributes: [link, style, svg, img], [id, class, style]"
	StageMetaScript   = "remove tags: [meta, script]"
	StageMarkedText   = "remove HTML structure"
	StagePlainText    = "remove structure markers"
	StageTruncate     = "trim content"
	structureMarker   = " # "
	plainTextSplitter = " "
)

var (
	pruneTags  = []string{"link", "style", "svg", "img"}
	pruneAttrs = []string{"id", "class", "style"}
	heavyTags  = []string{"meta", "script"}
)

// Compressor runs the degrading ladder. Lengths are measured in characters
// (runes), not bytes.
type Compressor struct {
	htmlBudget int
	textBudget int
	logger     *slog.Logger
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithBudgets overrides the HTML and text character budgets.
func WithBudgets(htmlBudget, textBudget int) Option {
	return func(c *Compressor) {
		if htmlBudget > 0 {
			c.htmlBudget = htmlBudget
		}
		if textBudget > 0 {
			c.textBudget = textBudget
		}
	}
}

// WithLogger sets the logger used for stage diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compressor) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Compressor with the default budgets.
func New(opts ...Option) *Compressor {
	c := &Compressor{
		htmlBudget: DefaultHTMLBudget,
		textBudget: DefaultTextBudget,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress applies the least destructive stages needed to fit the budgets and
// records every stage it ran on sink, even when a stage changes nothing.
func (c *Compressor) Compress(raw string, sink telemetry.Sink) (string, error) {
	sink.AddHTMLProcessing(StageOriginal, length(raw))

	root, err := html.ParseWithOptions(strings.NewReader(raw), html.ParseOptionEnableScripting(false))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	prune(doc, pruneTags, pruneAttrs)
	content, err := render(doc)
	if err != nil {
		return "", err
	}
	sink.AddHTMLProcessing(StagePrune, length(content))

	if length(content) > c.htmlBudget {
		c.logger.Info("content too long, removing meta and script tags", "chars", length(content))
		prune(doc, heavyTags, nil)
		if content, err = render(doc); err != nil {
			return "", err
		}
		sink.AddHTMLProcessing(StageMetaScript, length(content))
	}

	if length(content) <= c.htmlBudget {
		c.logger.Info("processed html", "original_chars", length(raw), "chars", length(content))
		return content, nil
	}

	if length(content) > c.textBudget {
		c.logger.Info("content too long, removing html structure", "chars", length(content))
		content = text(root, structureMarker)
		sink.AddHTMLProcessing(StageMarkedText, length(content))
	}

	if length(content) > c.textBudget {
		c.logger.Info("content too long, removing structure markers", "chars", length(content))
		content = text(root, plainTextSplitter)
		sink.AddHTMLProcessing(StagePlainText, length(content))
	}

	if length(content) > c.textBudget {
		c.logger.Warn("content too long, trimming", "chars", length(content), "limit", c.textBudget)
		content = truncate(content, c.textBudget)
		sink.AddHTMLProcessing(StageTruncate, length(content))
	}

	c.logger.Info("processed html", "original_chars", length(raw), "chars", length(content))
	return content, nil
}

// prune removes the listed tags and strips the listed attributes everywhere,
// then drops the elements left with no children and no attributes.
func prune(doc *goquery.Document, tags, attrs []string) {
	doc.Find(strings.Join(tags, ", ")).Remove()
	for _, a := range attrs {
		doc.Find("[" + a + "]").RemoveAttr(a)
	}
	for _, n := range doc.Nodes {
		dropEmpty(n)
	}
}

// dropEmpty walks post-order so a parent is judged after its children.
func dropEmpty(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode {
			dropEmpty(child)
		}
		child = next
	}

	if n.Type == html.ElementNode && n.Parent != nil && n.FirstChild == nil && len(n.Attr) == 0 {
		n.Parent.RemoveChild(n)
	}
}

func render(doc *goquery.Document) (string, error) {
	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return out, nil
}

// text joins every non-blank text node, trimmed, with sep. Script and style
// bodies are not text.
func text(root *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case html.ElementNode:
			switch strings.ToLower(n.Data) {
			case "script", "style", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(parts, sep)
}

func truncate(s string, limit int) string {
	if length(s) <= limit {
		return s
	}
	i := 0
	for pos := range s {
		if i == limit {
			return s[:pos]
		}
		i++
	}
	return s
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
