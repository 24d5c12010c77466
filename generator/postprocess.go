package generator

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	doctypeToken   = "<!doctype"
	htmlOpenToken  = "<html"
	htmlCloseToken = "</html>"
)

// ExtractHTML pulls a single HTML document out of a model answer.
//
// The first fenced code block (untagged or tagged html) whose body carries an
// <html root is the document. The only exception is a fence sitting inside a
// larger document: when the document starts before the fence and closes after
// it, the fence is part of the markup and the whole answer is used. Prose
// before the first <!DOCTYPE or <html and after the last </html> is dropped.
// Already clean markup comes back unchanged.
func ExtractHTML(raw string) (string, error) {
	candidate := raw
	if fence, ok := firstHTMLFence(raw); ok {
		candidate = fence.body
		if root := indexRoot(raw); root >= 0 && root < fence.start && indexFold(raw[fence.end:], htmlCloseToken) >= 0 {
			candidate = raw
		}
	}
	candidate = strings.TrimSpace(candidate)

	start := indexRoot(candidate)
	if start < 0 {
		return "", ErrNoHTML
	}
	candidate = candidate[start:]

	if end := lastIndexFold(candidate, htmlCloseToken); end >= 0 {
		candidate = candidate[:end+len(htmlCloseToken)]
	}

	if indexFold(candidate, htmlOpenToken) < 0 {
		return "", ErrNoHTML
	}
	return candidate, nil
}

// htmlFence is a fenced block body and its byte range in the answer.
type htmlFence struct {
	body       string
	start, end int
}

// firstHTMLFence walks the Markdown AST of src and returns the first fenced
// block that is untagged or tagged html and whose body contains <html.
// Blocks without a root (install commands, css, fragments) are skipped.
func firstHTMLFence(src string) (htmlFence, bool) {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var found htmlFence
	ok := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, isFence := n.(*ast.FencedCodeBlock)
		if !isFence || !htmlLanguage(string(block.Language(source))) {
			return ast.WalkContinue, nil
		}
		lines := block.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}

		var sb strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(source))
		}
		content := sb.String()
		if indexFold(content, htmlOpenToken) < 0 {
			return ast.WalkContinue, nil
		}

		found = htmlFence{body: content, start: lines.At(0).Start, end: lines.At(lines.Len() - 1).Stop}
		ok = true
		return ast.WalkStop, nil
	})
	return found, ok
}

func htmlLanguage(lang string) bool {
	switch strings.ToLower(lang) {
	case "", "html", "htm":
		return true
	}
	return false
}

// indexRoot finds the first <!DOCTYPE or <html, whichever comes first.
func indexRoot(s string) int {
	doctype := indexFold(s, doctypeToken)
	open := indexFold(s, htmlOpenToken)
	switch {
	case doctype < 0:
		return open
	case open < 0:
		return doctype
	default:
		return min(doctype, open)
	}
}

// Tokens are ASCII, so folding bytes keeps indexes valid for any input.
func indexFold(s, token string) int {
	for i := 0; i+len(token) <= len(s); i++ {
		if hasPrefixFold(s[i:], token) {
			return i
		}
	}
	return -1
}

func lastIndexFold(s, token string) int {
	for i := len(s) - len(token); i >= 0; i-- {
		if hasPrefixFold(s[i:], token) {
			return i
		}
	}
	return -1
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if lowerASCII(s[i]) != lowerASCII(prefix[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
