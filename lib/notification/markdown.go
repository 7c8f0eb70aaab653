// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts a markdown body to HTML. Raw HTML in the source
// is omitted.
func RenderHTML(source string) (string, error) {
	var buffer bytes.Buffer
	if err := markdown.Convert([]byte(source), &buffer); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buffer.String(), nil
}

// RenderPlain strips markdown syntax, keeping the text. Paragraphs and
// list items are separated by newlines.
func RenderPlain(source string) string {
	raw := []byte(source)
	document := markdown.Parser().Parse(text.NewReader(raw))

	var builder strings.Builder
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node.Kind() {
		case ast.KindParagraph, ast.KindTextBlock, ast.KindHeading, ast.KindListItem:
			if !entering && node.NextSibling() != nil {
				builder.WriteByte('\n')
			}
		case ast.KindText:
			if entering {
				textNode := node.(*ast.Text)
				builder.Write(textNode.Segment.Value(raw))
				if textNode.SoftLineBreak() || textNode.HardLineBreak() {
					builder.WriteByte('\n')
				}
			}
		case ast.KindString:
			if entering {
				builder.Write(node.(*ast.String).Value)
			}
		case ast.KindCodeSpan:
			if entering {
				for child := node.FirstChild(); child != nil; child = child.NextSibling() {
					if textNode, ok := child.(*ast.Text); ok {
						builder.Write(textNode.Segment.Value(raw))
					}
				}
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(builder.String())
}

// Rendered is a formatted message in both output forms.
type Rendered struct {
	Plain  string
	HTML   string
	Locale string
}

// Render formats a message and renders it both ways.
func (c *Catalog) Render(locale, key string, args map[string]string) (Rendered, error) {
	message, err := c.Format(locale, key, args)
	if err != nil {
		return Rendered{}, err
	}
	html, err := RenderHTML(message.Text)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Plain: RenderPlain(message.Text), HTML: html, Locale: message.Locale}, nil
}
