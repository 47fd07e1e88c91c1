/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package install

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoHead is returned when a document has no <head> to install into.
var ErrNoHead = errors.New("could not find insertion point (no <head> tag)")

// InsertPoint locates where new head children go.
type InsertPoint struct {
	Found  bool
	Offset int    // byte offset before which nodes are inserted
	Indent string // indentation of the closing </head> line
	Close  bool   // true if Offset is a </head> tag, false if just after <head>
}

// FindInsertPoint returns the position just before </head>, or just after
// <head> when the head is never closed.
func FindInsertPoint(content []byte) InsertPoint {
	z := html.NewTokenizer(bytes.NewReader(content))
	offset := 0
	var afterOpen InsertPoint
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return afterOpen
		}
		raw := len(z.Raw())
		name, _ := z.TagName()
		switch {
		case tt == html.StartTagToken && atom.Lookup(name) == atom.Head:
			afterOpen = InsertPoint{Found: true, Offset: offset + raw}
		case tt == html.EndTagToken && atom.Lookup(name) == atom.Head:
			return InsertPoint{Found: true, Offset: offset, Indent: lineIndent(content, offset), Close: true}
		case tt == html.StartTagToken && atom.Lookup(name) == atom.Body:
			if afterOpen.Found {
				return afterOpen
			}
			return InsertPoint{}
		}
		offset += raw
	}
}

// lineIndent returns the whitespace between the previous newline and offset,
// provided nothing else sits there.
func lineIndent(content []byte, offset int) string {
	start := bytes.LastIndexByte(content[:offset], '\n') + 1
	prefix := string(content[start:offset])
	if strings.TrimLeft(prefix, " \t") != "" {
		return ""
	}
	return prefix
}

// Document is an HTML document that stylesheets are installed into.
// Installed nodes are kept aside and spliced into the original bytes on
// Render, so the rest of the document is left untouched.
type Document struct {
	mu      sync.Mutex
	content []byte
	nodes   []*html.Node
}

// ParseDocument wraps HTML content. It fails if the content has no <head>.
func ParseDocument(content []byte) (*Document, error) {
	if !FindInsertPoint(content).Found {
		return nil, ErrNoHead
	}
	return &Document{content: content}, nil
}

// Install implements Installer.
func (d *Document) Install(css string, hasMap bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, Node(css, hasMap))
	return nil
}

// Nodes returns the installed elements in order.
func (d *Document) Nodes() []*html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*html.Node(nil), d.nodes...)
}

// Render returns the document with every installed node placed at the end
// of <head>.
func (d *Document) Render() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.nodes) == 0 {
		return d.content, nil
	}
	point := FindInsertPoint(d.content)
	if !point.Found {
		return nil, ErrNoHead
	}

	childIndent := point.Indent + "  "
	var tags bytes.Buffer
	for _, n := range d.nodes {
		rendered, err := Render(n)
		if err != nil {
			return nil, err
		}
		if point.Close {
			// Stay on the </head> line: indent follows the previous newline.
			tags.WriteString(strings.TrimPrefix(childIndent, point.Indent))
			tags.WriteString(rendered)
			tags.WriteString("\n")
			tags.WriteString(point.Indent)
		} else {
			tags.WriteString("\n")
			tags.WriteString(childIndent)
			tags.WriteString(rendered)
		}
	}

	var out bytes.Buffer
	out.Grow(len(d.content) + tags.Len())
	out.Write(d.content[:point.Offset])
	out.Write(tags.Bytes())
	out.Write(d.content[point.Offset:])
	return out.Bytes(), nil
}

// Writer writes each installed stylesheet to w.
// In Raw mode only the CSS text is written; otherwise the HTML element.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	Raw bool
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer, raw bool) *Writer {
	return &Writer{w: w, Raw: raw}
}

// Install implements Installer.
func (w *Writer) Install(css string, hasMap bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Raw {
		_, err := io.WriteString(w.w, strings.TrimSuffix(css, "\n")+"\n")
		return err
	}
	rendered, err := Render(Node(css, hasMap))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.w, rendered); err != nil {
		return err
	}
	return nil
}
