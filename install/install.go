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

// Package install puts compiled stylesheets into documents.
//
// A stylesheet with a source map becomes a `<link rel="stylesheet">` whose
// href is a base64 data URI of the compiled text (the map is already embedded
// in that text); one without becomes a `<style>` element. Every Install
// appends a new node; nothing is ever replaced or removed.
package install

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Installer receives compiled CSS.
type Installer interface {
	Install(css string, hasMap bool) error
}

// InstallerFunc adapts a function to the Installer interface.
type InstallerFunc func(css string, hasMap bool) error

func (f InstallerFunc) Install(css string, hasMap bool) error {
	return f(css, hasMap)
}

// Discard is an Installer that drops everything.
var Discard Installer = InstallerFunc(func(string, bool) error { return nil })

// DataURI encodes css as a base64 text/css data URI.
func DataURI(css string) string {
	return "data:text/css;base64," + base64.StdEncoding.EncodeToString([]byte(css))
}

// Node builds the element that carries css.
func Node(css string, hasMap bool) *html.Node {
	if hasMap {
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Link,
			Data:     "link",
			Attr: []html.Attribute{
				{Key: "type", Val: "text/css"},
				{Key: "rel", Val: "stylesheet"},
				{Key: "href", Val: DataURI(css)},
			},
		}
	}
	style := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: "type", Val: "text/css"}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return style
}

// Render serializes an element built by Node.
func Render(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}
