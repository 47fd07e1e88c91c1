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

package inject

import (
	"bytes"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// stylesheetRels are the rel values that mark a link as Sass source.
var stylesheetRels = []string{"stylesheet/scss", "stylesheet/sass"}

// Stylesheets returns the hrefs of Sass link tags in document order.
func Stylesheets(content []byte) []string {
	var hrefs []string
	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.Link || !hasAttr {
				continue
			}
			var rel, href string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "rel":
					rel = strings.ToLower(strings.TrimSpace(string(val)))
				case "href":
					href = strings.TrimSpace(string(val))
				}
				if !more {
					break
				}
			}
			if href != "" && slices.Contains(stylesheetRels, rel) {
				hrefs = append(hrefs, href)
			}
		}
	}
}

func hasScheme(href string) bool {
	u, err := url.Parse(href)
	return err == nil && u.Scheme != ""
}
