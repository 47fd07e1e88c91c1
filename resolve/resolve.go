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

// Package resolve turns stylesheet @import requests into fetchable locations.
//
// Resolution is purely lexical: no file is consulted. A request is joined
// against the directory of the file that contains the @import, gets the
// default extension when it carries none, and keeps any query or fragment.
// The partial form of a location (`_name.scss`) is derived from the last
// path segment only.
package resolve

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
)

// DefaultExtension is appended to import names without a stylesheet extension.
const DefaultExtension = ".scss"

// IndentedExtension marks the whitespace-significant syntax.
const IndentedExtension = ".sass"

// Extensions lists the stylesheet extensions left untouched by Resolve.
var Extensions = []string{".scss", ".sass", ".css"}

// ImportRequest is a single @import as the compiler reports it.
type ImportRequest struct {
	// Name is the string as written in the @import statement.
	Name string
	// From is the URL or path of the file containing the statement.
	From string
}

// Location is a resolved, fetchable stylesheet address.
type Location struct {
	URL string
}

func (l Location) String() string {
	return l.URL
}

// UnresolvableImportError reports an import name that cannot become a URL.
type UnresolvableImportError struct {
	Name   string
	Reason string
}

func (e *UnresolvableImportError) Error() string {
	return fmt.Sprintf("unresolvable import %q: %s", e.Name, e.Reason)
}

// Resolve turns an import request into the location of the logical file.
func Resolve(req ImportRequest) (Location, error) {
	namePath, suffix := splitSuffix(req.Name)
	if strings.TrimSpace(namePath) == "" {
		return Location{}, &UnresolvableImportError{Name: req.Name, Reason: "empty path"}
	}

	if !HasExtension(namePath) {
		namePath += DefaultExtension
	}

	// Absolute URLs ignore the originating file.
	if ref, err := url.Parse(namePath); err == nil && ref.Scheme != "" {
		return Location{URL: namePath + suffix}, nil
	} else if err != nil {
		return Location{}, &UnresolvableImportError{Name: req.Name, Reason: err.Error()}
	}

	fromPath, _ := splitSuffix(req.From)
	base, err := url.Parse(fromPath)
	if err == nil && base.Scheme != "" {
		ref, err := url.Parse(namePath)
		if err != nil {
			return Location{}, &UnresolvableImportError{Name: req.Name, Reason: err.Error()}
		}
		return Location{URL: base.ResolveReference(ref).String() + suffix}, nil
	}

	if strings.HasPrefix(namePath, "/") {
		return Location{URL: path.Clean(namePath) + suffix}, nil
	}
	return Location{URL: path.Join(path.Dir(fromPath), namePath) + suffix}, nil
}

// PartialForm rewrites the last path segment `name.ext` to `_name.ext`.
// It is meant to be applied once; a second application yields `__name.ext`.
func PartialForm(loc Location) Location {
	p, suffix := splitSuffix(loc.URL)
	i := strings.LastIndex(p, "/")
	return Location{URL: p[:i+1] + "_" + p[i+1:] + suffix}
}

// HasExtension reports whether p ends in a recognized stylesheet extension.
func HasExtension(p string) bool {
	return slices.Contains(Extensions, strings.ToLower(path.Ext(p)))
}

// IsIndented reports whether address names an indented-syntax (.sass) file.
func IsIndented(address string) bool {
	p, _ := splitSuffix(address)
	return strings.HasSuffix(p, IndentedExtension)
}

// BaseOf returns the directory of address with a trailing slash.
// Scheme and host are kept: "https://x/a/b.scss" gives "https://x/a/".
func BaseOf(address string) string {
	p, _ := splitSuffix(address)
	prefix := ""
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		prefix = u.Scheme + "://" + u.Host
		p = u.Path
	}
	dir := path.Dir(p)
	switch {
	case p == "" || dir == "/":
		return prefix + "/"
	case dir == ".":
		return prefix + "./"
	}
	return prefix + dir + "/"
}

// splitSuffix separates a trailing query or fragment from s.
func splitSuffix(s string) (string, string) {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}
