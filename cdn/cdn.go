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

// Package cdn expands npm package addresses into CDN file URLs.
//
// An address of the form npm:<package>[@<version>]/<path> names a file in a
// published package, e.g. npm:bootstrap@5.3.3/scss/bootstrap.scss. Once
// expanded, the entry is an ordinary https URL, so its relative imports
// resolve on the same CDN.
package cdn

import (
	"fmt"
	"strings"
)

// Scheme prefixes package addresses.
const Scheme = "npm:"

// DefaultVersion is used when an address names no version.
const DefaultVersion = "latest"

// Specifier is a parsed package address.
type Specifier struct {
	Package string
	Version string
	Path    string
}

// IsPackageAddress reports whether address uses the npm: scheme.
func IsPackageAddress(address string) bool {
	return strings.HasPrefix(address, Scheme)
}

// ParseSpecifier parses npm:<package>[@<version>]/<path>.
func ParseSpecifier(address string) (Specifier, error) {
	rest, ok := strings.CutPrefix(address, Scheme)
	if !ok {
		return Specifier{}, fmt.Errorf("%q is not an %s address", address, Scheme)
	}

	// Scoped packages keep their first slash.
	nameEnd := 0
	if strings.HasPrefix(rest, "@") {
		i := strings.Index(rest, "/")
		if i < 0 {
			return Specifier{}, fmt.Errorf("%q: scoped package without a name", address)
		}
		nameEnd = i + 1
	}
	slash := strings.Index(rest[nameEnd:], "/")
	if slash < 0 || slash == len(rest[nameEnd:])-1 {
		return Specifier{}, fmt.Errorf("%q: missing file path", address)
	}
	pkgPart, filePath := rest[:nameEnd+slash], rest[nameEnd+slash+1:]

	spec := Specifier{Package: pkgPart, Version: DefaultVersion, Path: filePath}
	if at := strings.LastIndex(pkgPart, "@"); at > 0 {
		spec.Package, spec.Version = pkgPart[:at], pkgPart[at+1:]
	}
	if spec.Package == "" || spec.Package == "@" || strings.HasSuffix(spec.Package, "/") {
		return Specifier{}, fmt.Errorf("%q: missing package name", address)
	}
	if spec.Version == "" {
		return Specifier{}, fmt.Errorf("%q: empty version", address)
	}
	return spec, nil
}

// Resolver expands package addresses through a URL template.
type Resolver struct {
	template *Template
}

// New creates a resolver for provider.
func New(provider Provider) *Resolver {
	tmpl, err := ParseTemplate(provider.FileTemplate)
	if err != nil {
		panic(fmt.Sprintf("provider %s: %v", provider.Name, err))
	}
	return &Resolver{template: tmpl}
}

// ForName returns a resolver for a provider name or a custom template
// (anything containing "{").
func ForName(name string) (*Resolver, error) {
	if name == "" {
		return New(DefaultProvider), nil
	}
	if strings.Contains(name, "{") {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, err
		}
		return &Resolver{template: tmpl}, nil
	}
	provider := ProviderByName(name)
	if provider == nil {
		return nil, fmt.Errorf("unknown CDN %q: must be one of %s or a template", name, strings.Join(ProviderNames(), ", "))
	}
	return New(*provider), nil
}

// Resolve expands a package address. Other addresses are returned unchanged.
func (r *Resolver) Resolve(address string) (string, error) {
	if !IsPackageAddress(address) {
		return address, nil
	}
	spec, err := ParseSpecifier(address)
	if err != nil {
		return "", err
	}
	return r.template.Expand(spec), nil
}
