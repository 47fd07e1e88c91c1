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

package cdn

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Template represents a URL template with variable placeholders.
// Supported variables:
//   - {package} - Full package name (e.g., "@scope/name" or "name")
//   - {name} - Package name without scope
//   - {scope} - Scope without @ prefix (empty for unscoped)
//   - {version} - Version or range as written, "latest" if omitted
//   - {path} - File path within the package
type Template struct {
	pattern   string
	variables []string
}

var variablePattern = regexp.MustCompile(`\{(\w+)\}`)

var validVariables = []string{"package", "name", "scope", "version", "path"}

// ParseTemplate parses a URL template pattern. It must contain {path}.
func ParseTemplate(pattern string) (*Template, error) {
	if pattern == "" {
		return nil, fmt.Errorf("template pattern cannot be empty")
	}

	var variables []string
	for _, match := range variablePattern.FindAllStringSubmatch(pattern, -1) {
		if !slices.Contains(validVariables, match[1]) {
			return nil, fmt.Errorf("unknown template variable: {%s}", match[1])
		}
		variables = append(variables, match[1])
	}
	if !slices.Contains(variables, "path") {
		return nil, fmt.Errorf("template %q has no {path}", pattern)
	}

	return &Template{
		pattern:   pattern,
		variables: variables,
	}, nil
}

// Expand substitutes the parts of spec into the template.
func (t *Template) Expand(spec Specifier) string {
	name, scope := SplitPackageName(spec.Package)

	result := t.pattern
	result = strings.ReplaceAll(result, "{package}", spec.Package)
	result = strings.ReplaceAll(result, "{name}", name)
	result = strings.ReplaceAll(result, "{scope}", scope)
	result = strings.ReplaceAll(result, "{version}", spec.Version)
	result = strings.ReplaceAll(result, "{path}", spec.Path)

	return result
}

// Pattern returns the original template pattern.
func (t *Template) Pattern() string {
	return t.pattern
}

// Variables returns the list of variables used in the template.
func (t *Template) Variables() []string {
	return t.variables
}

// SplitPackageName splits a package name into name and scope.
// For "@scope/name" returns ("name", "scope").
// For "name" returns ("name", "").
func SplitPackageName(pkg string) (name, scope string) {
	if strings.HasPrefix(pkg, "@") {
		parts := strings.SplitN(pkg, "/", 2)
		if len(parts) == 2 {
			return parts[1], strings.TrimPrefix(parts[0], "@")
		}
		return pkg, ""
	}
	return pkg, ""
}
