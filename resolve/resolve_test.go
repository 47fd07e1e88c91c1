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

package resolve_test

import (
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/sassinject/resolve"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		req      resolve.ImportRequest
		expected string
	}{
		{
			name:     "bare name gets default extension",
			req:      resolve.ImportRequest{Name: "mixins", From: "/styles/app.scss"},
			expected: "/styles/mixins.scss",
		},
		{
			name:     "existing scss extension kept",
			req:      resolve.ImportRequest{Name: "mixins.scss", From: "/styles/app.scss"},
			expected: "/styles/mixins.scss",
		},
		{
			name:     "sass extension kept",
			req:      resolve.ImportRequest{Name: "grid.sass", From: "/styles/app.sass"},
			expected: "/styles/grid.sass",
		},
		{
			name:     "css extension kept",
			req:      resolve.ImportRequest{Name: "vendor/reset.css", From: "/styles/app.scss"},
			expected: "/styles/vendor/reset.css",
		},
		{
			name:     "nested directory",
			req:      resolve.ImportRequest{Name: "base/typography", From: "/styles/app.scss"},
			expected: "/styles/base/typography.scss",
		},
		{
			name:     "parent directory",
			req:      resolve.ImportRequest{Name: "../shared/colors", From: "/styles/pages/home.scss"},
			expected: "/styles/shared/colors.scss",
		},
		{
			name:     "relative originating path",
			req:      resolve.ImportRequest{Name: "mixins", From: "styles/app.scss"},
			expected: "styles/mixins.scss",
		},
		{
			name:     "root-relative name ignores origin directory",
			req:      resolve.ImportRequest{Name: "/lib/grid", From: "/styles/app.scss"},
			expected: "/lib/grid.scss",
		},
		{
			name:     "http origin",
			req:      resolve.ImportRequest{Name: "mixins", From: "https://example.com/styles/app.scss"},
			expected: "https://example.com/styles/mixins.scss",
		},
		{
			name:     "http origin with parent directory",
			req:      resolve.ImportRequest{Name: "../lib/grid", From: "https://example.com/styles/app.scss"},
			expected: "https://example.com/lib/grid.scss",
		},
		{
			name:     "absolute url name",
			req:      resolve.ImportRequest{Name: "https://cdn.example.com/theme", From: "/styles/app.scss"},
			expected: "https://cdn.example.com/theme.scss",
		},
		{
			name:     "query preserved",
			req:      resolve.ImportRequest{Name: "mixins?v=2", From: "/styles/app.scss"},
			expected: "/styles/mixins.scss?v=2",
		},
		{
			name:     "fragment preserved",
			req:      resolve.ImportRequest{Name: "mixins.scss#top", From: "/styles/app.scss"},
			expected: "/styles/mixins.scss#top",
		},
		{
			name:     "origin query ignored",
			req:      resolve.ImportRequest{Name: "mixins", From: "https://example.com/styles/app.scss?v=1"},
			expected: "https://example.com/styles/mixins.scss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := resolve.Resolve(tt.req)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if loc.URL != tt.expected {
				t.Errorf("Resolve(%q from %q) = %q, want %q", tt.req.Name, tt.req.From, loc.URL, tt.expected)
			}
		})
	}
}

func TestResolveAppendsExtensionOnce(t *testing.T) {
	for _, name := range []string{"a", "a.scss", "dir/a", "dir/a.scss"} {
		loc, err := resolve.Resolve(resolve.ImportRequest{Name: name, From: "/x.scss"})
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", name, err)
		}
		if strings.Count(loc.URL, ".scss") != 1 {
			t.Errorf("Resolve(%q) = %q, expected exactly one .scss", name, loc.URL)
		}
	}
}

func TestResolveUnresolvable(t *testing.T) {
	for _, name := range []string{"", "   ", "?v=1", "#frag"} {
		_, err := resolve.Resolve(resolve.ImportRequest{Name: name, From: "/styles/app.scss"})
		if err == nil {
			t.Errorf("Expected error for %q", name)
			continue
		}
		var unresolvable *resolve.UnresolvableImportError
		if !errors.As(err, &unresolvable) {
			t.Errorf("Expected UnresolvableImportError for %q, got %T", name, err)
		}
	}
}

func TestPartialForm(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"a/b.scss", "a/_b.scss"},
		{"/styles/mixins.scss", "/styles/_mixins.scss"},
		{"mixins.scss", "_mixins.scss"},
		{"https://example.com/styles/mixins.scss", "https://example.com/styles/_mixins.scss"},
		{"/styles/mixins.scss?v=2", "/styles/_mixins.scss?v=2"},
		{"/dir_with/under_score/x.scss", "/dir_with/under_score/_x.scss"},
	}
	for _, tt := range tests {
		got := resolve.PartialForm(resolve.Location{URL: tt.in})
		if got.URL != tt.expected {
			t.Errorf("PartialForm(%q) = %q, want %q", tt.in, got.URL, tt.expected)
		}
	}
}

// PartialForm is not idempotent; a second pass adds another underscore.
func TestPartialFormAppliedTwice(t *testing.T) {
	once := resolve.PartialForm(resolve.Location{URL: "a/b.scss"})
	twice := resolve.PartialForm(once)
	if once.URL != "a/_b.scss" {
		t.Errorf("Expected a/_b.scss, got %s", once.URL)
	}
	if twice.URL != "a/__b.scss" {
		t.Errorf("Expected a/__b.scss, got %s", twice.URL)
	}
}

func TestIsIndented(t *testing.T) {
	tests := map[string]bool{
		"/styles/app.sass":                    true,
		"/styles/app.scss":                    false,
		"https://example.com/app.sass?v=1":    true,
		"https://example.com/app.scss#x.sass": false,
		"/styles/app.css":                     false,
	}
	for address, expected := range tests {
		if got := resolve.IsIndented(address); got != expected {
			t.Errorf("IsIndented(%q) = %v, want %v", address, got, expected)
		}
	}
}

func TestBaseOf(t *testing.T) {
	tests := map[string]string{
		"/styles/app.scss":                        "/styles/",
		"https://example.com/styles/app.scss?v=1": "https://example.com/styles/",
		"https://example.com/app.scss":            "https://example.com/",
		"/app.scss":                               "/",
		"app.scss":                                "./",
		"styles/nested/app.scss":                  "styles/nested/",
	}
	for address, expected := range tests {
		if got := resolve.BaseOf(address); got != expected {
			t.Errorf("BaseOf(%q) = %q, want %q", address, got, expected)
		}
	}
}
