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

// Provider is a CDN that serves raw package files.
type Provider struct {
	Name string
	// FileTemplate is the URL template for a file inside a package.
	// Variables: {package}, {name}, {scope}, {version}, {path}
	FileTemplate string
}

// Predefined CDN providers
var (
	// Jsdelivr is the jsDelivr CDN provider.
	Jsdelivr = Provider{
		Name:         "jsdelivr",
		FileTemplate: "https://cdn.jsdelivr.net/npm/{package}@{version}/{path}",
	}

	// Unpkg is the unpkg CDN provider.
	Unpkg = Provider{
		Name:         "unpkg",
		FileTemplate: "https://unpkg.com/{package}@{version}/{path}",
	}
)

// DefaultProvider is the default CDN provider (jsDelivr).
var DefaultProvider = Jsdelivr

// ProviderByName returns a CDN provider by name.
// Returns nil if the provider name is not recognized.
func ProviderByName(name string) *Provider {
	switch name {
	case "jsdelivr", "jsdelivr.net", "cdn.jsdelivr.net":
		return &Jsdelivr
	case "unpkg", "unpkg.com":
		return &Unpkg
	default:
		return nil
	}
}

// ProviderNames returns a list of supported CDN provider names.
func ProviderNames() []string {
	return []string{"jsdelivr", "unpkg"}
}

// IsValidProvider returns true if the provider name is recognized.
// It honors the same aliases as ProviderByName.
func IsValidProvider(name string) bool {
	return ProviderByName(name) != nil
}
