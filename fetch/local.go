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

package fetch

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"strings"

	sifs "bennypowers.dev/sassinject/fs"
)

// FSFetcher reads sources from a filesystem. Query and fragment are ignored.
type FSFetcher struct {
	fs sifs.FileSystem
}

// NewFSFetcher creates a fetcher over the given filesystem.
func NewFSFetcher(fsys sifs.FileSystem) *FSFetcher {
	return &FSFetcher{fs: fsys}
}

// Fetch reads the file named by u.
func (f *FSFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: u, Message: err.Error()}
	}
	name := strings.TrimPrefix(u, "file://")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	data, err := f.fs.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{URL: u, StatusCode: 404, Message: "Not Found"}
		}
		return nil, &FetchError{URL: u, Message: err.Error()}
	}
	return data, nil
}

// Mux dispatches to a network fetcher for http(s) URLs and to a local
// fetcher for everything else.
type Mux struct {
	Network Fetcher
	Local   Fetcher
}

// NewMux creates a Mux over the given fetchers.
func NewMux(network, local Fetcher) *Mux {
	return &Mux{Network: network, Local: local}
}

// Fetch implements Fetcher.
func (m *Mux) Fetch(ctx context.Context, u string) ([]byte, error) {
	if parsed, err := url.Parse(u); err == nil {
		switch parsed.Scheme {
		case "http", "https":
			return m.Network.Fetch(ctx, u)
		}
	}
	return m.Local.Fetch(ctx, u)
}
