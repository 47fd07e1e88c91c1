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
	"fmt"

	"bennypowers.dev/sassinject/internal/ctxlog"
)

// Outcome is the result of a probe: either Found with text, or NotFound.
type Outcome struct {
	Text  string
	Found bool
}

// Found returns an outcome carrying text.
func Found(text string) Outcome {
	return Outcome{Text: text, Found: true}
}

// NotFound returns the absent outcome.
func NotFound() Outcome {
	return Outcome{}
}

// TextResponse is a rich response object carrying its body as text.
type TextResponse interface {
	ResponseText() string
}

// Normalize converts the response shapes a fetch primitive may produce into
// plain text: a string, a byte slice, or a TextResponse.
func Normalize(resp any) (string, error) {
	switch r := resp.(type) {
	case string:
		return r, nil
	case []byte:
		return string(r), nil
	case TextResponse:
		return r.ResponseText(), nil
	case nil:
		return "", fmt.Errorf("empty response")
	default:
		return "", fmt.Errorf("unsupported response type %T", resp)
	}
}

// ValueFetcher adapts a primitive returning loosely-shaped responses.
type ValueFetcher func(ctx context.Context, url string) (any, error)

// Fetch implements Fetcher, normalizing the response to bytes.
func (f ValueFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f(ctx, url)
	if err != nil {
		return nil, err
	}
	text, err := Normalize(resp)
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	return []byte(text), nil
}

// Loader turns fetches into outcomes.
type Loader struct {
	fetcher Fetcher
}

// NewLoader wraps a Fetcher.
func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f}
}

// Probe fetches url once. Every failure, whatever its cause, is NotFound.
func (l *Loader) Probe(ctx context.Context, url string) Outcome {
	logger := ctxlog.FromContext(ctx)
	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.Debug("probe missed", "url", url, "error", err)
		return NotFound()
	}
	logger.Debug("probe found", "url", url, "bytes", len(data))
	return Found(string(data))
}

// Require fetches url once and returns its text or the fetch error.
func (l *Loader) Require(ctx context.Context, url string) (string, error) {
	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
