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

package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/engine/auto"
	"bennypowers.dev/sassinject/engine/enginetest"
	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/pipeline"
	"bennypowers.dev/sassinject/testutil"
)

func TestConfigFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("engine.dir", "/opt/sass")
	viper.Set("engine.workers", "off")
	viper.Set("engine.worker-binary", "dart-sass/sass")
	viper.Set("timeout", "3s")
	viper.Set("verbose", true)
	viper.Set("cdn", "unpkg")

	cfg := ConfigFromViper()
	if cfg.Engine.Dir != "/opt/sass" || cfg.Engine.Workers != "off" || cfg.Engine.WorkerBinary != "dart-sass/sass" {
		t.Errorf("Unexpected engine config %+v", cfg.Engine)
	}
	if cfg.Timeout != 3*time.Second || cfg.Engine.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v / %v", cfg.Timeout, cfg.Engine.Timeout)
	}
	if cfg.CDN != "unpkg" {
		t.Errorf("Expected cdn unpkg, got %q", cfg.CDN)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected verbose to force debug, got %q", cfg.LogLevel)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		debug   bool
		warn    bool
		jsonOut bool
	}{
		{"debug", "text", true, true, false},
		{"", "text", false, true, false},
		{"error", "json", false, false, true},
		{"info", "json", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, tt.format, &buf)
			ctx := context.Background()
			if got := logger.Enabled(ctx, -4); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if got := logger.Enabled(ctx, 4); got != tt.warn {
				t.Errorf("warn enabled = %v, want %v", got, tt.warn)
			}
			logger.Error("boom")
			if got := strings.HasPrefix(buf.String(), "{"); got != tt.jsonOut {
				t.Errorf("json output = %v, want %v: %s", got, tt.jsonOut, buf.String())
			}
		})
	}
}

func TestAddress(t *testing.T) {
	abs, err := filepath.Abs("styles/app.scss")
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(Config{Engine: auto.Config{Workers: auto.WorkersOff}, CDN: "unpkg"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	tests := []struct {
		arg      string
		expected string
	}{
		{"https://example.com/app.scss", "https://example.com/app.scss"},
		{"file:///srv/app.scss", "file:///srv/app.scss"},
		{"styles/app.scss", filepath.ToSlash(abs)},
		{"npm:bulma@1.0.2/sass/_index.scss", "https://unpkg.com/bulma@1.0.2/sass/_index.scss"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := a.Address(tt.arg)
			if err != nil {
				t.Fatalf("Address error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Address(%q) = %q, want %q", tt.arg, got, tt.expected)
			}
		})
	}
}

func TestAddresses(t *testing.T) {
	a, err := New(Config{Engine: auto.Config{Workers: auto.WorkersOff}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	dir := filepath.Join("..", "..", "testdata", "styles")
	addresses, err := a.Addresses(
		[]string{filepath.Join(dir, "app.scss"), "https://example.com/x.scss"},
		filepath.Join(dir, "*.scss"),
	)
	if err != nil {
		t.Fatalf("Addresses error: %v", err)
	}

	appAbs, _ := filepath.Abs(filepath.Join(dir, "app.scss"))
	if addresses[0] != filepath.ToSlash(appAbs) || addresses[1] != "https://example.com/x.scss" {
		t.Errorf("Expected arguments first, got %v", addresses)
	}
	seen := make(map[string]int)
	for _, address := range addresses {
		seen[address]++
	}
	if seen[filepath.ToSlash(appAbs)] != 1 {
		t.Errorf("Expected app.scss once, got %v", addresses)
	}
	mixins, _ := filepath.Abs(filepath.Join(dir, "_mixins.scss"))
	if seen[filepath.ToSlash(mixins)] != 1 {
		t.Errorf("Expected glob matches, got %v", addresses)
	}

	if _, err := a.Addresses(nil, "[unclosed"); err == nil {
		t.Error("Expected an invalid glob error")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	if _, err := New(Config{Engine: auto.Config{Workers: "sometimes"}}, &bytes.Buffer{}); err == nil {
		t.Error("Expected an error for an invalid workers mode")
	}
	if _, err := New(Config{Engine: auto.Config{Workers: auto.WorkersOff}, CDN: "esm.sh"}, &bytes.Buffer{}); err == nil {
		t.Error("Expected an error for an unsupported CDN")
	}
}

func TestAppPipeline(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "styles", "/styles")
	fake := enginetest.NewFake()
	wrapped := 0

	a, err := New(Config{Engine: auto.Config{Workers: auto.WorkersOff}}, &bytes.Buffer{},
		WithFetcher(fetch.NewFSFetcher(mfs)),
		WithSelector(engine.SelectorFunc(func(ctx context.Context, workers bool) (engine.Engine, error) {
			if workers {
				return nil, errors.New("workers disabled")
			}
			return fake, nil
		})),
		WrapImporter(func(next importer.Func) importer.Func {
			wrapped++
			return next
		}),
	)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if wrapped != 1 {
		t.Errorf("Expected the importer to be wrapped once, got %d", wrapped)
	}

	ctx, cancel := a.Context(context.Background())
	defer cancel()
	if ctxlog.FromContext(ctx) != a.Logger {
		t.Error("Expected the context to carry the app logger")
	}

	var out bytes.Buffer
	if err := a.Pipeline(install.NewWriter(&out, true)).Load(ctx, pipeline.LoadRequest{Address: "/styles/app.scss"}); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !strings.Contains(out.String(), "color: red") {
		t.Errorf("Unexpected output %q", out.String())
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
	if a.Gate.State() != engine.Failed {
		t.Errorf("Expected a closed gate, got %s", a.Gate.State())
	}
}

func TestContextTimeout(t *testing.T) {
	a, err := New(Config{Engine: auto.Config{Workers: auto.WorkersOff}, Timeout: time.Minute}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	ctx, cancel := a.Context(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("Expected a deadline")
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close of an unused app should succeed, got %v", err)
	}
}
