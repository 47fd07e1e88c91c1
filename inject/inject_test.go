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

package inject_test

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/engine/enginetest"
	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/inject"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/mapfs"
	"bennypowers.dev/sassinject/pipeline"
	"bennypowers.dev/sassinject/testutil"
)

func setup(t *testing.T) (*mapfs.MapFileSystem, *pipeline.Pipeline, *atomic.Int32) {
	t.Helper()
	mfs := testutil.NewFixtureFS(t, "inject/site", "/site")
	loader := fetch.NewLoader(fetch.NewFSFetcher(mfs))
	builds := &atomic.Int32{}
	fake := enginetest.NewFake()
	gate := engine.NewGate(engine.SelectorFunc(func(ctx context.Context, workers bool) (engine.Engine, error) {
		builds.Add(1)
		return fake, nil
	}), nil, importer.New(loader).Import)
	return mfs, pipeline.New(loader, gate, install.Discard), builds
}

func collect(results <-chan inject.Result) map[string]inject.Result {
	byFile := make(map[string]inject.Result)
	for r := range results {
		byFile[r.File] = r
	}
	return byFile
}

func TestInjectBatch(t *testing.T) {
	mfs, p, builds := setup(t)
	files := []string{
		"/site/index.html",
		"/site/blog/post.html",
		"/site/plain.html",
		"/site/broken.html",
	}

	results := collect(inject.InjectBatch(context.Background(), mfs, p, files, inject.Options{
		Root:     "/site",
		Parallel: 2,
	}))

	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}

	goldens := map[string]string{
		"/site/index.html":     "inject/golden/index.html",
		"/site/blog/post.html": "inject/golden/post.html",
	}
	for file, golden := range goldens {
		r := results[file]
		if r.Error != "" || !r.Modified {
			t.Errorf("%s: expected modification, got %+v", file, r)
			continue
		}
		actual := []byte(mfs.Content(file))
		testutil.UpdateGoldenFile(t, golden, actual)
		expected := testutil.LoadGoldenFile(t, golden)
		if expected != nil && string(actual) != string(expected) {
			t.Errorf("%s mismatch.\nExpected:\n%s\nGot:\n%s", file, expected, actual)
		}
	}

	post := results["/site/blog/post.html"]
	expectedSheets := []string{"/site/styles/app.scss", "/site/styles/post.sass"}
	if !slices.Equal(post.Stylesheets, expectedSheets) {
		t.Errorf("Expected stylesheets %v, got %v", expectedSheets, post.Stylesheets)
	}

	if r := results["/site/plain.html"]; r.Modified || r.Error != "" {
		t.Errorf("Expected plain.html to be skipped, got %+v", r)
	}
	if r := results["/site/broken.html"]; r.Error == "" || r.Modified {
		t.Errorf("Expected broken.html to fail, got %+v", r)
	}
	if builds.Load() != 1 {
		t.Errorf("Expected one shared engine, got %d constructions", builds.Load())
	}
}

func TestInjectDryRun(t *testing.T) {
	mfs, p, _ := setup(t)
	before := mfs.Content("/site/index.html")

	results := collect(inject.InjectBatch(context.Background(), mfs, p, []string{"/site/index.html"}, inject.Options{
		DryRun: true,
	}))

	if r := results["/site/index.html"]; !r.Modified {
		t.Errorf("Expected dry run to report a modification, got %+v", r)
	}
	if mfs.Content("/site/index.html") != before {
		t.Error("Dry run must not write the file")
	}
}

func TestInjectExplicitAddresses(t *testing.T) {
	mfs, p, _ := setup(t)

	results := collect(inject.InjectBatch(context.Background(), mfs, p, []string{"/site/plain.html"}, inject.Options{
		Addresses: []string{"/site/styles/post.sass"},
	}))

	if r := results["/site/plain.html"]; !r.Modified {
		t.Fatalf("Expected plain.html to be modified, got %+v", r)
	}
	if !strings.Contains(mfs.Content("/site/plain.html"), "margin: 1em") {
		t.Errorf("Expected compiled CSS in output, got:\n%s", mfs.Content("/site/plain.html"))
	}
}

func TestInjectKeepsFileMode(t *testing.T) {
	mfs, p, _ := setup(t)
	mfs.AddFile("/site/private.html", "<html><head></head><body></body></html>", 0600)

	results := collect(inject.InjectBatch(context.Background(), mfs, p, []string{"/site/private.html"}, inject.Options{
		Addresses: []string{"/site/styles/post.sass"},
	}))
	if r := results["/site/private.html"]; !r.Modified || r.Error != "" {
		t.Fatalf("Expected private.html to be modified, got %+v", r)
	}

	info, err := mfs.Stat("/site/private.html")
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600 to be kept, got %v", info.Mode().Perm())
	}
}

func TestInjectMissingFile(t *testing.T) {
	mfs, p, _ := setup(t)

	results := collect(inject.InjectBatch(context.Background(), mfs, p, []string{"/site/nope.html"}, inject.Options{}))
	if r := results["/site/nope.html"]; r.Error == "" {
		t.Error("Expected an error for a missing file")
	}
}

func TestStats(t *testing.T) {
	var stats inject.Stats
	for _, r := range []inject.Result{
		{File: "a", Modified: true},
		{File: "b"},
		{File: "c", Error: "boom"},
		{File: "d", Modified: true},
	} {
		stats.Add(r)
	}
	if stats.Updated != 2 || stats.Skipped != 1 || stats.Errors != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestStylesheets(t *testing.T) {
	content := []byte(`<html><head>
<link rel="stylesheet/scss" href="a.scss">
<link rel="stylesheet" href="b.css">
<link REL="Stylesheet/Sass" href=" c.sass " />
<link rel="stylesheet/scss">
</head><body><link rel="stylesheet/scss" href="d.scss"></body></html>`)

	expected := []string{"a.scss", "c.sass", "d.scss"}
	if got := inject.Stylesheets(content); !slices.Equal(got, expected) {
		t.Errorf("Stylesheets() = %v, want %v", got, expected)
	}
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		href     string
		expected string
	}{
		{"styles/app.scss", "/site/blog/styles/app.scss"},
		{"../styles/app.scss", "/site/styles/app.scss"},
		{"/styles/app.scss", "/site/styles/app.scss"},
		{"https://cdn.example.com/app.scss", "https://cdn.example.com/app.scss"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := inject.ResolveHref("/site/blog/post.html", "/site", tt.href); got != tt.expected {
				t.Errorf("ResolveHref(%q) = %q, want %q", tt.href, got, tt.expected)
			}
		})
	}
}
