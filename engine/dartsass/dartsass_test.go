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

package dartsass

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"

	"github.com/bep/godartsass/v2"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/internal/mapfs"
	"bennypowers.dev/sassinject/resolve"
)

func TestToURL(t *testing.T) {
	tests := map[string]string{
		"/styles/app.scss":                 "sassinject:///styles/app.scss",
		"https://example.com/app.scss":     "https://example.com/app.scss",
		"file:///styles/there.scss":        "sassinject:///styles/there.scss",
		"sassinject:///already/there.scss": "sassinject:///already/there.scss",
	}
	for in, expected := range tests {
		if got := ToURL(in); got != expected {
			t.Errorf("ToURL(%q) = %q, want %q", in, got, expected)
		}
	}
	if got := FromURL("sassinject:///styles/app.scss"); got != "/styles/app.scss" {
		t.Errorf("FromURL = %q", got)
	}
	if got := FromURL("https://example.com/app.scss"); got != "https://example.com/app.scss" {
		t.Errorf("FromURL changed a network URL: %q", got)
	}
}

func TestResolverCanonicalizeAndLoad(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/styles/_mixins.scss", "$c: blue;", 0644)
	mfs.AddFile("/styles/grid.sass", "$cols: 12", 0644)
	bridge := importer.New(fetch.NewLoader(fetch.NewFSFetcher(mfs)))
	r := newResolver(context.Background(), bridge.Import, "/styles/stdin")

	canonical, err := r.CanonicalizeURL("sassinject:///styles/mixins")
	if err != nil {
		t.Fatalf("CanonicalizeURL error: %v", err)
	}
	if canonical != "sassinject:///styles/mixins.scss" {
		t.Errorf("Expected logical canonical URL, got %q", canonical)
	}
	imp, err := r.Load(canonical)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if imp.Content != "$c: blue;" || imp.SourceSyntax != godartsass.SourceSyntaxSCSS {
		t.Errorf("Unexpected import %+v", imp)
	}

	canonical, err = r.CanonicalizeURL("grid.sass")
	if err != nil || canonical != "sassinject:///styles/grid.sass" {
		t.Fatalf("Unexpected canonical %q (%v)", canonical, err)
	}
	imp, err = r.Load(canonical)
	if err != nil || imp.SourceSyntax != godartsass.SourceSyntaxSASS {
		t.Errorf("Expected indented syntax import, got %+v (%v)", imp, err)
	}

	canonical, err = r.CanonicalizeURL("missing")
	if err != nil || canonical != "" {
		t.Errorf("Expected declined canonicalization, got %q (%v)", canonical, err)
	}
}

func TestResolverEntryImportReachesImporter(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/styles/_mixins.scss", "$c: blue;", 0644)
	mfs.AddFile("/styles/base/scale.scss", "$ratio: 1.25;", 0644)
	bridge := importer.New(fetch.NewLoader(fetch.NewFSFetcher(mfs)))

	var got []resolve.ImportRequest
	record := importer.Func(func(ctx context.Context, req resolve.ImportRequest, done func(importer.Result)) {
		got = append(got, req)
		bridge.Import(ctx, req, done)
	})
	opts := engine.Options{Importer: engine.ImporterOptions{URLBase: "/styles/"}, InputPath: "stdin"}
	r := newResolver(context.Background(), record, opts.EntryURL())

	if entry := ToURL(opts.EntryURL()); !strings.HasPrefix(entry, "sassinject:") {
		t.Fatalf("Expected the entry URL outside the file scheme, got %q", entry)
	}

	canonical, err := r.CanonicalizeURL("mixins")
	if err != nil || canonical != "sassinject:///styles/mixins.scss" {
		t.Fatalf("Unexpected canonical %q (%v)", canonical, err)
	}
	if _, err := r.CanonicalizeURL("sassinject:///styles/base/scale"); err != nil {
		t.Fatalf("CanonicalizeURL error: %v", err)
	}

	expected := []resolve.ImportRequest{
		{Name: "mixins", From: "/styles/stdin"},
		{Name: "scale", From: "/styles/base/"},
	}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d importer calls, got %+v", len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Request %d: expected %+v, got %+v", i, expected[i], got[i])
		}
	}

	reads := mfs.Reads()
	if len(reads) == 0 || reads[0] != "/styles/_mixins.scss" {
		t.Errorf("Expected the partial form fetched first, got %v", reads)
	}
}

func TestRewriteSourceMap(t *testing.T) {
	in := `{"version":3,"sources":["stdin"],"sourcesContent":["a{}"],"mappings":"AAAA"}`
	opts := engine.Options{SourceMapRoot: "root", OutputPath: "stdout", SourceMapContents: true}

	var m map[string]any
	if err := json.Unmarshal([]byte(rewriteSourceMap(in, opts)), &m); err != nil {
		t.Fatalf("Invalid map: %v", err)
	}
	if m["sourceRoot"] != "root" || m["file"] != "stdout" {
		t.Errorf("Unexpected labels %v", m)
	}
	if _, ok := m["sourcesContent"]; !ok {
		t.Error("Expected sourcesContent to be kept")
	}

	local := `{"version":3,"sources":["sassinject:///styles/_mixins.scss","https://example.com/a.scss"],"mappings":""}`
	m = nil
	if err := json.Unmarshal([]byte(rewriteSourceMap(local, opts)), &m); err != nil {
		t.Fatalf("Invalid map: %v", err)
	}
	sources, _ := m["sources"].([]any)
	if len(sources) != 2 || sources[0] != "/styles/_mixins.scss" || sources[1] != "https://example.com/a.scss" {
		t.Errorf("Unexpected sources %v", sources)
	}

	opts.SourceMapContents = false
	m = nil
	if err := json.Unmarshal([]byte(rewriteSourceMap(in, opts)), &m); err != nil {
		t.Fatalf("Invalid map: %v", err)
	}
	if _, ok := m["sourcesContent"]; ok {
		t.Error("Expected sourcesContent to be dropped")
	}
}

func TestAppendMapComment(t *testing.T) {
	sourceMap := `{"version":3}`

	embedded := appendMapComment("a{}", sourceMap, engine.Options{SourceMapEmbed: true, SourceMapFile: "style.css.map"})
	expected := "a{}\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64," +
		base64.StdEncoding.EncodeToString([]byte(sourceMap)) + " */"
	if embedded != expected {
		t.Errorf("Unexpected embedded output %q", embedded)
	}

	linked := appendMapComment("a{}\n", sourceMap, engine.Options{SourceMapFile: "style.css.map"})
	if linked != "a{}\n/*# sourceMappingURL=style.css.map */" {
		t.Errorf("Unexpected linked output %q", linked)
	}

	omitted := appendMapComment("a{}", sourceMap, engine.Options{SourceMapEmbed: true, SourceMapOmitURL: true})
	if omitted != "a{}" {
		t.Errorf("Expected no comment, got %q", omitted)
	}
}

func TestEngineCompile(t *testing.T) {
	binary, err := exec.LookPath("sass")
	if err != nil {
		t.Skip("dart-sass not installed")
	}
	e, err := Start(Options{Binary: binary})
	if err != nil {
		t.Skipf("dart-sass could not start: %v", err)
	}
	defer e.Close()

	mfs := mapfs.New()
	mfs.AddFile("/styles/_mixins.scss", "$c: blue;", 0644)
	e.Importer(importer.New(fetch.NewLoader(fetch.NewFSFetcher(mfs))).Import)

	res, err := e.Compile(context.Background(), `@import "mixins"; body{color:$c;}`, engine.Options{
		Importer:  engine.ImporterOptions{URLBase: "/styles/"},
		InputPath: "stdin",
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !res.OK() || !strings.Contains(res.Text, "color: blue") {
		t.Errorf("Unexpected result %+v", res)
	}
}
