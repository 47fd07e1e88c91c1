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

package auto_test

import (
	"context"
	"path/filepath"
	"testing"

	"bennypowers.dev/sassinject/engine/auto"
	"bennypowers.dev/sassinject/engine/libsass"
)

func TestWorkerPath(t *testing.T) {
	tests := []struct {
		name     string
		cfg      auto.Config
		expected string
	}{
		{name: "default on PATH", cfg: auto.Config{}, expected: "sass"},
		{name: "relative to engine dir", cfg: auto.Config{Dir: "/opt/sass"}, expected: filepath.Join("/opt/sass", "sass")},
		{name: "custom relative binary", cfg: auto.Config{Dir: "/opt/sass", WorkerBinary: "bin/dart-sass"}, expected: filepath.Join("/opt/sass", "bin/dart-sass")},
		{name: "absolute binary ignores dir", cfg: auto.Config{Dir: "/opt/sass", WorkerBinary: "/usr/bin/sass"}, expected: "/usr/bin/sass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.WorkerPath(); got != tt.expected {
				t.Errorf("WorkerPath() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	on, err := auto.Capabilities(auto.Config{Workers: auto.WorkersOn})
	if err != nil || !on.Workers() {
		t.Errorf("Expected workers on, got %v (%v)", on, err)
	}
	off, err := auto.Capabilities(auto.Config{Workers: auto.WorkersOff})
	if err != nil || off.Workers() {
		t.Errorf("Expected workers off, got %v (%v)", off, err)
	}
	missing, err := auto.Capabilities(auto.Config{Workers: auto.WorkersAuto, Dir: t.TempDir()})
	if err != nil || missing.Workers() {
		t.Errorf("Expected no workers without a binary, got %v (%v)", missing, err)
	}
	if _, err := auto.Capabilities(auto.Config{Workers: "sometimes"}); err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestSelectorInProcess(t *testing.T) {
	e, err := auto.Selector(auto.Config{}).Select(context.Background(), false)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if _, ok := e.(*libsass.Engine); !ok {
		t.Errorf("Expected libsass engine, got %T", e)
	}
}

func TestSelectorWorkerMissingBinary(t *testing.T) {
	_, err := auto.Selector(auto.Config{Dir: t.TempDir()}).Select(context.Background(), true)
	if err == nil {
		t.Error("Expected error when the worker binary is missing")
	}
}
