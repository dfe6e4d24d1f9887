package main

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
)

// TestResolveVersion covers the three ways a geofeed binary is produced:
// a tagged release build stamps main.version, `go install ...@vX` records
// the module version, and a local `go build` has neither.
func TestResolveVersion(t *testing.T) {
	cases := []struct {
		name    string
		stamped string
		info    *debug.BuildInfo
		want    string
	}{
		{"release build keeps the stamped tag", "v0.4.0", &debug.BuildInfo{Main: debug.Module{Version: "v0.0.0"}}, "v0.4.0"},
		{"go install reports the module version", "dev", &debug.BuildInfo{Main: debug.Module{Version: "v0.4.1"}}, "v0.4.1"},
		{"local checkout stays dev", "dev", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, "dev"},
		{"missing module version stays dev", "dev", &debug.BuildInfo{}, "dev"},
		{"no build info stays dev", "dev", nil, "dev"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveVersion(tc.stamped, tc.info); got != tc.want {
				t.Errorf("resolveVersion(%q) = %q, want %q", tc.stamped, got, tc.want)
			}
		})
	}
}

// TestRootCommand_VersionTemplate verifies --version prints one parseable line.
func TestRootCommand_VersionTemplate(t *testing.T) {
	root := newRootCmd()
	root.Version = "v0.4.0"
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("--version should succeed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "geofeed version v0.4.0" {
		t.Errorf("unexpected version line %q", got)
	}
}
