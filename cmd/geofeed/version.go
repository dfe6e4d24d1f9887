package main

import "runtime/debug"

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by `go install`.
func resolveVersion(version string, info *debug.BuildInfo) string {
	if version != "dev" {
		return version
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}
