// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via -ldflags -X at build time.
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// build is the identity actually reported: the ldflags values, with
// gaps filled from the VCS stamp the go command embeds.
type build struct {
	commit string
	dirty  bool
	time   string
}

var stamped = sync.OnceValue(func() map[string]string {
	settings := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	return settings
})

func current() build {
	b := build{commit: GitCommit, dirty: GitDirty == "true", time: BuildTime}
	if b.commit != "unknown" {
		return b
	}
	settings := stamped()
	if revision := settings["vcs.revision"]; revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		b.commit = revision
		b.dirty = settings["vcs.modified"] == "true"
	}
	if b.time == "unknown" && settings["vcs.time"] != "" {
		b.time = settings["vcs.time"]
	}
	return b
}

// Info returns "version (commit[-dirty], time)".
func Info() string {
	b := current()
	dirty := ""
	if b.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, b.commit, dirty, b.time)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Banner returns the --version line of a binary.
func Banner(binary string) string {
	return binary + " " + Info()
}

// LogAttrs returns the build identity as slog key/value pairs for a
// node's startup message.
func LogAttrs() []any {
	b := current()
	return []any{"version", Version, "commit", b.commit, "dirty", b.dirty, "go", runtime.Version()}
}
