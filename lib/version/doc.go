// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of a gather binary is running.
//
// Release builds inject [GitCommit], [GitDirty], [BuildTime] and
// [Version] with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/gather/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When the commit was not injected, the VCS stamp recorded by the go
// command (vcs.revision, vcs.modified, vcs.time) is used instead, so a
// plain go build from a checkout still identifies itself. Test
// binaries carry no stamp and report "unknown".
package version
