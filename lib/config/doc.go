// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for gather nodes.
//
// Configuration is loaded from a single file specified by either the
// GATHER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// lifecycle transitions are always checked and logging drops to info.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${GATHER_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// A node's identity comes from two seeds: network.seed names the
// shared store every participant joins and agent.seed names the
// participant. Both are required and neither has a default.
//
// The remotes section maps module names the node does not implement
// to the Unix sockets of the processes that do. The relay section
// turns on publishing of index signals to Redis.
//
// [Config.Validate] reports every problem at once, joined with
// errors.Join. This package depends on no other gather packages.
package config
