// Package config handles configuration loading and merging for retest.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (-tool, -debug) and the runtime coverage toggle
//  2. Environment variables (RETEST_TOOL, RETEST_COVERAGE, RETEST_DEBUG)
//  3. YAML config file (.retest.yaml in the workspace root or ~/.config/retest/.retest.yaml)
//  4. Hardcoded defaults
//
// # Live Reads
//
// Live resolves the file again on every accessor call. Whether coverage is
// enabled and which snapshot directories exist are therefore read at the
// moment a run is triggered, never cached across runs.
//
// # Example
//
//	tool: libtest
//	test_command: cargo test --workspace
//	coverage: true
//	coverage_tool: grcov
//	snapshot_dirs: [tests/snapshots]
//	env:
//	  RUST_BACKTRACE: "1"
package config
