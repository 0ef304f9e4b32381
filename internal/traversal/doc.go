// Package traversal decides which directory entries take part in an aggregation run.
//
// The walk-level rules (hidden entries, ignore files) prune whole directories, while
// Accept applies the per-file rules: regular files only, no node_modules paths and an
// optional extension allowlist compared verbatim.
package traversal
