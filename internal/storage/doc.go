// Package storage is the persistence collaborator: a SQLite-backed store of
// highlight records.
//
// Only Fragments are persisted, together with their identifier and page
// URL. Anchors are transient tree pointers and never reach this layer.
//
// Two driver configurations are supported via build tags: mattn/go-sqlite3
// under cgo, modernc.org/sqlite as the pure Go fallback. See build_cgo.go
// and build_purego.go.
package storage
