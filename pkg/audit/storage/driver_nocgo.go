//go:build !cgo

package storage

import (
	_ "modernc.org/sqlite" // SQLite driver
)

// sqliteDriver selects the database/sql driver name for this build. Builds
// without CGO fall back to the pure-Go driver, so static container images
// keep a working sqlite backend.
const sqliteDriver = "sqlite"
