//go:build cgo

package storage

import (
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteDriver selects the database/sql driver name for this build. CGO
// builds use the C library driver.
const sqliteDriver = "sqlite3"
