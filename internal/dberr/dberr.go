// Package dberr handles database driver errors.
//
// It parses cryptic error codes from the PostgreSQL and MongoDB
// drivers and converts them into user-friendly HTTP errors (e.g.
// converting a "unique violation" into a "Bad Request" error).
package dberr
