// Package migrations embeds the local development schema into the binary.
//
// The files mirror the tables of the remote controller database so that the
// service can run against a local SQLite file without an SSH tunnel.
package migrations

import "embed"

// FS holds every *.up.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
