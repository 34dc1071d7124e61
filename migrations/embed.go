// Package migrations holds the versioned SQL schema, embedded so the server
// and tests can migrate without the files on disk.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
