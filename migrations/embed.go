// Package migrations embeds the SQL schema applied by `wms migrate`.
package migrations

import "embed"

// FS holds the versioned *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
