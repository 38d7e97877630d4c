// Package migrations holds the versioned schema of the ragctl database.
package migrations

import "embed"

// FS holds the numbered up and down scripts applied in order by the store.
//
//go:embed *.sql
var FS embed.FS
