// Package migrations holds the versioned postgres schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
