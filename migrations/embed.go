// Package migrations holds the versioned schema for the film database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
