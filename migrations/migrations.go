// Package migrations embeds the directory schema for each SQL backend.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
