// Package migrations embeds the SQL schema goose applies when the durable
// backend starts.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
