// Package migrations embeds the goose migrations for the durable
// session store database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
