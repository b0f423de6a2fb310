package migrations

import "embed"

// FS embeds the SQL migration files in this directory. The
// golang-migrate iofs driver reads them when migrations are applied on
// startup.
//
//go:embed *.sql
var FS embed.FS

// Version is the newest migration in FS.
const Version = 1
