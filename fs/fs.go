// Package appfs embeds the SQL migrations and email templates shipped with the binaries.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/*.txt
var FS embed.FS
