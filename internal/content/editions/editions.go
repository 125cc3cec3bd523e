// Package editions embeds the published questionnaire editions.
package editions

import "embed"

// Current is the edition served when no other is requested.
const Current = "cdr-v4"

//go:embed *.yaml
var FS embed.FS
