// Package scripts embeds the bundled Risor policy scripts.
package scripts

import "embed"

// FS holds the policy/*.risor scripts. Paths are relative to this
// directory, e.g. "policy/public_api.risor".
//
//go:embed policy/*.risor
var FS embed.FS
