package store

import "strings"

// likeEscaper escapes LIKE wildcards; queries use ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefixPattern returns a LIKE pattern matching paths strictly below prefix.
// prefix must not end in "/".
func prefixPattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "/%"
}

// nullableInt64 converts an optional ref for storage.
func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
