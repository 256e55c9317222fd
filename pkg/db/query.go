package db

import "strings"

// EscapeLike is appended after a LIKE operand built with ContainsPattern.
const EscapeLike = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lower-cases value and wraps it for a case-insensitive
// substring match against LOWER(column). Wildcards in value match literally.
func ContainsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(value))) + "%"
}
