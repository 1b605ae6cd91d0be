package lineio

import "strings"

// Newline is the two character escape marker that Expand replaces with a line
// feed.
const Newline = `\n`

// Expand replaces every Newline marker in s with a literal line feed.
func Expand(s string) string {
	if !strings.Contains(s, Newline) {
		return s
	}
	return strings.ReplaceAll(s, Newline, "\n")
}
