package core

import (
	"regexp"
	"strings"
)

// columnTypeRe splits MySQL's canonical column type rendering into the
// base token, the parenthesized argument, and an unsigned marker.
var columnTypeRe = regexp.MustCompile(`^([a-z]+)(?:\(([^)]*)\))?(\s+unsigned)?`)

// ParseColumnType converts a raw column type string as MySQL renders it
// ("int(10) unsigned", "enum('a','b')") into the canonical IR fields:
// upper-case token, length, enum/set values, and the unsigned flag.
func ParseColumnType(raw string) (typ, length string, values []string, unsigned bool) {
	m := columnTypeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return strings.ToUpper(strings.TrimSpace(raw)), "", nil, false
	}

	typ = strings.ToUpper(m[1])
	unsigned = m[3] != ""

	switch typ {
	case "ENUM", "SET":
		values = parseEnumValues(m[2])
	default:
		length = m[2]
	}
	return typ, length, values, unsigned
}

// parseEnumValues splits the 'a','b','c' member list of an enum/set
// column type, honouring doubled quotes inside members.
func parseEnumValues(arg string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false

	for i := 0; i < len(arg); i++ {
		ch := arg[i]
		switch {
		case ch == '\'' && !inQuote:
			inQuote = true
		case ch == '\'' && inQuote:
			if i+1 < len(arg) && arg[i+1] == '\'' {
				cur.WriteByte('\'')
				i++
				continue
			}
			inQuote = false
			out = append(out, cur.String())
			cur.Reset()
		case inQuote:
			cur.WriteByte(ch)
		}
	}
	return out
}
