package scanner

import "strings"

// StripComments blanks out // and /* */ comments outside string literals.
// Comment bytes become spaces and newlines are kept, so offsets into the
// result match offsets into src.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	var quote byte
	escaped := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case lineComment:
			if c == '\n' {
				lineComment = false
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case blockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				blockComment = false
				b.WriteString("  ")
				i++
			} else if c == '\n' {
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case quote != 0:
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			lineComment = true
			b.WriteString("  ")
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			blockComment = true
			b.WriteString("  ")
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
