package driver

// SplitUnits cuts text into complete top-level units without parsing them. A
// unit is a balanced bracketed form or a bare atom ended by whitespace, a
// bracket or the end of text. rest is the trailing incomplete unit (an
// unclosed bracket or string), or "" when text ends cleanly.
//
// Brackets inside string literals are ignored. A closing bracket with no
// matching opener becomes a unit of its own so the parser can report it.
func SplitUnits(text string) (units []string, rest string) {
	start := -1
	depth := 0
	inString := false

	emit := func(end int) {
		units = append(units, text[start:end])
		start = -1
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			if depth == 0 && start >= 0 {
				emit(i)
			}
		case '(', '[':
			if depth == 0 {
				if start >= 0 {
					emit(i)
				}
				start = i
			}
			depth++
		case ')', ']':
			if depth == 0 {
				if start >= 0 {
					emit(i)
				}
				start = i
				emit(i + 1)
				continue
			}
			depth--
			if depth == 0 {
				emit(i + 1)
			}
		case '"':
			if start < 0 {
				start = i
			}
			inString = true
		default:
			if start < 0 {
				start = i
			}
		}
	}

	if start >= 0 {
		if depth == 0 && !inString {
			emit(len(text))
			return units, ""
		}
		return units, text[start:]
	}
	return units, ""
}
