package sexp

// Tokenize scans S-expression text into a Node tree. It never fails:
//   - an unmatched ')' is ignored once only the root remains open
//   - lists still open at end of input are closed as-is
//   - an unterminated quoted atom runs to end of input
//
// Atoms keep their raw text: numbers are not coerced and backslash
// sequences inside quoted atoms are kept verbatim (only the delimiting
// quotes are stripped).
//
// When the input reduces to exactly one top-level list (the normal case
// for KiCad files), that list is returned directly; otherwise the result
// is a synthetic list holding all top-level tokens.
func Tokenize(text string) Node {
	stack := [][]Node{nil}
	i, n := 0, len(text)

	for i < n {
		c := text[i]
		switch {
		case c == '(':
			stack = append(stack, nil)
			i++
		case c == ')':
			if len(stack) > 1 {
				closed := List(stack[len(stack)-1]...)
				stack = stack[:len(stack)-1]
				stack[len(stack)-1] = append(stack[len(stack)-1], closed)
			}
			i++
		case c == '"':
			j := i + 1
			for j < n && text[j] != '"' {
				if text[j] == '\\' {
					j++
				}
				j++
			}
			end := j
			if end > n {
				end = n
			}
			stack[len(stack)-1] = append(stack[len(stack)-1], Atom(text[i+1:end]))
			i = j + 1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			j := i
			for j < n && !isDelimiter(text[j]) {
				j++
			}
			stack[len(stack)-1] = append(stack[len(stack)-1], Atom(text[i:j]))
			i = j
		}
	}

	// Close any lists left open by truncated input.
	for len(stack) > 1 {
		closed := List(stack[len(stack)-1]...)
		stack = stack[:len(stack)-1]
		stack[len(stack)-1] = append(stack[len(stack)-1], closed)
	}

	top := stack[0]
	if len(top) == 1 && top[0].IsList() {
		return top[0]
	}
	return List(top...)
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '"', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
