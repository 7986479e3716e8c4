package compiler

import (
	"strconv"
	"strings"
	"unicode"
)

// reservedWords are identifiers that are illegal as declaration names in the
// output language. Sanitized candidates colliding with one fall back to
// numeric suffixing.
var reservedWords = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {},
	"continue": {}, "debugger": {}, "default": {}, "delete": {}, "do": {},
	"else": {}, "enum": {}, "export": {}, "extends": {}, "false": {},
	"finally": {}, "for": {}, "function": {}, "if": {}, "import": {},
	"in": {}, "instanceof": {}, "new": {}, "null": {}, "return": {},
	"super": {}, "switch": {}, "this": {}, "throw": {}, "true": {},
	"try": {}, "typeof": {}, "var": {}, "void": {}, "while": {},
	"with": {}, "yield": {}, "let": {}, "static": {}, "await": {},
}

// allocator produces stable, unique, language-safe identifiers for one
// compile pass. It always succeeds by construction: the numeric suffix space
// is unbounded, so exhaustion is impossible.
type allocator struct {
	keep  bool
	taken map[string]struct{}
}

func newAllocator(keepNames bool) *allocator {
	return &allocator{keep: keepNames, taken: make(map[string]struct{})}
}

// allocate returns a collision-free identifier for candidate. When the
// allocator keeps original names and the sanitized candidate is non-empty,
// unreserved and unused, it is returned verbatim (case preserved). Otherwise
// the identifier is base plus a numeric disambiguator starting at 1, skipping
// values already registered.
func (a *allocator) allocate(candidate, base string) string {
	if a.keep {
		if s := sanitize(candidate); s != "" {
			if _, reserved := reservedWords[s]; !reserved {
				if _, used := a.taken[s]; !used {
					a.taken[s] = struct{}{}
					return s
				}
			}
		}
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if _, used := a.taken[name]; !used {
			a.taken[name] = struct{}{}
			return name
		}
	}
}

// sanitize strips characters illegal in an identifier, keeping letters,
// digits, underscore and dollar. A leading digit is prefixed with an
// underscore. Returns "" when nothing survives.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return ""
	}
	if r := rune(s[0]); r >= '0' && r <= '9' {
		s = "_" + s
	}
	return s
}
