package filter

import "strings"

// Alias is a short name accepted in --query expressions.
type Alias struct {
	Alias     string
	Canonical string
}

var fieldAliases = []Alias{
	{"it", "items"},
	{"st", "status"},
	{"cat", "category"},
	{"px", "price"},
	{"av", "availability"},
	{"veg", "isVegetarian"},
	{"dm", "isDietMeal"},
	{"act", "isActive"},
	{"ttl", "offerTitle"},
	{"dv", "discountValue"},
	{"ppw", "pricePerWeek"},
	{"rt", "rating"},
	{"cm", "comment"},
	{"on", "orderNumber"},
	{"amt", "totalAmount"},
	{"cu", "customerName"},
}

var funcAliases = []Alias{
	{"sl", "select"},
	{"ts", "test"},
}

var (
	fieldIndex = indexAliases(fieldAliases)
	funcIndex  = indexAliases(funcAliases)
)

func indexAliases(entries []Alias) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Alias] = e.Canonical
	}
	return m
}

// Aliases returns the field aliases followed by the function aliases.
func Aliases() []Alias {
	out := make([]Alias, 0, len(fieldAliases)+len(funcAliases))
	out = append(out, fieldAliases...)
	return append(out, funcAliases...)
}

// Canonical returns the key a field alias stands for.
func Canonical(alias string) (string, bool) {
	c, ok := fieldIndex[alias]
	return c, ok
}

// expandAliases rewrites `.alias` field accesses and `alias(` calls. String
// literals and comments are left untouched, so `.["st"]` still reads the
// literal key.
func expandAliases(expr string) string {
	var b strings.Builder
	b.Grow(len(expr))

	inString, inComment := false, false
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
			b.WriteByte(c)
			i++
			continue
		case inString:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(expr) {
				b.WriteByte(expr[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
			continue
		case c == '"':
			inString = true
			b.WriteByte(c)
			i++
			continue
		case c == '#':
			inComment = true
			b.WriteByte(c)
			i++
			continue
		}

		if !isIdentStart(c) {
			b.WriteByte(c)
			i++
			continue
		}

		j := i
		for j < len(expr) && isIdentPart(expr[j]) {
			j++
		}
		word := expr[i:j]
		var prev byte
		if i > 0 {
			prev = expr[i-1]
		}

		switch {
		case prev == '.':
			if c, ok := fieldIndex[word]; ok {
				word = c
			}
		case prev != '$' && !isIdentPart(prev) && j < len(expr) && expr[j] == '(':
			if c, ok := funcIndex[word]; ok {
				word = c
			}
		}
		b.WriteString(word)
		i = j
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
