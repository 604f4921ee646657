package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// segmentSeparator splits a declaration into independently parsed segments.
	segmentSeparator = regexp.MustCompile(`[,;\n]+`)

	// tokenPattern matches "<count> <name>" where name is a run of letters and spaces.
	tokenPattern = regexp.MustCompile(`(\d+)\s+([a-z\s]+)`)
)

// Token is one "<count> <name>" pair extracted from free text.
type Token struct {
	Count int
	Name  string
}

// Tokenize extracts count/name pairs from text.
// The text is lowercased and split on commas, semicolons and newlines before the
// count/name pattern is applied, so a multi-word alias never swallows the next
// declaration. Counts that do not fit in an int are skipped.
func Tokenize(text string) []Token {
	var tokens []Token

	for _, segment := range segmentSeparator.Split(strings.ToLower(text), -1) {
		for _, match := range tokenPattern.FindAllStringSubmatch(segment, -1) {
			count, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			name := strings.Join(strings.Fields(match[2]), " ")
			if name == "" {
				continue
			}
			tokens = append(tokens, Token{Count: count, Name: name})
		}
	}

	return tokens
}

// Tally counts declared cards by canonical type. Only positive counts are stored.
type Tally map[CardType]int

// Add accumulates n cards of type ct. Non-positive n is ignored and the
// count saturates at math.MaxInt.
func (t Tally) Add(ct CardType, n int) {
	if n <= 0 {
		return
	}
	t[ct] = satAdd(t[ct], n)
}

// Count returns how many cards of type ct were declared.
func (t Tally) Count(ct CardType) int {
	return t[ct]
}

// Has reports whether at least one card of type ct was declared.
func (t Tally) Has(ct CardType) bool {
	return t[ct] > 0
}

// BuildTally resolves token names to card types and sums their counts.
// Names that resolve to nothing are dropped.
func BuildTally(tokens []Token) Tally {
	tally := make(Tally)
	for _, tok := range tokens {
		if ct, ok := ResolveName(tok.Name); ok {
			tally.Add(ct, tok.Count)
		}
	}
	return tally
}

// ResolveName maps a normalized card name to its canonical type. The whole
// name is tried first, then the longest leading run of words that is a known
// alias, so "lighthouse and" resolves to lighthouse while "shoal of fish"
// stays a shoal rather than fish.
func ResolveName(name string) (CardType, bool) {
	if ct, ok := LookupAlias(name); ok {
		return ct, true
	}

	words := strings.Fields(name)
	for n := min(len(words), maxAliasWords); n > 0; n-- {
		if ct, ok := LookupAlias(strings.Join(words[:n], " ")); ok {
			return ct, true
		}
	}

	return "", false
}
