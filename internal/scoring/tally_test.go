package scoring

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{"empty", "", nil},
		{"no numbers", "crabs and shells", nil},
		{"number without name", "2, 3", nil},
		{"single", "2 crabs", []Token{{2, "crabs"}}},
		{"comma separated", "2 crabs, 3 shells, 1 lighthouse",
			[]Token{{2, "crabs"}, {3, "shells"}, {1, "lighthouse"}}},
		{"uppercase", "2 CRABS", []Token{{2, "crabs"}}},
		{"no separators", "2 crabs 3 shells", []Token{{2, "crabs"}, {3, "shells"}}},
		{"multi word", "1 shoal of fish; 2 fish", []Token{{1, "shoal of fish"}, {2, "fish"}}},
		{"newlines", "1 penguin colony\n3 penguins", []Token{{1, "penguin colony"}, {3, "penguins"}}},
		{"inner whitespace collapsed", "1   shoal   of\tfish", []Token{{1, "shoal of fish"}}},
		{"zero count kept", "0 shells", []Token{{0, "shells"}}},
		{"overflowing count dropped", "99999999999999999999999 shells, 1 crab", []Token{{1, "crab"}}},
		{"punctuation ends name", "2 crabs! 1 boat", []Token{{2, "crabs"}, {1, "boat"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		name     string
		expected CardType
		ok       bool
	}{
		{"crab", CardCrab, true},
		{"crabs", CardCrab, true},
		{"octopuses", CardOctopus, true},
		{"fish", CardFish, true},
		{"shoal", CardShoal, true},
		{"shoal of fish", CardShoal, true},
		{"colony", CardColony, true},
		{"penguin colony", CardColony, true},
		{"penguins", CardPenguin, true},
		{"lighthouse and", CardLighthouse, true},
		{"shoal of fish and", CardShoal, true},
		{"mermaid", "", false},
		{"blue", "", false},
		{"crabz", "", false},
		{"crabs blue", CardCrab, true},
		{"blue crabs", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ok := ResolveName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, ct)
		})
	}
}

func TestAliasesResolveToKnownTypes(t *testing.T) {
	known := make(map[CardType]bool, len(AllCardTypes))
	for _, ct := range AllCardTypes {
		known[ct] = true
	}

	covered := make(map[CardType]bool)
	for alias, ct := range aliases {
		assert.True(t, known[ct], "alias %q maps to unknown type %q", alias, ct)
		covered[ct] = true
	}

	for _, ct := range AllCardTypes {
		got, ok := LookupAlias(string(ct))
		require.True(t, ok, "canonical name %q is not an alias", ct)
		assert.Equal(t, ct, got)
		assert.True(t, covered[ct])
	}
}

func TestBuildTally(t *testing.T) {
	t.Run("accumulates repeated mentions", func(t *testing.T) {
		tally := BuildTally(Tokenize("2 crabs, 1 crab, 3 crabs"))
		assert.Equal(t, Tally{CardCrab: 6}, tally)
	})

	t.Run("drops unknown names", func(t *testing.T) {
		tally := BuildTally(Tokenize("2 crabs, 4 unicorns, 1 mermaid"))
		assert.Equal(t, Tally{CardCrab: 2}, tally)
	})

	t.Run("multi word alias is not mistaken for its last word", func(t *testing.T) {
		tally := BuildTally(Tokenize("1 shoal of fish, 2 fish"))
		assert.Equal(t, Tally{CardShoal: 1, CardFish: 2}, tally)
	})

	t.Run("zero counts leave no entry", func(t *testing.T) {
		tally := BuildTally(Tokenize("0 shells"))
		assert.Empty(t, tally)
		assert.False(t, tally.Has(CardShell))
	})

	t.Run("swimmers and sharks are tallied", func(t *testing.T) {
		tally := BuildTally(Tokenize("1 shark, 2 swimmers"))
		assert.Equal(t, Tally{CardShark: 1, CardSwimmer: 2}, tally)
	})
}

func TestBuildTally_HugeCountsSaturate(t *testing.T) {
	half := math.MaxInt/2 + 1

	tests := []struct {
		name string
		text string
		want Tally
	}{
		{"single huge count", fmt.Sprintf("%d shells", math.MaxInt), Tally{CardShell: math.MaxInt}},
		{"sum overflows", fmt.Sprintf("%d crabs, %d crabs", half, half), Tally{CardCrab: math.MaxInt}},
		{"saturated stays saturated", fmt.Sprintf("%d crabs, %d crabs, 5 crabs", math.MaxInt, half), Tally{CardCrab: math.MaxInt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := BuildTally(Tokenize(tt.text))
			assert.Equal(t, tt.want, tally)
			for ct := range tt.want {
				assert.True(t, tally.Has(ct))
			}
		})
	}
}

func TestSaturatingArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"add small", satAdd(2, 3), 5},
		{"add at limit", satAdd(math.MaxInt-1, 1), math.MaxInt},
		{"add past limit", satAdd(math.MaxInt, math.MaxInt), math.MaxInt},
		{"mul small", satMul(4, 3), 12},
		{"mul by zero", satMul(0, math.MaxInt), 0},
		{"mul zero right", satMul(math.MaxInt, 0), 0},
		{"mul at limit", satMul(math.MaxInt, 1), math.MaxInt},
		{"mul past limit", satMul(math.MaxInt/2+1, 2), math.MaxInt},
		{"mul huge", satMul(math.MaxInt, math.MaxInt), math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
