package scoring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// UnlockKeyword marks a token as the unlock (mermaid) count on the bonus path.
const UnlockKeyword = "mermaid"

// BonusOutcome distinguishes the ways a color bonus request can end.
type BonusOutcome int

const (
	// BonusOutcomeScored means at least one color group was scored.
	BonusOutcomeScored BonusOutcome = iota
	// BonusOutcomeNoTokens means no "<count> <name>" pair was found.
	BonusOutcomeNoTokens
	// BonusOutcomeNeedUnlock means no unlock token was declared.
	BonusOutcomeNeedUnlock
	// BonusOutcomeNoColors means unlock tokens were declared but no colors.
	BonusOutcomeNoColors
)

func (o BonusOutcome) String() string {
	switch o {
	case BonusOutcomeScored:
		return "SCORED"
	case BonusOutcomeNoTokens:
		return "NO_TOKENS"
	case BonusOutcomeNeedUnlock:
		return "NEED_UNLOCK"
	case BonusOutcomeNoColors:
		return "NO_COLORS"
	default:
		return "UNKNOWN"
	}
}

const (
	// ColorBonusUsageMessage is returned when no color counts could be parsed.
	ColorBonusUsageMessage = "Please list your cards by color count. \nExample: `/color_bonus 4 blue, 3 pink, 1 mermaid`"

	// NeedUnlockMessage is returned when no mermaid was declared.
	NeedUnlockMessage = "You need at least **1 Mermaid** to score a color bonus."
)

// ColorBonusInput is the parsed form of a color bonus declaration. Every color
// token is its own candidate group, even if the same color is named twice.
type ColorBonusInput struct {
	UnlockCount int
	ColorCounts []int
}

// ColorBonusResult is the outcome of a color bonus allocation.
type ColorBonusResult struct {
	Outcome        BonusOutcome
	UnlockCount    int
	Total          int
	SelectedGroups []int
}

// ParseColorBonus splits tokens into the unlock count and color groups.
// A repeated unlock token replaces the earlier count rather than adding to it.
// ok is false when the text holds no tokens at all.
func ParseColorBonus(text string) (input ColorBonusInput, ok bool) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return ColorBonusInput{}, false
	}

	for _, tok := range tokens {
		if strings.Contains(tok.Name, UnlockKeyword) {
			input.UnlockCount = tok.Count
			continue
		}
		input.ColorCounts = append(input.ColorCounts, tok.Count)
	}

	return input, true
}

// AllocateColorBonus scores the largest color groups, one per unlock token.
// Taking the k largest values maximizes the sum over all subsets of size k.
func AllocateColorBonus(input ColorBonusInput) ColorBonusResult {
	result := ColorBonusResult{UnlockCount: input.UnlockCount}

	if input.UnlockCount <= 0 {
		result.Outcome = BonusOutcomeNeedUnlock
		return result
	}

	counts := append([]int(nil), input.ColorCounts...)
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	groups := min(input.UnlockCount, len(counts))
	if groups == 0 {
		result.Outcome = BonusOutcomeNoColors
		return result
	}

	result.SelectedGroups = counts[:groups]
	for _, c := range result.SelectedGroups {
		result.Total = satAdd(result.Total, c)
	}
	result.Outcome = BonusOutcomeScored

	return result
}

// EvaluateColorBonus parses a color bonus declaration and allocates it.
func EvaluateColorBonus(text string) ColorBonusResult {
	input, ok := ParseColorBonus(text)
	if !ok {
		return ColorBonusResult{Outcome: BonusOutcomeNoTokens}
	}
	return AllocateColorBonus(input)
}

// ComputeColorBonus returns the display text for a color bonus declaration.
func ComputeColorBonus(text string) string {
	return EvaluateColorBonus(text).Text()
}

// Text renders the result for display.
func (r ColorBonusResult) Text() string {
	switch r.Outcome {
	case BonusOutcomeNoTokens:
		return ColorBonusUsageMessage
	case BonusOutcomeNeedUnlock:
		return NeedUnlockMessage
	case BonusOutcomeNoColors:
		return fmt.Sprintf("You have **%d Mermaid(s)** but no colors listed. Your bonus is 0.", r.UnlockCount)
	}

	parts := make([]string, len(r.SelectedGroups))
	for i, c := range r.SelectedGroups {
		parts[i] = strconv.Itoa(c)
	}

	return fmt.Sprintf(
		"With **%d Mermaid(s)**, you score your top **%d** color group(s).\nCalculation: %s\n\n**Total Color Bonus: %d**",
		r.UnlockCount, len(r.SelectedGroups), strings.Join(parts, " + "), r.Total,
	)
}
