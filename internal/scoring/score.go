package scoring

import (
	"fmt"
	"strings"
)

// ScoreOutcome distinguishes the ways a score request can end.
type ScoreOutcome int

const (
	// ScoreOutcomeScored means at least one breakdown line was produced.
	ScoreOutcomeScored ScoreOutcome = iota
	// ScoreOutcomeNoCards means no "<count> <name>" pair was found at all.
	ScoreOutcomeNoCards
	// ScoreOutcomeNothingScorable means cards were declared but none scored.
	ScoreOutcomeNothingScorable
)

func (o ScoreOutcome) String() string {
	switch o {
	case ScoreOutcomeScored:
		return "SCORED"
	case ScoreOutcomeNoCards:
		return "NO_CARDS"
	case ScoreOutcomeNothingScorable:
		return "NOTHING_SCORABLE"
	default:
		return "UNKNOWN"
	}
}

const (
	// ScoreUsageMessage is returned when no cards could be parsed.
	ScoreUsageMessage = "Please list your cards in the format: `/score 2 crabs, 3 shells, 1 lighthouse`"

	// NothingScorableMessage is returned when the declared cards score nothing.
	NothingScorableMessage = "I couldn't find any scorable cards in your message. Try again! " +
		"If you were trying to score a mermaid card, do it under /color_bonus. " +
		"A Mermaid only unlocks your right to claim a color bonus; " +
		"the bonus points come from your colored cards, not from the Mermaid itself."
)

// collectorTables holds the points for 0..K cards of each collector type, in
// scoring order. Counts above K score as K.
var collectorTables = []struct {
	card   CardType
	points []int
}{
	{CardShell, []int{0, 0, 2, 4, 6, 8, 10}},
	{CardOctopus, []int{0, 0, 3, 6, 9, 12}},
	{CardPenguin, []int{0, 1, 3, 5}},
	{CardSailor, []int{0, 0, 5}},
}

// duoCards score one point per pair, in scoring order.
var duoCards = []CardType{CardCrab, CardBoat, CardFish}

// multipliers score bonus count x target count x factor when both are held.
// Products and totals saturate at math.MaxInt.
var multipliers = []struct {
	bonus  CardType
	target CardType
	factor int
}{
	{CardLighthouse, CardBoat, 1},
	{CardShoal, CardFish, 1},
	{CardColony, CardPenguin, 2},
	{CardCaptain, CardSailor, 3},
}

// BreakdownEntry is one itemized line of a score.
type BreakdownEntry struct {
	Label  string
	Points int
}

// ScoreResult is the itemized score of a tally.
type ScoreResult struct {
	Outcome   ScoreOutcome
	Total     int
	Breakdown []BreakdownEntry
	Tally     Tally
}

func (r *ScoreResult) add(label string, points int) {
	r.Breakdown = append(r.Breakdown, BreakdownEntry{Label: label, Points: points})
	r.Total = satAdd(r.Total, points)
}

// CollectorPoints returns the points for n cards of collector type ct and the
// count actually scored after capping. ok is false if ct is not a collector.
func CollectorPoints(ct CardType, n int) (points, counted int, ok bool) {
	for _, c := range collectorTables {
		if c.card != ct {
			continue
		}
		counted = max(0, min(n, len(c.points)-1))
		return c.points[counted], counted, true
	}
	return 0, 0, false
}

// CollectorCap returns the largest count with an explicit table entry for ct.
func CollectorCap(ct CardType) int {
	for _, c := range collectorTables {
		if c.card == ct {
			return len(c.points) - 1
		}
	}
	return 0
}

// DuoPoints returns the points for n duo cards of one type.
func DuoPoints(n int) int {
	if n <= 0 {
		return 0
	}
	return n / 2
}

// Calculate scores a tally: collectors first, then duo pairs, then multipliers.
func Calculate(tally Tally) ScoreResult {
	if tally == nil {
		tally = make(Tally)
	}
	result := ScoreResult{Tally: tally}

	for _, c := range collectorTables {
		if !tally.Has(c.card) {
			continue
		}
		points, counted, _ := CollectorPoints(c.card, tally.Count(c.card))
		result.add(fmt.Sprintf("%d %s", counted, c.card.Label()), points)
	}

	for _, card := range duoCards {
		pairs := DuoPoints(tally.Count(card))
		if pairs > 0 {
			result.add(fmt.Sprintf("%d pair(s) of %s", pairs, card.Label()), pairs)
		}
	}

	for _, m := range multipliers {
		if !tally.Has(m.bonus) || !tally.Has(m.target) {
			continue
		}
		points := satMul(satMul(tally.Count(m.bonus), tally.Count(m.target)), m.factor)
		result.add(fmt.Sprintf("%s + %s", m.bonus.Label(), m.target.Label()), points)
	}

	if len(result.Breakdown) == 0 {
		result.Outcome = ScoreOutcomeNothingScorable
	}

	return result
}

// EvaluateScore parses a free-text card declaration and scores it.
func EvaluateScore(text string) ScoreResult {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return ScoreResult{Outcome: ScoreOutcomeNoCards, Tally: make(Tally)}
	}
	return Calculate(BuildTally(tokens))
}

// ComputeScore returns the display text for a card declaration together with
// the tally it was computed from.
func ComputeScore(text string) (string, Tally) {
	result := EvaluateScore(text)
	return result.Text(), result.Tally
}

// Text renders the result for display. Bold markers are plain "**"; escaping
// for a particular chat surface is left to the caller.
func (r ScoreResult) Text() string {
	switch r.Outcome {
	case ScoreOutcomeNoCards:
		return ScoreUsageMessage
	case ScoreOutcomeNothingScorable:
		return NothingScorableMessage
	}

	var b strings.Builder
	b.WriteString("Here's your score breakdown:\n")
	for i, entry := range r.Breakdown {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s: %d pts", entry.Label, entry.Points)
	}
	fmt.Fprintf(&b, "\n\n**Total Score: %d**", r.Total)
	return b.String()
}
