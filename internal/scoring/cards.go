// Package scoring turns free-text Sea Salt & Paper card declarations into
// itemized scores and color bonus allocations. Every function is pure.
package scoring

// CardType is the canonical identifier a declared card name resolves to.
type CardType string

const (
	// Collector cards
	CardShell   CardType = "shell"
	CardOctopus CardType = "octopus"
	CardPenguin CardType = "penguin"
	CardSailor  CardType = "sailor"

	// Duo cards
	CardCrab CardType = "crab"
	CardBoat CardType = "boat"
	CardFish CardType = "fish"

	// Tallied but never scored on their own
	CardSwimmer CardType = "swimmer"
	CardShark   CardType = "shark"

	// Bonus (multiplier) cards
	CardLighthouse CardType = "lighthouse"
	CardShoal      CardType = "shoal"
	CardColony     CardType = "colony"
	CardCaptain    CardType = "captain"
)

// AllCardTypes lists every canonical card type.
var AllCardTypes = []CardType{
	CardShell, CardOctopus, CardPenguin, CardSailor,
	CardCrab, CardBoat, CardFish,
	CardSwimmer, CardShark,
	CardLighthouse, CardShoal, CardColony, CardCaptain,
}

// aliases maps lowercase input names to their canonical card type.
// It is built once and never mutated.
var aliases = map[string]CardType{
	"crab":  CardCrab,
	"crabs": CardCrab,

	"boat":  CardBoat,
	"boats": CardBoat,

	"fish":   CardFish,
	"fishes": CardFish,

	"swimmer":  CardSwimmer,
	"swimmers": CardSwimmer,

	"shark":  CardShark,
	"sharks": CardShark,

	"shell":  CardShell,
	"shells": CardShell,

	"octopus":   CardOctopus,
	"octopuses": CardOctopus,
	"octopi":    CardOctopus,

	"penguin":  CardPenguin,
	"penguins": CardPenguin,

	"sailor":  CardSailor,
	"sailors": CardSailor,

	"lighthouse":  CardLighthouse,
	"lighthouses": CardLighthouse,

	"shoal":          CardShoal,
	"shoals":         CardShoal,
	"shoal of fish":  CardShoal,
	"shoals of fish": CardShoal,

	"colony":           CardColony,
	"colonies":         CardColony,
	"penguin colony":   CardColony,
	"penguin colonies": CardColony,

	"captain":  CardCaptain,
	"captains": CardCaptain,
}

// maxAliasWords is the word count of the longest alias.
const maxAliasWords = 3

// LookupAlias resolves an already lowercased, trimmed alias.
func LookupAlias(alias string) (CardType, bool) {
	ct, ok := aliases[alias]
	return ct, ok
}

// Label returns the plural display name used in score breakdowns.
func (c CardType) Label() string {
	switch c {
	case CardShell:
		return "Shells"
	case CardOctopus:
		return "Octopuses"
	case CardPenguin:
		return "Penguins"
	case CardSailor:
		return "Sailors"
	case CardCrab:
		return "Crabs"
	case CardBoat:
		return "Boats"
	case CardFish:
		return "Fish"
	case CardSwimmer:
		return "Swimmers"
	case CardShark:
		return "Sharks"
	case CardLighthouse:
		return "Lighthouse"
	case CardShoal:
		return "Shoal"
	case CardColony:
		return "Colony"
	case CardCaptain:
		return "Captain"
	default:
		return string(c)
	}
}
