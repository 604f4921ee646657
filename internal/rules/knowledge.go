// Package rules answers rules questions by retrieving the most relevant
// sections of a game's rules text.
package rules

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/gamemaster/gamemaster-server-go/internal/history"
	"go.uber.org/zap"
)

// ErrEmptyQuestion is returned when Answer receives a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// NoMatchAnswer is returned when no section of the rules matches a question.
const NoMatchAnswer = "I couldn't find anything about that in the rules. Try asking with the card or phase name, e.g. \"how do mermaids work?\""

// headingWeight is how much more a term counts when it appears in a heading.
const headingWeight = 2

// maxTermHits caps how much a single repeated term can add to a section's score.
const maxTermHits = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "how": true, "what": true,
	"does": true, "can": true, "you": true, "your": true, "with": true, "that": true,
	"this": true, "when": true, "who": true, "why": true, "get": true, "has": true,
	"have": true, "per": true, "from": true, "any": true, "all": true, "one": true,
	"its": true, "into": true, "out": true, "much": true, "many": true, "there": true,
	"which": true, "will": true, "work": true, "about": true, "tell": true, "happen": true,
	"happens": true, "card": true, "cards": true, "game": true, "rule": true, "rules": true,
}

// Section is one headed block of the rules text.
type Section struct {
	Heading string
	Body    string

	terms        map[string]int
	headingTerms map[string]bool
}

// KnowledgeBase holds a rules text split into searchable sections.
type KnowledgeBase struct {
	sections []Section
	topK     int
	logger   *zap.Logger
}

// NewKnowledgeBase splits text at markdown headings. Sub-headings are
// prefixed with their parent heading. Answer returns at most topK sections.
func NewKnowledgeBase(text string, topK int, logger *zap.Logger) *KnowledgeBase {
	if topK <= 0 {
		topK = 1
	}

	kb := &KnowledgeBase{
		sections: splitSections(text),
		topK:     topK,
		logger:   logger,
	}

	logger.Info("rules knowledge base loaded",
		zap.Int("sections", len(kb.sections)),
		zap.Int("top_k", topK),
	)

	return kb
}

// Sections returns the parsed sections in document order.
func (kb *KnowledgeBase) Sections() []Section {
	return kb.sections
}

// Search returns up to k sections ranked by how many query terms they share.
// Sections sharing no term are never returned; ties keep document order.
func (kb *KnowledgeBase) Search(query string, k int) []Section {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 || k <= 0 {
		return nil
	}

	type scored struct {
		index int
		score int
	}

	var hits []scored
	for i, section := range kb.sections {
		score := 0
		for term := range queryTerms {
			score += min(section.terms[term], maxTermHits)
			if section.headingTerms[term] {
				score += headingWeight
			}
		}
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]Section, len(hits))
	for i, h := range hits {
		out[i] = kb.sections[h.index]
	}
	return out
}

// Answer returns the rules sections relevant to question. If the question
// alone matches nothing, the previous human message is folded in so short
// follow-ups ("and for boats?") still resolve.
func (kb *KnowledgeBase) Answer(ctx context.Context, question string, hist []history.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	hits := kb.Search(question, kb.topK)
	if len(hits) == 0 {
		if prev, ok := history.LastHuman(hist); ok {
			hits = kb.Search(question+" "+prev.Content, kb.topK)
		}
	}

	kb.logger.Debug("rules search",
		zap.String("question", question),
		zap.Int("hits", len(hits)),
	)

	if len(hits) == 0 {
		return NoMatchAnswer, nil
	}

	var b strings.Builder
	b.WriteString("Here is what the rules say:")
	for _, section := range hits {
		b.WriteString("\n\n**")
		b.WriteString(section.Heading)
		b.WriteString("**\n")
		b.WriteString(section.Body)
	}
	return b.String(), nil
}

func splitSections(text string) []Section {
	var (
		sections []Section
		parents  = map[int]string{}
		heading  string
		body     []string
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if heading == "" || content == "" {
			return
		}
		headingTerms := make(map[string]bool)
		for term := range tokenize(heading) {
			headingTerms[term] = true
		}
		sections = append(sections, Section{
			Heading:      heading,
			Body:         content,
			terms:        tokenize(content),
			headingTerms: headingTerms,
		})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			body = append(body, line)
			continue
		}

		flush()

		level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		title := strings.TrimSpace(trimmed[level:])
		parents[level] = title
		for l := range parents {
			if l > level {
				delete(parents, l)
			}
		}

		heading = title
		if parent, ok := parents[level-1]; ok && level > 2 {
			heading = parent + ": " + title
		}
	}
	flush()

	return sections
}

// tokenize lowercases text, drops stop words and short words, and folds a
// trailing plural "s" so "boats" matches "boat".
func tokenize(text string) map[string]int {
	terms := make(map[string]int)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		terms[f]++
	}
	return terms
}
