// Package report assembles the result screen: per-rule score glyphs, the
// texts chosen by the scorer and the glossary entries those texts link to.
package report

import (
	"fmt"

	"cdr-tool/internal/domain"
	"cdr-tool/internal/engine"
	"cdr-tool/internal/glossary"
)

// Shade is the fill of a rule's score glyph.
type Shade string

const (
	ShadeNone  Shade = "none"
	ShadeLight Shade = "light"
	ShadeDark  Shade = "dark"
	ShadeBlack Shade = "black"
)

// Glyph describes how a rule's score is drawn: the category symbol with a
// dashed outline when skipped, otherwise solid and filled by score.
type Glyph struct {
	Symbol string `json:"symbol"`
	Dashed bool   `json:"dashed"`
	Shade  Shade  `json:"shade"`
}

// RuleReport is the result screen entry of one rule.
type RuleReport struct {
	RuleID     string            `json:"ruleId"`
	CategoryID string            `json:"categoryId"`
	Title      string            `json:"title"`
	Skipped    bool              `json:"skipped"`
	Score      int               `json:"score"`
	MaxScore   int               `json:"maxScore"`
	Glyph      Glyph             `json:"glyph"`
	Fragments  []engine.Fragment `json:"fragments"`
	// Terms are the distinct glossary entries linked from Fragments, in
	// order of first appearance.
	Terms []domain.GlossaryEntry `json:"terms,omitempty"`
}

// Builder turns answer records into reports for one content edition.
type Builder struct {
	content  *domain.Content
	scorer   engine.Scorer
	resolver *glossary.Resolver
}

func NewBuilder(content *domain.Content, scorer engine.Scorer, strictTerms bool) *Builder {
	return &Builder{
		content:  content,
		scorer:   scorer,
		resolver: glossary.NewResolver(content, strictTerms),
	}
}

// Build reports every rule present in the record, in definition order.
// Rules without a result are left out.
func (b *Builder) Build(record domain.AnswerRecord) ([]RuleReport, error) {
	var out []RuleReport
	for _, rule := range b.content.Rules() {
		result, ok := record[rule.ID]
		if !ok {
			continue
		}
		rep, err := b.Rule(rule.ID, result)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

// Rule reports a single rule result.
func (b *Builder) Rule(ruleID string, result domain.RuleResult) (RuleReport, error) {
	rule, ok := b.content.Rule(ruleID)
	if !ok {
		return RuleReport{}, fmt.Errorf("%w: %q", domain.ErrUnknownRule, ruleID)
	}
	if err := matchQuestions(rule, result); err != nil {
		return RuleReport{}, err
	}
	cat, _ := b.content.Category(rule.CategoryID)

	rep := RuleReport{
		RuleID:     rule.ID,
		CategoryID: rule.CategoryID,
		Title:      rule.Title,
		Skipped:    result.Skipped(),
		MaxScore:   rule.MaxScore(),
		Fragments:  b.scorer.RenderResult(rule, result),
	}
	if !result.Skipped() {
		rep.Score = result.Score()
	}
	rep.Glyph = GlyphFor(cat.Symbol, result, rule.MaxScore())

	seen := make(map[string]bool)
	for _, f := range rep.Fragments {
		links, err := b.resolver.Links(f.Text)
		if err != nil {
			return RuleReport{}, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		for _, l := range links {
			if !seen[l.Entry.Key] {
				seen[l.Entry.Key] = true
				rep.Terms = append(rep.Terms, l.Entry)
			}
		}
	}
	return rep, nil
}

// matchQuestions rejects answered results recorded against a different
// question set, e.g. after an edition was republished.
func matchQuestions(rule domain.Rule, result domain.RuleResult) error {
	if result.Skipped() {
		return nil
	}
	answers := result.Answers()
	if len(answers) != len(rule.Questions) {
		return fmt.Errorf("%w: rule %s has %d answers for %d questions", domain.ErrRecordMismatch, rule.ID, len(answers), len(rule.Questions))
	}
	for _, q := range rule.Questions {
		if _, ok := answers[q.ID]; !ok {
			return fmt.Errorf("%w: rule %s has no answer for question %s", domain.ErrRecordMismatch, rule.ID, q.ID)
		}
	}
	return nil
}

// GlyphFor maps a result to its glyph. With three questions the shades are
// none, light, dark and black for scores 0 to 3.
func GlyphFor(symbol string, result domain.RuleResult, maxScore int) Glyph {
	g := Glyph{Symbol: symbol, Shade: ShadeNone}
	if result.Skipped() {
		g.Dashed = true
		return g
	}
	score := result.Score()
	switch {
	case score <= 0 || maxScore <= 0:
	case score >= maxScore:
		g.Shade = ShadeBlack
	case 2*score < maxScore:
		g.Shade = ShadeLight
	default:
		g.Shade = ShadeDark
	}
	return g
}
