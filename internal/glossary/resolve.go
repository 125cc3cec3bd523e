package glossary

import (
	"errors"
	"fmt"
	"log"

	"cdr-tool/internal/domain"
)

// Link is a term reference together with the glossary entry it points to.
type Link struct {
	Ref
	Entry domain.GlossaryEntry
}

// Resolver looks up term references of one content edition.
//
// In strict mode an unknown term fails with domain.ErrUnknownTerm. Otherwise
// the reference is logged and left as plain text, which is the render-time
// policy.
type Resolver struct {
	content *domain.Content
	strict  bool
	logf    func(format string, args ...any)
}

func NewResolver(content *domain.Content, strict bool) *Resolver {
	return &Resolver{content: content, strict: strict, logf: log.Printf}
}

// Resolve looks up a single term key.
func (r *Resolver) Resolve(key string) (domain.GlossaryEntry, error) {
	return r.content.Term(key)
}

// Links resolves every term reference in rich text, in document order.
func (r *Resolver) Links(richText string) ([]Link, error) {
	refs := Refs(richText)
	links := make([]Link, 0, len(refs))
	for _, ref := range refs {
		entry, err := r.content.Term(ref.Key)
		if err != nil {
			if r.strict || !errors.Is(err, domain.ErrUnknownTerm) {
				return nil, err
			}
			r.logf("glossary: %s: rendering %q as plain text: %v", r.content.Edition(), ref.Label, err)
			continue
		}
		links = append(links, Link{Ref: ref, Entry: entry})
	}
	return links, nil
}

// Check returns every conformance violation of a content edition: term
// references that do not resolve (in rule, question and glossary texts) and
// rule texts without exactly one title marker.
func Check(c *domain.Content) []error {
	var errs []error
	refsResolve := func(location, text string) {
		for _, key := range ExtractTermRefs(text) {
			if _, err := c.Term(key); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", location, err))
			}
		}
	}

	for _, rule := range c.Rules() {
		loc := "rule " + rule.ID
		if n := CountTitleMarkers(rule.Text); n != 1 {
			errs = append(errs, fmt.Errorf("%s text: %w: %d title markers, want 1", loc, domain.ErrMalformedContent, n))
		}
		refsResolve(loc+" text", rule.Text)
		refsResolve(loc+" score_zero_text", rule.ScoreZeroText)
		refsResolve(loc+" skipped_text", rule.SkippedText)
		refsResolve(loc+" score_improvement_text", rule.ScoreImprovementText)
		for _, q := range rule.Questions {
			qloc := loc + " question " + q.ID
			refsResolve(qloc+" text", q.Text)
			refsResolve(qloc+" text_scoring", q.TextScoring)
		}
	}
	for _, entry := range c.Glossary() {
		refsResolve(fmt.Sprintf("glossary %q text", entry.Key), entry.Text)
	}
	return errs
}

// Validate joins the violations reported by Check; nil means the edition conforms.
func Validate(c *domain.Content) error {
	return errors.Join(Check(c)...)
}
