package domain

import "fmt"

// Question is a yes/no question inside a rule.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	// TextScoring replaces Text on the result screen when the question was answered yes.
	TextScoring string `json:"textScoring,omitempty"`
	// DependsOn lists earlier sibling questions that must all be answered yes
	// before this question is asked.
	DependsOn []string `json:"dependsOn,omitempty"`
}

// Rule is one assessable criterion with an ordered list of questions.
type Rule struct {
	ID                   string     `json:"id"`
	CategoryID           string     `json:"categoryId"`
	Title                string     `json:"title"`
	Text                 string     `json:"text"`
	Questions            []Question `json:"questions"`
	ScoreZeroText        string     `json:"scoreZeroText,omitempty"`
	SkippedText          string     `json:"skippedText,omitempty"`
	ScoreImprovementText string     `json:"scoreImprovementText,omitempty"`
}

// MaxScore is the score of a rule with every question answered yes.
func (r Rule) MaxScore() int {
	return len(r.Questions)
}

// Question looks up a question by ID.
func (r Rule) Question(id string) (Question, bool) {
	for _, q := range r.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Category groups rules and carries the glyph shown in front of rule titles.
type Category struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Symbol string `json:"symbol,omitempty"`
	Rules  []Rule `json:"rules"`
}

// GlossaryEntry is a term that rich text can link to.
type GlossaryEntry struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
	// Category and Rule record where the term is first used. Informational only.
	Category string `json:"category,omitempty"`
	Rule     string `json:"rule,omitempty"`
}

// Content is a loaded questionnaire edition. It is never mutated after
// NewContent returns and may be shared by any number of sessions: inputs are
// copied on the way in and accessors hand out copies.
type Content struct {
	edition    string
	categories []Category
	glossary   []GlossaryEntry

	categoryIndex map[string]int
	ruleIndex     map[string]ruleRef
	termIndex     map[string]int
}

type ruleRef struct {
	category int
	rule     int
}

// NewContent indexes categories and glossary entries. Structural validation
// is the loader's job; NewContent only rejects duplicate identifiers because
// the indexes could not represent them.
func NewContent(edition string, categories []Category, glossary []GlossaryEntry) (*Content, error) {
	c := &Content{
		edition:       edition,
		categories:    cloneCategories(categories),
		glossary:      append([]GlossaryEntry(nil), glossary...),
		categoryIndex: make(map[string]int, len(categories)),
		ruleIndex:     make(map[string]ruleRef),
		termIndex:     make(map[string]int, len(glossary)),
	}
	for ci, cat := range c.categories {
		if _, dup := c.categoryIndex[cat.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrMalformedContent, cat.ID)
		}
		c.categoryIndex[cat.ID] = ci
		for ri, rule := range cat.Rules {
			if _, dup := c.ruleIndex[rule.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate rule %q", ErrMalformedContent, rule.ID)
			}
			c.ruleIndex[rule.ID] = ruleRef{category: ci, rule: ri}
		}
	}
	for i, entry := range c.glossary {
		if _, dup := c.termIndex[entry.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate glossary term %q", ErrMalformedContent, entry.Key)
		}
		c.termIndex[entry.Key] = i
	}
	return c, nil
}

// Edition returns the key the content was loaded under.
func (c *Content) Edition() string {
	return c.edition
}

// Categories returns the categories in definition order.
func (c *Content) Categories() []Category {
	return cloneCategories(c.categories)
}

// Category looks up a category by ID.
func (c *Content) Category(id string) (Category, bool) {
	i, ok := c.categoryIndex[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i].clone(), true
}

// Rule looks up a rule by ID across all categories.
func (c *Content) Rule(id string) (Rule, bool) {
	ref, ok := c.ruleIndex[id]
	if !ok {
		return Rule{}, false
	}
	return c.categories[ref.category].Rules[ref.rule].clone(), true
}

// Rules returns every rule, category by category, in definition order.
func (c *Content) Rules() []Rule {
	var out []Rule
	for _, cat := range c.categories {
		for _, rule := range cat.Rules {
			out = append(out, rule.clone())
		}
	}
	return out
}

// Glossary returns the glossary entries in definition order.
func (c *Content) Glossary() []GlossaryEntry {
	out := make([]GlossaryEntry, len(c.glossary))
	copy(out, c.glossary)
	return out
}

// Term resolves a term key. Keys are case-sensitive.
func (c *Content) Term(key string) (GlossaryEntry, error) {
	i, ok := c.termIndex[key]
	if !ok {
		return GlossaryEntry{}, fmt.Errorf("%w: %q", ErrUnknownTerm, key)
	}
	return c.glossary[i], nil
}

func cloneCategories(categories []Category) []Category {
	if categories == nil {
		return nil
	}
	out := make([]Category, len(categories))
	for i, cat := range categories {
		out[i] = cat.clone()
	}
	return out
}

func (cat Category) clone() Category {
	if cat.Rules != nil {
		rules := make([]Rule, len(cat.Rules))
		for i, rule := range cat.Rules {
			rules[i] = rule.clone()
		}
		cat.Rules = rules
	}
	return cat
}

func (r Rule) clone() Rule {
	if r.Questions != nil {
		questions := make([]Question, len(r.Questions))
		for i, q := range r.Questions {
			q.DependsOn = append([]string(nil), q.DependsOn...)
			questions[i] = q
		}
		r.Questions = questions
	}
	return r
}
