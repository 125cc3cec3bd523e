// Package content turns questionnaire source documents into validated
// domain.Content values.
//
// Source documents are YAML or JSON (JSON is read through the YAML decoder).
// Mapping order is significant: categories, rules and questions keep the
// order they are written in, so decoding walks yaml.Node trees instead of Go
// maps.
package content

import (
	"fmt"
	"strings"

	"cdr-tool/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	rootFields     = []string{"categories", "glossary"}
	categoryFields = []string{"title", "symbol", "rules"}
	ruleFields     = []string{"title", "text", "questions", "score_zero_text", "skipped_text", "score_improvement_text"}
	questionFields = []string{"text", "text_scoring", "depends_on"}
	termFields     = []string{"title", "text", "category", "rule"}
)

// Parse decodes and validates a content document. Any schema violation or
// bad dependency reference is reported as domain.ErrMalformedContent.
func Parse(edition string, data []byte) (*domain.Content, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("%s: %v", edition, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, malformed("%s: empty document", edition)
	}

	root, err := mapping(doc.Content[0], "document", rootFields)
	if err != nil {
		return nil, err
	}
	catNode := root.get("categories")
	if catNode == nil {
		return nil, malformed("document: missing categories")
	}
	cats, err := mapping(catNode, "categories", nil)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(cats))
	for _, p := range cats {
		cat, err := parseCategory(p.key, p.value)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}

	var glossary []domain.GlossaryEntry
	if gNode := root.get("glossary"); gNode != nil && !isNull(gNode) {
		terms, err := mapping(gNode, "glossary", nil)
		if err != nil {
			return nil, err
		}
		for _, p := range terms {
			entry, err := parseTerm(p.key, p.value)
			if err != nil {
				return nil, err
			}
			glossary = append(glossary, entry)
		}
	}

	return domain.NewContent(edition, categories, glossary)
}

func parseCategory(id string, n *yaml.Node) (domain.Category, error) {
	path := "category " + quote(id)
	fields, err := mapping(n, path, categoryFields)
	if err != nil {
		return domain.Category{}, err
	}
	title, err := fields.required("title", path)
	if err != nil {
		return domain.Category{}, err
	}
	symbol, err := fields.optional("symbol", path)
	if err != nil {
		return domain.Category{}, err
	}
	rulesNode := fields.get("rules")
	if rulesNode == nil {
		return domain.Category{}, malformed("%s: missing rules", path)
	}
	rules, err := mapping(rulesNode, path+" rules", nil)
	if err != nil {
		return domain.Category{}, err
	}
	if len(rules) == 0 {
		return domain.Category{}, malformed("%s: no rules", path)
	}

	cat := domain.Category{ID: id, Title: title, Symbol: symbol}
	for _, p := range rules {
		rule, err := parseRule(id, p.key, p.value)
		if err != nil {
			return domain.Category{}, err
		}
		cat.Rules = append(cat.Rules, rule)
	}
	return cat, nil
}

func parseRule(categoryID, id string, n *yaml.Node) (domain.Rule, error) {
	path := "rule " + quote(id)
	fields, err := mapping(n, path, ruleFields)
	if err != nil {
		return domain.Rule{}, err
	}
	rule := domain.Rule{ID: id, CategoryID: categoryID}
	if rule.Title, err = fields.required("title", path); err != nil {
		return domain.Rule{}, err
	}
	if rule.Text, err = fields.required("text", path); err != nil {
		return domain.Rule{}, err
	}
	if rule.ScoreZeroText, err = fields.optional("score_zero_text", path); err != nil {
		return domain.Rule{}, err
	}
	if rule.SkippedText, err = fields.optional("skipped_text", path); err != nil {
		return domain.Rule{}, err
	}
	if rule.ScoreImprovementText, err = fields.optional("score_improvement_text", path); err != nil {
		return domain.Rule{}, err
	}

	qNode := fields.get("questions")
	if qNode == nil {
		return domain.Rule{}, malformed("%s: missing questions", path)
	}
	questions, err := mapping(qNode, path+" questions", nil)
	if err != nil {
		return domain.Rule{}, err
	}
	if len(questions) == 0 {
		return domain.Rule{}, malformed("%s: no questions", path)
	}

	seen := make(map[string]bool, len(questions))
	for _, p := range questions {
		q, err := parseQuestion(path, p.key, p.value, seen)
		if err != nil {
			return domain.Rule{}, err
		}
		seen[q.ID] = true
		rule.Questions = append(rule.Questions, q)
	}
	return rule, nil
}

// parseQuestion resolves depends_on against the questions already seen,
// which rejects forward references, self references and unknown IDs alike.
func parseQuestion(rulePath, id string, n *yaml.Node, earlier map[string]bool) (domain.Question, error) {
	path := rulePath + " question " + quote(id)
	fields, err := mapping(n, path, questionFields)
	if err != nil {
		return domain.Question{}, err
	}
	q := domain.Question{ID: id}
	if q.Text, err = fields.required("text", path); err != nil {
		return domain.Question{}, err
	}
	if q.TextScoring, err = fields.optional("text_scoring", path); err != nil {
		return domain.Question{}, err
	}
	raw, err := fields.optional("depends_on", path)
	if err != nil {
		return domain.Question{}, err
	}
	q.DependsOn, err = parseDependsOn(path, raw, earlier)
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func parseDependsOn(path, raw string, earlier map[string]bool) ([]string, error) {
	var deps []string
	dup := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		dep := strings.TrimSpace(part)
		if dep == "" || dup[dep] {
			continue
		}
		if !earlier[dep] {
			return nil, malformed("%s: depends_on %q is not an earlier question of the same rule", path, dep)
		}
		dup[dep] = true
		deps = append(deps, dep)
	}
	return deps, nil
}

func parseTerm(key string, n *yaml.Node) (domain.GlossaryEntry, error) {
	path := "glossary term " + quote(key)
	fields, err := mapping(n, path, termFields)
	if err != nil {
		return domain.GlossaryEntry{}, err
	}
	entry := domain.GlossaryEntry{Key: key}
	if entry.Title, err = fields.required("title", path); err != nil {
		return domain.GlossaryEntry{}, err
	}
	// Placeholder terms in older editions carry an empty text.
	if fields.get("text") == nil {
		return domain.GlossaryEntry{}, malformed("%s: missing text", path)
	}
	if entry.Text, err = fields.optional("text", path); err != nil {
		return domain.GlossaryEntry{}, err
	}
	if entry.Category, err = fields.optional("category", path); err != nil {
		return domain.GlossaryEntry{}, err
	}
	if entry.Rule, err = fields.optional("rule", path); err != nil {
		return domain.GlossaryEntry{}, err
	}
	return entry, nil
}

// --- yaml.Node helpers ---

type pair struct {
	key   string
	value *yaml.Node
}

type pairs []pair

func (ps pairs) get(key string) *yaml.Node {
	for _, p := range ps {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

func (ps pairs) optional(key, path string) (string, error) {
	n := ps.get(key)
	if n == nil || isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", malformed("%s: %s must be a string", path, key)
	}
	return n.Value, nil
}

func (ps pairs) required(key, path string) (string, error) {
	v, err := ps.optional(key, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", malformed("%s: missing %s", path, key)
	}
	return v, nil
}

// mapping returns the key/value pairs of a mapping node in document order.
// When allowed is non-nil, keys outside it are rejected.
func mapping(n *yaml.Node, path string, allowed []string) (pairs, error) {
	n = deref(n)
	if n.Kind != yaml.MappingNode {
		return nil, malformed("%s: expected a mapping", path)
	}
	out := make(pairs, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := deref(n.Content[i])
		if k.Kind != yaml.ScalarNode {
			return nil, malformed("%s: non-scalar key", path)
		}
		if seen[k.Value] {
			return nil, malformed("%s: duplicate key %q", path, k.Value)
		}
		if allowed != nil && !contains(allowed, k.Value) {
			return nil, malformed("%s: unknown field %q", path, k.Value)
		}
		seen[k.Value] = true
		out = append(out, pair{key: k.Value, value: deref(n.Content[i+1])})
	}
	return out, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrMalformedContent}, args...)...)
}
