package content

import (
	"strings"

	"cdr-tool/internal/domain"
	"gopkg.in/yaml.v3"
)

// Encode writes content back into the source schema, preserving definition
// order. Parse(Encode(c)) yields content equal to c; caches and remote stores
// use this as their wire format.
func Encode(c *domain.Content) ([]byte, error) {
	cats := mappingNode()
	for _, cat := range c.Categories() {
		catNode := mappingNode()
		set(catNode, "title", cat.Title)
		if cat.Symbol != "" {
			set(catNode, "symbol", cat.Symbol)
		}
		rules := mappingNode()
		for _, rule := range cat.Rules {
			rules.Content = append(rules.Content, str(rule.ID), encodeRule(rule))
		}
		catNode.Content = append(catNode.Content, str("rules"), rules)
		cats.Content = append(cats.Content, str(cat.ID), catNode)
	}

	root := mappingNode()
	root.Content = append(root.Content, str("categories"), cats)

	glossary := mappingNode()
	for _, entry := range c.Glossary() {
		termNode := mappingNode()
		set(termNode, "title", entry.Title)
		set(termNode, "text", entry.Text)
		if entry.Category != "" {
			set(termNode, "category", entry.Category)
		}
		if entry.Rule != "" {
			set(termNode, "rule", entry.Rule)
		}
		glossary.Content = append(glossary.Content, str(entry.Key), termNode)
	}
	root.Content = append(root.Content, str("glossary"), glossary)

	return yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
}

func encodeRule(rule domain.Rule) *yaml.Node {
	n := mappingNode()
	set(n, "title", rule.Title)
	set(n, "text", rule.Text)
	questions := mappingNode()
	for _, q := range rule.Questions {
		qNode := mappingNode()
		set(qNode, "text", q.Text)
		if q.TextScoring != "" {
			set(qNode, "text_scoring", q.TextScoring)
		}
		if len(q.DependsOn) > 0 {
			set(qNode, "depends_on", strings.Join(q.DependsOn, ","))
		}
		questions.Content = append(questions.Content, str(q.ID), qNode)
	}
	n.Content = append(n.Content, str("questions"), questions)
	for _, kv := range [][2]string{
		{"score_zero_text", rule.ScoreZeroText},
		{"skipped_text", rule.SkippedText},
		{"score_improvement_text", rule.ScoreImprovementText},
	} {
		if kv[1] != "" {
			set(n, kv[0], kv[1])
		}
	}
	return n
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func set(n *yaml.Node, key, value string) {
	n.Content = append(n.Content, str(key), str(value))
}
