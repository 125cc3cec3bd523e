package engine

import (
	"testing"

	"cdr-tool/internal/domain"
)

// chainRule: 1, 2, 3 depends on 2.
func chainRule() domain.Rule {
	return domain.Rule{
		ID:                   "m1",
		CategoryID:           "m",
		Title:                "Recyclate",
		Text:                 "Design with recyclate",
		ScoreZeroText:        "zero",
		SkippedText:          "skipped",
		ScoreImprovementText: "improve",
		Questions: []domain.Question{
			{ID: "1", Text: "q1"},
			{ID: "2", Text: "q2"},
			{ID: "3", Text: "q3", DependsOn: []string{"2"}},
		},
	}
}

// jointRule: 3 depends on both 1 and 2 and has a scoring text.
func jointRule() domain.Rule {
	return domain.Rule{
		ID:                   "s2",
		CategoryID:           "s",
		Title:                "Reuse",
		Text:                 "Design reuse",
		ScoreZeroText:        "zero",
		SkippedText:          "skipped",
		ScoreImprovementText: "improve",
		Questions: []domain.Question{
			{ID: "1", Text: "q1"},
			{ID: "2", Text: "q2"},
			{ID: "3", Text: "q3", TextScoring: "q1, q2 and q3", DependsOn: []string{"1", "2"}},
		},
	}
}

func testContent(t *testing.T) *domain.Content {
	t.Helper()
	second := chainRule()
	second.ID = "m2"
	c, err := domain.NewContent("test", []domain.Category{
		{ID: "m", Title: "Materials", Rules: []domain.Rule{chainRule(), second}},
		{ID: "s", Title: "Services", Rules: []domain.Rule{jointRule()}},
	}, nil)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	return c
}
