package engine

import (
	"reflect"
	"testing"

	"cdr-tool/internal/domain"
)

func texts(fragments []Fragment) []string {
	var out []string
	for _, f := range fragments {
		out = append(out, f.Text)
	}
	return out
}

func answered(pairs ...string) domain.RuleResult {
	answers := make(map[string]domain.Answer)
	for i := 0; i+1 < len(pairs); i += 2 {
		answers[pairs[i]] = domain.Answer(pairs[i+1])
	}
	return domain.AnsweredResult(answers)
}

func TestRenderSkippedRule(t *testing.T) {
	rule := chainRule()

	got := texts(Scorer{ImprovementOnSkip: true}.RenderResult(rule, domain.SkippedResult()))
	if !reflect.DeepEqual(got, []string{"skipped", "improve"}) {
		t.Fatalf("with improvement on skip: %v", got)
	}

	got = texts(Scorer{}.RenderResult(rule, domain.SkippedResult()))
	if !reflect.DeepEqual(got, []string{"skipped"}) {
		t.Fatalf("without improvement on skip: %v", got)
	}
}

func TestRenderZeroScore(t *testing.T) {
	got := texts(Scorer{}.RenderResult(chainRule(), answered("1", "n", "2", "n", "3", "-")))
	if !reflect.DeepEqual(got, []string{"zero", "improve"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRenderPartialScoreAppendsImprovement(t *testing.T) {
	got := Scorer{}.RenderResult(chainRule(), answered("1", "y", "2", "y", "3", "n"))
	want := []Fragment{
		{Kind: FragmentQuestion, QuestionID: "1", Text: "q1"},
		{Kind: FragmentQuestion, QuestionID: "2", Text: "q2"},
		{Kind: FragmentImprovement, Text: "improve"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestRenderSuppressesSubsumedQuestions(t *testing.T) {
	got := texts(Scorer{}.RenderResult(jointRule(), answered("1", "y", "2", "y", "3", "y")))
	if !reflect.DeepEqual(got, []string{"q1, q2 and q3"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRenderFullScoreOmitsImprovement(t *testing.T) {
	got := texts(Scorer{}.RenderResult(chainRule(), answered("1", "y", "2", "y", "3", "y")))
	// 3 depends on 2, so 2 is hidden; 3 has no scoring text.
	if !reflect.DeepEqual(got, []string{"q1", "q3"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRenderIgnoresDependencySkippedAnswers(t *testing.T) {
	got := texts(Scorer{}.RenderResult(jointRule(), answered("1", "y", "2", "n", "3", "-")))
	if !reflect.DeepEqual(got, []string{"q1", "improve"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRenderSkipsEmptyOptionalTexts(t *testing.T) {
	rule := chainRule()
	rule.ScoreImprovementText = ""
	rule.Questions[0].TextScoring = ""

	got := texts(Scorer{ImprovementOnSkip: true}.RenderResult(rule, answered("1", "y", "2", "n", "3", "-")))
	if !reflect.DeepEqual(got, []string{"q1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRenderKeepsWhitespaceTexts(t *testing.T) {
	rule := chainRule()
	rule.ScoreImprovementText = "  "
	rule.Questions[0].TextScoring = " "

	got := texts(Scorer{ImprovementOnSkip: true}.RenderResult(rule, answered("1", "y", "2", "n", "3", "-")))
	if !reflect.DeepEqual(got, []string{" ", "  "}) {
		t.Fatalf("got %v", got)
	}
}

func TestRenderSuppressionUsesWholeRule(t *testing.T) {
	// The dependant comes first in definition order; 3 must still be hidden.
	rule := domain.Rule{ID: "r", Questions: []domain.Question{
		{ID: "3", Text: "three"},
		{ID: "1", Text: "one", DependsOn: []string{"3"}},
	}}
	got := texts(Scorer{}.RenderResult(rule, answered("3", "y", "1", "y")))
	if !reflect.DeepEqual(got, []string{"one"}) {
		t.Fatalf("got %v", got)
	}
}
