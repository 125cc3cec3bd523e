package engine

import "cdr-tool/internal/domain"

// FragmentKind says which content field a result fragment came from.
type FragmentKind string

const (
	FragmentSkipped     FragmentKind = "skipped"
	FragmentScoreZero   FragmentKind = "score_zero"
	FragmentQuestion    FragmentKind = "question"
	FragmentImprovement FragmentKind = "improvement"
)

// Fragment is one piece of rich text on the result screen.
type Fragment struct {
	Kind       FragmentKind `json:"kind"`
	QuestionID string       `json:"questionId,omitempty"`
	Text       string       `json:"text"`
}

// Scorer selects result texts for completed rules.
type Scorer struct {
	// ImprovementOnSkip appends the improvement text after the skipped text.
	ImprovementOnSkip bool
}

// RenderResult returns the ordered fragments to display for a rule result.
//
// Skipped rules show the skipped text; a zero score shows the zero text;
// otherwise every yes-answered question shows its scoring text (or its plain
// text) unless a yes-answered question that depends on it subsumes it. Any
// score below the rule maximum appends the improvement text.
func (sc Scorer) RenderResult(rule domain.Rule, result domain.RuleResult) []Fragment {
	var out []Fragment

	if result.Skipped() {
		out = appendText(out, FragmentSkipped, "", rule.SkippedText)
		if sc.ImprovementOnSkip {
			out = appendText(out, FragmentImprovement, "", rule.ScoreImprovementText)
		}
		return out
	}

	if result.Score() == 0 {
		out = appendText(out, FragmentScoreZero, "", rule.ScoreZeroText)
	} else {
		suppressed := suppressedQuestions(rule, result)
		for _, q := range rule.Questions {
			if a, _ := result.Answer(q.ID); a != domain.AnswerYes || suppressed[q.ID] {
				continue
			}
			text := q.Text
			if notEmpty(q.TextScoring) {
				text = q.TextScoring
			}
			out = appendText(out, FragmentQuestion, q.ID, text)
		}
	}

	if result.Score() < rule.MaxScore() {
		out = appendText(out, FragmentImprovement, "", rule.ScoreImprovementText)
	}
	return out
}

// suppressedQuestions collects, over the whole rule, the dependencies of every
// yes-answered question. A later question can hide an earlier one, so the set
// must be complete before any text is emitted.
func suppressedQuestions(rule domain.Rule, result domain.RuleResult) map[string]bool {
	suppressed := make(map[string]bool)
	for _, q := range rule.Questions {
		if a, _ := result.Answer(q.ID); a != domain.AnswerYes {
			continue
		}
		for _, dep := range q.DependsOn {
			suppressed[dep] = true
		}
	}
	return suppressed
}

func appendText(out []Fragment, kind FragmentKind, questionID, text string) []Fragment {
	if !notEmpty(text) {
		return out
	}
	return append(out, Fragment{Kind: kind, QuestionID: questionID, Text: text})
}

// notEmpty treats absent and empty texts alike. Whitespace is content.
func notEmpty(s string) bool {
	return s != ""
}
