package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is the recorded value for one question.
type Answer string

const (
	AnswerYes Answer = "y"
	AnswerNo  Answer = "n"
	// AnswerDependencySkipped marks a question that was never asked because
	// one of its dependencies was not answered yes.
	AnswerDependencySkipped Answer = "-"
)

// ParseAnswer accepts the user-facing spellings of yes and no.
func ParseAnswer(raw string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true":
		return AnswerYes, nil
	case "n", "no", "false":
		return AnswerNo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAnswer, raw)
}

func (a Answer) valid() bool {
	return a == AnswerYes || a == AnswerNo || a == AnswerDependencySkipped
}

// RuleResult is the outcome of one rule: either Skipped, or answered with a
// complete answer map and a score equal to the number of yes answers.
type RuleResult struct {
	skipped bool
	answers map[string]Answer
	score   int
}

// SkippedResult records a rule the user skipped wholesale.
func SkippedResult() RuleResult {
	return RuleResult{skipped: true}
}

// AnsweredResult records a completed rule. The score is derived from answers.
func AnsweredResult(answers map[string]Answer) RuleResult {
	copied := make(map[string]Answer, len(answers))
	score := 0
	for id, a := range answers {
		copied[id] = a
		if a == AnswerYes {
			score++
		}
	}
	return RuleResult{answers: copied, score: score}
}

// Skipped reports whether the rule was skipped. Answers and Score are
// meaningless for a skipped result.
func (r RuleResult) Skipped() bool {
	return r.skipped
}

// Score is the number of yes answers.
func (r RuleResult) Score() int {
	return r.score
}

// Answer returns the recorded answer for a question.
func (r RuleResult) Answer(questionID string) (Answer, bool) {
	a, ok := r.answers[questionID]
	return a, ok
}

// Answers returns a copy of the answer map; nil for skipped results.
func (r RuleResult) Answers() map[string]Answer {
	if r.skipped {
		return nil
	}
	out := make(map[string]Answer, len(r.answers))
	for id, a := range r.answers {
		out[id] = a
	}
	return out
}

type ruleResultJSON struct {
	Skipped bool              `json:"skipped,omitempty"`
	Answers map[string]Answer `json:"answers,omitempty"`
	Score   *int              `json:"score,omitempty"`
}

// MarshalJSON writes {"skipped":true} or {"answers":{...},"score":n}.
func (r RuleResult) MarshalJSON() ([]byte, error) {
	if r.skipped {
		return json.Marshal(ruleResultJSON{Skipped: true})
	}
	score := r.score
	answers := r.answers
	if answers == nil {
		answers = map[string]Answer{}
	}
	return json.Marshal(struct {
		Answers map[string]Answer `json:"answers"`
		Score   int               `json:"score"`
	}{Answers: answers, Score: score})
}

// UnmarshalJSON accepts the interchange format and rejects records that are
// both skipped and answered, or whose score disagrees with their answers.
func (r *RuleResult) UnmarshalJSON(data []byte) error {
	var raw ruleResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Skipped {
		if raw.Answers != nil || raw.Score != nil {
			return fmt.Errorf("rule result: skipped result carries answers")
		}
		*r = SkippedResult()
		return nil
	}
	if raw.Answers == nil {
		return fmt.Errorf("rule result: missing answers")
	}
	for id, a := range raw.Answers {
		if !a.valid() {
			return fmt.Errorf("rule result: question %q: %w: %q", id, ErrInvalidAnswer, a)
		}
	}
	result := AnsweredResult(raw.Answers)
	if raw.Score != nil && *raw.Score != result.score {
		return fmt.Errorf("rule result: score %d does not match %d yes answers", *raw.Score, result.score)
	}
	*r = result
	return nil
}

// AnswerRecord maps rule IDs to their results. Rules that never reached
// completion are absent, which is distinct from being skipped.
type AnswerRecord map[string]RuleResult

// Clone returns an independent copy of the record.
func (rec AnswerRecord) Clone() AnswerRecord {
	out := make(AnswerRecord, len(rec))
	for id, res := range rec {
		if res.skipped {
			out[id] = SkippedResult()
			continue
		}
		out[id] = AnsweredResult(res.answers)
	}
	return out
}
