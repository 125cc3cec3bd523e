// Package engine walks a user through a questionnaire and scores the result.
//
// Everything here is deterministic and free of I/O: the resolver and scorer
// are pure functions of their inputs, and a Session only mutates its own
// answer record.
package engine

import "cdr-tool/internal/domain"

// Step is the resolver's verdict for a partially answered rule.
type Step struct {
	// Next is the question to present. Empty when Done.
	Next string
	// DependencySkipped lists questions, in definition order, that precede
	// Next (or the end of the rule) and must be recorded as "-" because a
	// dependency was not answered yes.
	DependencySkipped []string
	// Done reports that no question remains to be asked.
	Done bool
}

// Resolve walks the rule's questions in definition order and finds the next
// one to ask. Questions whose dependencies are not all answered yes are
// collected as dependency-skipped instead of being asked. answers is never
// modified.
func Resolve(rule domain.Rule, answers map[string]domain.Answer) Step {
	var skipped []string
	view := func(id string) (domain.Answer, bool) {
		if a, ok := answers[id]; ok {
			return a, true
		}
		for _, s := range skipped {
			if s == id {
				return domain.AnswerDependencySkipped, true
			}
		}
		return "", false
	}

	for _, q := range rule.Questions {
		if _, answered := answers[q.ID]; answered {
			continue
		}
		if eligible(q, view) {
			return Step{Next: q.ID, DependencySkipped: skipped}
		}
		skipped = append(skipped, q.ID)
	}
	return Step{DependencySkipped: skipped, Done: true}
}

// NextEligibleQuestion returns the next question to present, or false when
// the rule is complete.
func NextEligibleQuestion(rule domain.Rule, answers map[string]domain.Answer) (string, bool) {
	step := Resolve(rule, answers)
	return step.Next, !step.Done
}

// eligible requires every dependency to be answered yes. Dependencies always
// precede the question, so by the time it is reached each one is either
// answered or dependency-skipped.
func eligible(q domain.Question, answer func(string) (domain.Answer, bool)) bool {
	for _, dep := range q.DependsOn {
		a, ok := answer(dep)
		if !ok || a != domain.AnswerYes {
			return false
		}
	}
	return true
}
