package engine

import (
	"fmt"

	"cdr-tool/internal/domain"
)

// State is the position of a session in the category → rule → question walk.
type State int

const (
	StateSelectingCategory State = iota
	StateSelectingRule
	StateAnsweringQuestion
	StateSessionComplete
)

func (s State) String() string {
	switch s {
	case StateSelectingCategory:
		return "selecting_category"
	case StateSelectingRule:
		return "selecting_rule"
	case StateAnsweringQuestion:
		return "answering_question"
	case StateSessionComplete:
		return "session_complete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options tune product rules that differ between deployments.
type Options struct {
	// AllowLeaveCategory lets the user return to category selection before
	// every rule of the current category is complete. Rules left behind get
	// no result at all.
	AllowLeaveCategory bool
}

// Session drives one user through the questionnaire and accumulates the
// answer record. A Session is not safe for concurrent use; hosts serving
// many users keep one Session per user.
type Session struct {
	content *domain.Content
	opts    Options

	state    State
	category domain.Category
	rule     domain.Rule
	question string

	// answers of the rule in progress, including dependency skips
	pending      map[string]domain.Answer
	userAnswered bool

	visitedCategories map[string]bool
	visitedRules      map[string]bool
	record            domain.AnswerRecord
}

// NewSession starts a session at category selection.
func NewSession(content *domain.Content, opts Options) *Session {
	s := &Session{
		content:           content,
		opts:              opts,
		state:             StateSelectingCategory,
		visitedCategories: make(map[string]bool),
		visitedRules:      make(map[string]bool),
		record:            make(domain.AnswerRecord),
	}
	if len(content.Categories()) == 0 {
		s.state = StateSessionComplete
	}
	return s
}

func (s *Session) Content() *domain.Content { return s.content }

func (s *Session) State() State { return s.state }

// Complete reports whether every category has been visited.
func (s *Session) Complete() bool { return s.state == StateSessionComplete }

// CategoryID is the category being worked on, if any.
func (s *Session) CategoryID() string { return s.category.ID }

// RuleID is the rule being answered, if any.
func (s *Session) RuleID() string { return s.rule.ID }

// Question returns the question awaiting an answer.
func (s *Session) Question() (domain.Question, bool) {
	if s.state != StateAnsweringQuestion {
		return domain.Question{}, false
	}
	return s.rule.Question(s.question)
}

// CanSkipRule reports whether the current rule may still be skipped, which
// is only the case before the user answered any of its questions.
func (s *Session) CanSkipRule() bool {
	return s.state == StateAnsweringQuestion && !s.userAnswered
}

// CanLeaveCategory reports whether LeaveCategory is currently allowed.
func (s *Session) CanLeaveCategory() bool {
	return s.state == StateSelectingRule && s.opts.AllowLeaveCategory
}

// AvailableCategories lists unvisited categories in definition order.
func (s *Session) AvailableCategories() []string {
	if s.state != StateSelectingCategory {
		return nil
	}
	var out []string
	for _, cat := range s.content.Categories() {
		if !s.visitedCategories[cat.ID] {
			out = append(out, cat.ID)
		}
	}
	return out
}

// AvailableRules lists the unvisited rules of the current category in
// definition order.
func (s *Session) AvailableRules() []string {
	if s.state != StateSelectingRule {
		return nil
	}
	var out []string
	for _, rule := range s.category.Rules {
		if !s.visitedRules[rule.ID] {
			out = append(out, rule.ID)
		}
	}
	return out
}

// Record returns a copy of the answer record so far.
func (s *Session) Record() domain.AnswerRecord {
	return s.record.Clone()
}

// PendingAnswers returns a copy of the answers recorded for the rule in progress.
func (s *Session) PendingAnswers() map[string]domain.Answer {
	out := make(map[string]domain.Answer, len(s.pending))
	for id, a := range s.pending {
		out[id] = a
	}
	return out
}

// SelectCategory moves into an unvisited category.
func (s *Session) SelectCategory(id string) error {
	if s.state != StateSelectingCategory {
		return s.invalid("select category %q", id)
	}
	cat, ok := s.content.Category(id)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, id)
	}
	if s.visitedCategories[id] {
		return s.invalid("category %q already visited", id)
	}
	s.visitedCategories[id] = true
	s.category = cat
	s.state = StateSelectingRule
	return nil
}

// SelectRule enters an unvisited rule of the current category and presents
// its first eligible question.
func (s *Session) SelectRule(id string) error {
	if s.state != StateSelectingRule {
		return s.invalid("select rule %q", id)
	}
	rule, ok := s.content.Rule(id)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownRule, id)
	}
	if rule.CategoryID != s.category.ID {
		return s.invalid("rule %q is not part of category %q", id, s.category.ID)
	}
	if s.visitedRules[id] {
		return s.invalid("rule %q already completed", id)
	}
	s.visitedRules[id] = true
	s.rule = rule
	s.pending = make(map[string]domain.Answer, len(rule.Questions))
	s.userAnswered = false
	s.state = StateAnsweringQuestion
	s.advance()
	return nil
}

// SelectNextRule enters the first unvisited rule of the current category.
func (s *Session) SelectNextRule() error {
	rules := s.AvailableRules()
	if len(rules) == 0 {
		return s.invalid("no rule left to select")
	}
	return s.SelectRule(rules[0])
}

// Answer records a yes/no answer for the current question.
func (s *Session) Answer(a domain.Answer) error {
	if s.state != StateAnsweringQuestion {
		return s.invalid("answer outside of a question")
	}
	if a != domain.AnswerYes && a != domain.AnswerNo {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAnswer, a)
	}
	s.pending[s.question] = a
	s.userAnswered = true
	s.advance()
	return nil
}

// SkipRule abandons the current rule before any of its questions is answered.
func (s *Session) SkipRule() error {
	if s.state != StateAnsweringQuestion {
		return s.invalid("skip rule outside of a rule")
	}
	if s.userAnswered {
		return s.invalid("rule %q already has answers", s.rule.ID)
	}
	s.finishRule(domain.SkippedResult())
	return nil
}

// LeaveCategory returns to category selection with rules still unvisited.
func (s *Session) LeaveCategory() error {
	if s.state != StateSelectingRule {
		return s.invalid("leave category")
	}
	if !s.opts.AllowLeaveCategory {
		return s.invalid("leaving category %q early is not allowed", s.category.ID)
	}
	s.finishCategory()
	return nil
}

func (s *Session) advance() {
	step := Resolve(s.rule, s.pending)
	for _, id := range step.DependencySkipped {
		s.pending[id] = domain.AnswerDependencySkipped
	}
	if step.Done {
		s.finishRule(domain.AnsweredResult(s.pending))
		return
	}
	s.question = step.Next
}

func (s *Session) finishRule(result domain.RuleResult) {
	s.record[s.rule.ID] = result
	s.rule = domain.Rule{}
	s.question = ""
	s.pending = nil
	s.userAnswered = false
	s.state = StateSelectingRule
	if len(s.AvailableRules()) == 0 {
		s.finishCategory()
	}
}

func (s *Session) finishCategory() {
	s.category = domain.Category{}
	s.state = StateSelectingCategory
	if len(s.AvailableCategories()) == 0 {
		s.state = StateSessionComplete
	}
}

func (s *Session) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s: "+format, append([]any{domain.ErrInvalidTransition, s.state}, args...)...)
}
