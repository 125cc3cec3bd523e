package engine

import (
	"errors"
	"reflect"
	"testing"

	"cdr-tool/internal/domain"
)

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionDependencySkipIsRecorded(t *testing.T) {
	s := NewSession(testContent(t), Options{})
	mustDo(t, s.SelectCategory("m"))
	mustDo(t, s.SelectRule("m1"))
	mustDo(t, s.Answer(domain.AnswerYes))
	mustDo(t, s.Answer(domain.AnswerNo))

	res, ok := s.Record()["m1"]
	if !ok {
		t.Fatalf("m1 not finalized: %+v", s.Record())
	}
	want := map[string]domain.Answer{"1": domain.AnswerYes, "2": domain.AnswerNo, "3": domain.AnswerDependencySkipped}
	if !reflect.DeepEqual(res.Answers(), want) || res.Score() != 1 {
		t.Fatalf("record = %v score %d, want %v score 1", res.Answers(), res.Score(), want)
	}
	if s.State() != StateSelectingRule {
		t.Fatalf("state = %s, want selecting_rule", s.State())
	}
}

func TestSessionSkipRuleOnFirstQuestion(t *testing.T) {
	s := NewSession(testContent(t), Options{})
	mustDo(t, s.SelectCategory("m"))
	mustDo(t, s.SelectRule("m1"))
	if !s.CanSkipRule() {
		t.Fatalf("expected skip to be allowed on the first question")
	}
	mustDo(t, s.SkipRule())

	res := s.Record()["m1"]
	if !res.Skipped() || res.Answers() != nil {
		t.Fatalf("expected skipped result without answers, got %+v", res)
	}
}

func TestSessionRejectsSkipAfterAnswer(t *testing.T) {
	s := NewSession(testContent(t), Options{})
	mustDo(t, s.SelectCategory("m"))
	mustDo(t, s.SelectRule("m1"))
	mustDo(t, s.Answer(domain.AnswerYes))

	if err := s.SkipRule(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if q, _ := s.Question(); q.ID != "2" {
		t.Fatalf("state changed by rejected skip, question = %q", q.ID)
	}
	if len(s.Record()) != 0 {
		t.Fatalf("rejected skip wrote the record: %+v", s.Record())
	}
}

func TestSessionRejectsOutOfOrderActions(t *testing.T) {
	s := NewSession(testContent(t), Options{})

	if err := s.Answer(domain.AnswerYes); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("answer before selecting: %v", err)
	}
	if err := s.SelectRule("m1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("rule before category: %v", err)
	}
	if err := s.SelectCategory("x"); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Errorf("unknown category: %v", err)
	}

	mustDo(t, s.SelectCategory("m"))
	if err := s.SelectRule("s2"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("rule of other category: %v", err)
	}
	if err := s.SelectRule("zz"); !errors.Is(err, domain.ErrUnknownRule) {
		t.Errorf("unknown rule: %v", err)
	}

	mustDo(t, s.SelectRule("m1"))
	if err := s.Answer(domain.AnswerDependencySkipped); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Errorf("dash answer: %v", err)
	}
	mustDo(t, s.SkipRule())

	if err := s.SelectRule("m1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("revisit completed rule: %v", err)
	}
	if !s.Record()["m1"].Skipped() {
		t.Fatalf("record corrupted by rejected revisit")
	}
}

func TestSessionOffersRulesInDefinitionOrder(t *testing.T) {
	s := NewSession(testContent(t), Options{})
	if got := s.AvailableCategories(); !reflect.DeepEqual(got, []string{"m", "s"}) {
		t.Fatalf("categories = %v", got)
	}
	mustDo(t, s.SelectCategory("s"))
	if got := s.AvailableCategories(); got != nil {
		t.Fatalf("categories offered while inside one: %v", got)
	}
	mustDo(t, s.SelectNextRule())
	mustDo(t, s.SkipRule())

	// s has a single rule, so the session returns to category selection.
	if s.State() != StateSelectingCategory {
		t.Fatalf("state = %s", s.State())
	}
	if got := s.AvailableCategories(); !reflect.DeepEqual(got, []string{"m"}) {
		t.Fatalf("categories = %v, want [m]", got)
	}
	if err := s.SelectCategory("s"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("revisiting category: %v", err)
	}

	mustDo(t, s.SelectCategory("m"))
	if got := s.AvailableRules(); !reflect.DeepEqual(got, []string{"m1", "m2"}) {
		t.Fatalf("rules = %v", got)
	}
	mustDo(t, s.SelectRule("m2"))
	mustDo(t, s.SkipRule())
	if got := s.AvailableRules(); !reflect.DeepEqual(got, []string{"m1"}) {
		t.Fatalf("rules = %v, want [m1]", got)
	}
	mustDo(t, s.SelectNextRule())
	mustDo(t, s.Answer(domain.AnswerNo))
	mustDo(t, s.Answer(domain.AnswerNo))

	if !s.Complete() {
		t.Fatalf("expected session complete, state %s", s.State())
	}
	rec := s.Record()
	if len(rec) != 3 || rec["m1"].Score() != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestSessionLeaveCategory(t *testing.T) {
	strict := NewSession(testContent(t), Options{})
	mustDo(t, strict.SelectCategory("m"))
	if strict.CanLeaveCategory() {
		t.Fatalf("leaving must not be offered without permission")
	}
	if err := strict.LeaveCategory(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("leave without permission: %v", err)
	}

	s := NewSession(testContent(t), Options{AllowLeaveCategory: true})
	mustDo(t, s.SelectCategory("m"))
	mustDo(t, s.SelectRule("m1"))
	mustDo(t, s.SkipRule())
	if !s.CanLeaveCategory() {
		t.Fatalf("expected leaving to be offered")
	}
	mustDo(t, s.LeaveCategory())

	if _, ok := s.Record()["m2"]; ok {
		t.Fatalf("abandoned rule must have no result")
	}
	mustDo(t, s.SelectCategory("s"))
	mustDo(t, s.SelectRule("s2"))
	for i := 0; i < 3; i++ {
		mustDo(t, s.Answer(domain.AnswerYes))
	}
	if !s.Complete() {
		t.Fatalf("expected complete after visiting all categories, state %s", s.State())
	}
	if got := s.Record()["s2"].Score(); got != 3 {
		t.Fatalf("score = %d, want 3", got)
	}
}

func TestSessionRecordIsACopy(t *testing.T) {
	s := NewSession(testContent(t), Options{})
	mustDo(t, s.SelectCategory("s"))
	mustDo(t, s.SelectRule("s2"))
	mustDo(t, s.SkipRule())

	rec := s.Record()
	delete(rec, "s2")
	if _, ok := s.Record()["s2"]; !ok {
		t.Fatalf("caller mutated session record")
	}
}
