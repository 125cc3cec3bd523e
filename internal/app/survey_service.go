package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cdr-tool/internal/domain"
	"cdr-tool/internal/engine"
	"cdr-tool/internal/report"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live survey sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// ContentRepository loads content editions (from cache/backing store).
type ContentRepository interface {
	GetContent(ctx context.Context, edition string) (*domain.Content, error)
}

// ResultStore persists answer records of finished sessions.
type ResultStore interface {
	SaveRecord(ctx context.Context, rec StoredRecord) error
	LoadRecord(ctx context.Context, sessionID string) (StoredRecord, error)
}

// StoredRecord is a finished session's answer record with the edition it was answered against.
type StoredRecord struct {
	SessionID string              `json:"sessionId"`
	Edition   string              `json:"edition"`
	Record    domain.AnswerRecord `json:"record"`
	SavedAt   time.Time           `json:"savedAt"`
}

// Options are the deployment policies applied to every session.
type Options struct {
	Engine      engine.Options
	Scorer      engine.Scorer
	StrictTerms bool
}

// SurveyService hosts many independent survey sessions.
type SurveyService struct {
	sessions SessionRepository
	contents ContentRepository
	results  ResultStore
	opts     Options
	now      func() time.Time
	newID    func() string
}

func NewSurveyService(sessions SessionRepository, contents ContentRepository, results ResultStore, opts Options) *SurveyService {
	return &SurveyService{
		sessions: sessions,
		contents: contents,
		results:  results,
		opts:     opts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// QuestionView is the question awaiting an answer.
type QuestionView struct {
	RuleID string `json:"ruleId"`
	ID     string `json:"id"`
	Text   string `json:"text"`
}

// Snapshot is what a front end needs to render a session.
type Snapshot struct {
	SessionID           string              `json:"sessionId"`
	Edition             string              `json:"edition"`
	State               string              `json:"state"`
	CategoryID          string              `json:"categoryId,omitempty"`
	RuleID              string              `json:"ruleId,omitempty"`
	Question            *QuestionView       `json:"question,omitempty"`
	CanSkipRule         bool                `json:"canSkipRule"`
	CanLeaveCategory    bool                `json:"canLeaveCategory"`
	AvailableCategories []string            `json:"availableCategories,omitempty"`
	AvailableRules      []string            `json:"availableRules,omitempty"`
	Record              domain.AnswerRecord `json:"record"`
	StartedAt           time.Time           `json:"startedAt"`
}

// Start opens a new session on the given content edition.
func (s *SurveyService) Start(ctx context.Context, edition string) (Snapshot, error) {
	c, err := s.contents.GetContent(ctx, edition)
	if err != nil {
		return Snapshot{}, err
	}
	session := NewSessionWithClock(s.newID(), c, s.opts.Engine, s.now)
	s.sessions.Put(session)
	return session.Snapshot(), nil
}

func (s *SurveyService) SelectCategory(_ context.Context, sessionID, categoryID string) (Snapshot, error) {
	return s.apply(sessionID, func(es *engine.Session) error { return es.SelectCategory(categoryID) })
}

func (s *SurveyService) SelectRule(_ context.Context, sessionID, ruleID string) (Snapshot, error) {
	return s.apply(sessionID, func(es *engine.Session) error { return es.SelectRule(ruleID) })
}

// SelectNextRule enters the first rule of the current category not yet visited.
func (s *SurveyService) SelectNextRule(_ context.Context, sessionID string) (Snapshot, error) {
	return s.apply(sessionID, (*engine.Session).SelectNextRule)
}

// Answer records a raw answer ("y", "yes", "n", "no", ...) for the current question.
func (s *SurveyService) Answer(_ context.Context, sessionID, raw string) (Snapshot, error) {
	a, err := domain.ParseAnswer(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return s.apply(sessionID, func(es *engine.Session) error { return es.Answer(a) })
}

func (s *SurveyService) SkipRule(_ context.Context, sessionID string) (Snapshot, error) {
	return s.apply(sessionID, (*engine.Session).SkipRule)
}

func (s *SurveyService) LeaveCategory(_ context.Context, sessionID string) (Snapshot, error) {
	return s.apply(sessionID, (*engine.Session).LeaveCategory)
}

func (s *SurveyService) Snapshot(_ context.Context, sessionID string) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Results reports every rule completed so far.
func (s *SurveyService) Results(_ context.Context, sessionID string) ([]report.RuleReport, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	c, record := session.results()
	return report.NewBuilder(c, s.opts.Scorer, s.opts.StrictTerms).Build(record)
}

// Finish persists the session's answer record and drops the session.
// Rules never completed have no entry in the record.
func (s *SurveyService) Finish(ctx context.Context, sessionID string) (domain.AnswerRecord, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	_, record := session.results()
	rec := StoredRecord{
		SessionID: session.ID(),
		Edition:   session.Edition(),
		Record:    record,
		SavedAt:   s.now().UTC(),
	}
	if err := s.results.SaveRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("save record %s: %w", sessionID, err)
	}
	s.sessions.Delete(sessionID)
	return record, nil
}

// Abandon drops a session without persisting anything.
func (s *SurveyService) Abandon(_ context.Context, sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions.Delete(sessionID)
	return nil
}

// Report rebuilds the result screen of a finished session from the result store.
func (s *SurveyService) Report(ctx context.Context, sessionID string) (StoredRecord, []report.RuleReport, error) {
	rec, err := s.results.LoadRecord(ctx, sessionID)
	if err != nil {
		return StoredRecord{}, nil, err
	}
	c, err := s.contents.GetContent(ctx, rec.Edition)
	if err != nil {
		return StoredRecord{}, nil, err
	}
	reports, err := report.NewBuilder(c, s.opts.Scorer, s.opts.StrictTerms).Build(rec.Record)
	if err != nil {
		return StoredRecord{}, nil, err
	}
	return rec, reports, nil
}

func (s *SurveyService) apply(sessionID string, op func(*engine.Session) error) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return session.apply(op)
}

// Session wraps one user's engine session. All access goes through its mutex.
type Session struct {
	id        string
	startedAt time.Time

	mu     sync.Mutex
	engine *engine.Session
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, c *domain.Content, opts engine.Options) *Session {
	return NewSessionWithClock(id, c, opts, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, c *domain.Content, opts engine.Options, now func() time.Time) *Session {
	return &Session{
		id:        id,
		startedAt: now(),
		engine:    engine.NewSession(c, opts),
	}
}

func (s *Session) ID() string { return s.id }

// Edition is the content edition the session answers.
func (s *Session) Edition() string {
	return s.engine.Content().Edition()
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) apply(op func(*engine.Session) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := op(s.engine); err != nil {
		return Snapshot{}, err
	}
	return s.snapshotLocked(), nil
}

func (s *Session) results() (*domain.Content, domain.AnswerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Content(), s.engine.Record()
}

func (s *Session) snapshotLocked() Snapshot {
	es := s.engine
	snap := Snapshot{
		SessionID:           s.id,
		Edition:             es.Content().Edition(),
		State:               es.State().String(),
		CategoryID:          es.CategoryID(),
		RuleID:              es.RuleID(),
		CanSkipRule:         es.CanSkipRule(),
		CanLeaveCategory:    es.CanLeaveCategory(),
		AvailableCategories: es.AvailableCategories(),
		AvailableRules:      es.AvailableRules(),
		Record:              es.Record(),
		StartedAt:           s.startedAt,
	}
	if q, ok := es.Question(); ok {
		snap.Question = &QuestionView{RuleID: es.RuleID(), ID: q.ID, Text: q.Text}
	}
	return snap
}
