package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/quiz"
	"github.com/joyboxhq/funnel/internal/result"
)

const defaultStateTTL = 24 * time.Hour

// Recorder persists a completed quiz attempt. Implemented by result.Service.
type Recorder interface {
	RecordResult(ctx context.Context, req result.RecordResultRequest) (*domain.QuizResult, error)
}

type Config struct {
	Redis    redis.UniversalClient
	Prefix   string
	StateTTL time.Duration
	Recorder Recorder
}

// Service drives the quiz funnel state machine:
// hero -> quiz -> result -> signup -> preview, with reset back to hero from
// anywhere. Every transition persists the full state so a session resumes
// wherever it left off.
type Service struct {
	store    *Store
	recorder Recorder
}

func NewService(c Config) *Service {
	ttl := c.StateTTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}

	return &Service{
		store:    NewStore(c.Redis, c.Prefix, ttl),
		recorder: c.Recorder,
	}
}

// Get returns the current state of a session, or a fresh hero state when
// nothing is stored yet. It never writes.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	state, err := s.store.Load(ctx, sessionID)
	if errors.Convert(err).Code == errors.CodeNotFound {
		return newState(sessionID), nil
	}
	if err != nil {
		return nil, err
	}

	return state, nil
}

// Start moves a session from hero into the quiz.
func (s *Service) Start(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Step != domain.StepHero {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("quiz already started: session=%s step=%s", sessionID, state.Step))
	}

	state.Step = domain.StepQuiz
	state.Cursor = 0
	state.Answers = domain.AnswerSet{}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Answer records the chosen value for the current question and advances the
// cursor. Answering the last question runs scoring and moves to result.
func (s *Service) Answer(ctx context.Context, sessionID, value string) (*domain.FlowState, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Step != domain.StepQuiz {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("not answering questions: session=%s step=%s", sessionID, state.Step))
	}

	q, ok := quiz.QuestionAt(state.Cursor)
	if !ok {
		return nil, errors.New(errors.CodeInternal,
			errors.WithMessagef("cursor out of range: session=%s cursor=%d", sessionID, state.Cursor))
	}

	if state.Answers == nil {
		state.Answers = domain.AnswerSet{}
	}
	state.Answers[q.QuestionID] = value
	state.Cursor++

	if state.Cursor >= quiz.QuestionCount() {
		state.Scores = quiz.Score(state.Answers)
		state.Personality = quiz.Classify(state.Answers)
		state.Step = domain.StepResult
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Continue moves from the result screen to signup. Scoring is not re-run.
func (s *Service) Continue(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Step != domain.StepResult {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no result to continue from: session=%s step=%s", sessionID, state.Step))
	}

	state.Step = domain.StepSignup

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

type SignupRequest struct {
	SessionID      string
	Contact        domain.ContactInfo
	IdempotencyKey string
}

// Signup validates the contact form, records the quiz result durably, and
// moves to preview. The idempotency key is pinned to the session on the first
// attempt, so a double submit records exactly one result. Email notification
// is carried by the result recorder's outbox and can never block this
// transition.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*domain.FlowState, error) {
	state, err := s.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if state.Step != domain.StepSignup && state.Step != domain.StepPreview {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("not at signup: session=%s step=%s", req.SessionID, state.Step))
	}

	contact, err := validateContact(req.Contact)
	if err != nil {
		return nil, err
	}
	state.Contact = &contact

	if state.IdempotencyKey == "" {
		state.IdempotencyKey = req.IdempotencyKey
	}
	if state.IdempotencyKey == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("flow: generate idempotency key: %w", err)
		}
		state.IdempotencyKey = id.String()
	}

	// Persist the key before the durable write: a retried submit after a
	// timeout reuses the same key and dedups server-side.
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	res, err := s.recorder.RecordResult(ctx, result.RecordResultRequest{
		Personality:    state.Personality,
		Scores:         state.Scores,
		Answers:        state.Answers,
		Contact:        contact,
		IdempotencyKey: state.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	state.ResultID = res.ResultID
	state.Step = domain.StepPreview

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Reset clears all persisted state and returns the session to hero.
func (s *Service) Reset(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return nil, err
	}

	return newState(sessionID), nil
}

func newState(sessionID string) *domain.FlowState {
	return &domain.FlowState{
		SessionID: sessionID,
		Step:      domain.StepHero,
		Answers:   domain.AnswerSet{},
	}
}
