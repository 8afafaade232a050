package flow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/flow"
	"github.com/joyboxhq/funnel/internal/quiz"
	"github.com/joyboxhq/funnel/internal/result"
)

// fakeRecorder dedups on the idempotency key like the real postgres-backed
// recorder does.
type fakeRecorder struct {
	mu       sync.Mutex
	inserted map[string]*domain.QuizResult
	calls    int
	fail     error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{inserted: make(map[string]*domain.QuizResult)}
}

func (f *fakeRecorder) RecordResult(_ context.Context, req result.RecordResultRequest) (*domain.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}

	if res, ok := f.inserted[req.IdempotencyKey]; ok {
		return res, nil
	}

	res := &domain.QuizResult{
		ResultID:       "r-" + req.IdempotencyKey,
		Personality:    req.Personality,
		Scores:         req.Scores,
		Answers:        req.Answers,
		ParentName:     req.Contact.ParentName,
		WhatsappNumber: req.Contact.WhatsappNumber,
		Pincode:        req.Contact.Pincode,
		IdempotencyKey: req.IdempotencyKey,
	}
	f.inserted[req.IdempotencyKey] = res
	return res, nil
}

func validContact() domain.ContactInfo {
	return domain.ContactInfo{
		ParentName:     "Asha",
		WhatsappNumber: "98765 43210",
		Pincode:        "560034",
	}
}

func answerAll(t *testing.T, s *flow.Service, sessionID string) *domain.FlowState {
	t.Helper()

	values := map[string]string{
		"age":       "preschool",
		"play-type": "builder",
		"energy":    "balanced",
		"attention": "medium",
		"learning":  "stem",
		"social":    "peers",
	}

	var state *domain.FlowState
	for _, q := range quiz.Questions() {
		var err error
		state, err = s.Answer(context.Background(), sessionID, values[q.QuestionID])
		require.NoError(t, err)
	}
	return state
}

func TestService_FullFunnelWalk(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	state, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.StepHero, state.Step)

	state, err = s.Start(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.StepQuiz, state.Step)
	require.Zero(t, state.Cursor)

	state = answerAll(t, s, "s1")
	require.Equal(t, domain.StepResult, state.Step)
	require.NotEmpty(t, state.Personality)
	require.Len(t, state.Scores, len(domain.PersonalityTypes()), "vector should cover every type")

	state, err = s.Continue(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.StepSignup, state.Step)

	state, err = s.Signup(ctx, flow.SignupRequest{
		SessionID: "s1",
		Contact:   validContact(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StepPreview, state.Step)
	assert.NotEmpty(t, state.ResultID)
	assert.Equal(t, "9876543210", state.Contact.WhatsappNumber, "phone should be stored digits-only")
}

func TestService_ResumeFromStoredState(t *testing.T) {
	rc := makeRedis(t)
	rec := newFakeRecorder()

	s1 := flow.NewService(flow.Config{Redis: rc, Prefix: "test", Recorder: rec})
	ctx := context.Background()

	_, err := s1.Start(ctx, "s1")
	require.NoError(t, err)
	mid, err := s1.Answer(ctx, "s1", "preschool")
	require.NoError(t, err)

	// A new service over the same redis sees the identical state: the funnel
	// survives reloads.
	s2 := flow.NewService(flow.Config{Redis: rc, Prefix: "test", Recorder: rec})
	got, err := s2.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, mid, got)
}

func TestService_ResetReturnsToHero(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	_, err := s.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = s.Answer(ctx, "s1", "toddler")
	require.NoError(t, err)

	state, err := s.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepHero, state.Step)
	assert.Empty(t, state.Answers)

	// The stored blob is gone; the next read starts from scratch.
	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepHero, got.Step)
	assert.Zero(t, got.Cursor)
}

func TestService_SignupValidation(t *testing.T) {
	tests := map[string]struct {
		arrange     func(c *domain.ContactInfo)
		wantField   string
		wantMessage string
	}{
		"empty parent name": {
			arrange:   func(c *domain.ContactInfo) { c.ParentName = "  " },
			wantField: "parent_name",
		},

		"phone with too few digits": {
			arrange:   func(c *domain.ContactInfo) { c.WhatsappNumber = "12345" },
			wantField: "whatsapp_number",
		},

		"phone with too many digits": {
			arrange:   func(c *domain.ContactInfo) { c.WhatsappNumber = "+91 98765 43210 9" },
			wantField: "whatsapp_number",
		},

		"pincode too short": {
			arrange:     func(c *domain.ContactInfo) { c.Pincode = "5600" },
			wantField:   "pincode",
			wantMessage: "Please enter a valid 6-digit pincode",
		},

		"pincode with letters": {
			arrange:     func(c *domain.ContactInfo) { c.Pincode = "56OO34" },
			wantField:   "pincode",
			wantMessage: "Please enter a valid 6-digit pincode",
		},

		"well-formed pincode outside Bengaluru": {
			arrange:     func(c *domain.ContactInfo) { c.Pincode = "110001" },
			wantField:   "pincode",
			wantMessage: "We currently deliver only in Bengaluru",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, rec := makeService(t)
			ctx := context.Background()

			_, err := s.Start(ctx, "s1")
			require.NoError(t, err)
			answerAll(t, s, "s1")
			_, err = s.Continue(ctx, "s1")
			require.NoError(t, err)

			contact := validContact()
			tt.arrange(&contact)

			_, err = s.Signup(ctx, flow.SignupRequest{SessionID: "s1", Contact: contact})
			require.Error(t, err)

			e := errors.Convert(err)
			assert.Equal(t, errors.CodeInvalidArgument, e.Code)
			assert.Equal(t, tt.wantField, e.Field())
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, e.Message)
			}

			assert.Zero(t, rec.calls, "nothing should be recorded on validation failure")

			state, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, domain.StepSignup, state.Step, "flow must not advance")
		})
	}
}

func TestService_DuplicateSignupRecordsOnce(t *testing.T) {
	s, rec := makeService(t)
	ctx := context.Background()

	_, err := s.Start(ctx, "s1")
	require.NoError(t, err)
	answerAll(t, s, "s1")
	_, err = s.Continue(ctx, "s1")
	require.NoError(t, err)

	first, err := s.Signup(ctx, flow.SignupRequest{SessionID: "s1", Contact: validContact()})
	require.NoError(t, err)

	// Double-click / back-button resubmit: same session, same key, one row.
	second, err := s.Signup(ctx, flow.SignupRequest{SessionID: "s1", Contact: validContact()})
	require.NoError(t, err)

	assert.Equal(t, first.ResultID, second.ResultID)
	assert.Equal(t, 2, rec.calls)
	assert.Len(t, rec.inserted, 1, "duplicate submit must not create a second result")
}

func TestService_OutOfOrderTransitions(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	_, err := s.Answer(ctx, "s1", "builder")
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	_, err = s.Continue(ctx, "s1")
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	_, err = s.Signup(ctx, flow.SignupRequest{SessionID: "s1", Contact: validContact()})
	require.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
}

func makeRedis(t *testing.T) redis.UniversalClient {
	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(context.Background()).Err(), "should be able to ping redis")
	return rc
}

func makeService(t *testing.T) (*flow.Service, *fakeRecorder) {
	rec := newFakeRecorder()
	s := flow.NewService(flow.Config{
		Redis:    makeRedis(t),
		Prefix:   "test",
		Recorder: rec,
	})
	return s, rec
}
