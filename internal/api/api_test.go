package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyboxhq/funnel/internal/api"
	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/event"
	"github.com/joyboxhq/funnel/internal/flow"
	"github.com/joyboxhq/funnel/internal/quiz"
	"github.com/joyboxhq/funnel/internal/result"
)

type stubRecorder struct {
	recorded int
}

func (r *stubRecorder) RecordResult(ctx context.Context, req result.RecordResultRequest) (*domain.QuizResult, error) {
	r.recorded++
	return &domain.QuizResult{
		ResultID:       fmt.Sprintf("result-%d", r.recorded),
		Personality:    req.Personality,
		Scores:         req.Scores,
		IdempotencyKey: req.IdempotencyKey,
	}, nil
}

func newTestEngine(t *testing.T) (*gin.Engine, *stubRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	r := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = r.Close() })

	rec := &stubRecorder{}
	eb := event.NewBus()
	t.Cleanup(eb.Stop)

	e := gin.New()
	api.New(api.Config{
		Engine:   e,
		EventBus: eb,
		Flow: flow.NewService(flow.Config{
			Redis:    r,
			Prefix:   "test",
			Recorder: rec,
		}),
		Redis:        r,
		PubsubPrefix: "test",
	})

	return e, rec
}

func do(t *testing.T, e *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestAPI_ListQuestions(t *testing.T) {
	e, _ := newTestEngine(t)

	w := do(t, e, http.MethodGet, "/api/v1/quiz/questions", nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Questions []struct {
			QuestionID string `json:"question_id"`
			Prompt     string `json:"prompt"`
			Answers    []struct {
				Value string `json:"value"`
			} `json:"answers"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Questions, quiz.QuestionCount())
	for _, q := range resp.Questions {
		assert.NotEmpty(t, q.Prompt)
		assert.NotEmpty(t, q.Answers)
	}
}

func TestAPI_ListPersonalities(t *testing.T) {
	e, _ := newTestEngine(t)

	w := do(t, e, http.MethodGet, "/api/v1/personalities", nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Personalities []struct {
			Type  string `json:"type"`
			Title string `json:"title"`
		} `json:"personalities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Personalities, len(domain.PersonalityTypes()))
}

func TestAPI_FunnelWalk(t *testing.T) {
	e, rec := newTestEngine(t)

	const session = "/api/v1/funnel/sess-1"

	w := do(t, e, http.MethodGet, session, nil)
	require.Equal(t, 200, w.Code)

	var state struct {
		Step     string `json:"step"`
		ResultID string `json:"result_id"`
		Question *struct {
			QuestionID string `json:"question_id"`
		} `json:"question"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "hero", state.Step)

	w = do(t, e, http.MethodPost, session+"/start", nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "quiz", state.Step)
	require.NotNil(t, state.Question)

	answers := []string{"preschool", "builder", "balanced", "long", "stem", "solo"}
	for _, a := range answers {
		w = do(t, e, http.MethodPost, session+"/answers", gin.H{"value": a})
		require.Equal(t, 200, w.Code)
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "result", state.Step)

	w = do(t, e, http.MethodPost, session+"/continue", nil)
	require.Equal(t, 200, w.Code)

	w = do(t, e, http.MethodPost, session+"/signup", gin.H{
		"parent_name":     "Asha",
		"whatsapp_number": "9876543210",
		"pincode":         "560001",
	})
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "preview", state.Step)
	assert.NotEmpty(t, state.ResultID)
	assert.Equal(t, 1, rec.recorded)
}

func TestAPI_FunnelOutOfOrder(t *testing.T) {
	e, _ := newTestEngine(t)

	w := do(t, e, http.MethodPost, "/api/v1/funnel/sess-2/answers", gin.H{"value": "builder"})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error.Message)
}
