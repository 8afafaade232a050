package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/event"
	"github.com/joyboxhq/funnel/internal/flow"
	"github.com/joyboxhq/funnel/internal/insight"
	"github.com/joyboxhq/funnel/internal/quiz"
	"github.com/joyboxhq/funnel/internal/result"
	"github.com/joyboxhq/funnel/internal/toy"
	"github.com/joyboxhq/funnel/internal/waitlist"
)

type Config struct {
	Engine   *gin.Engine
	EventBus *event.Bus

	Flow     *flow.Service
	Results  *result.Service
	Toys     *toy.Service
	Insights *insight.Service
	Waitlist *waitlist.Service

	Redis           Redis
	PubsubPrefix    string
	ChatUpstreamURL string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	flow     *flow.Service
	results  *result.Service
	toys     *toy.Service
	insights *insight.Service
	waitlist *waitlist.Service

	redis        Redis
	prefix       string
	chatUpstream string
}

func New(c Config) *API {
	a := &API{
		flow:         c.Flow,
		results:      c.Results,
		toys:         c.Toys,
		insights:     c.Insights,
		waitlist:     c.Waitlist,
		redis:        c.Redis,
		prefix:       c.PubsubPrefix,
		chatUpstream: c.ChatUpstreamURL,
	}

	a.registerRoutes(c.Engine)

	c.EventBus.Subscribe(domain.EventNameResultRecorded, func(ctx context.Context, e event.Event) error {
		return a.PublishResultRecorded(ctx, e.(domain.EventResultRecorded))
	})
	c.EventBus.Subscribe(domain.EventNameWaitlistJoined, func(ctx context.Context, e event.Event) error {
		return a.PublishWaitlistJoined(ctx, e.(domain.EventWaitlistJoined))
	})
	c.EventBus.Subscribe(domain.EventNameNotificationSent, func(ctx context.Context, e event.Event) error {
		return a.PublishNotificationSent(ctx, e.(domain.EventNotificationSent))
	})

	return a
}

func (a *API) registerRoutes(e *gin.Engine) {
	v1 := e.Group("/api/v1")

	v1.GET("/quiz/questions", a.listQuestions)
	v1.GET("/personalities", a.listPersonalities)

	funnel := v1.Group("/funnel/:session")
	funnel.GET("", a.getFlow)
	funnel.POST("/start", a.startFlow)
	funnel.POST("/answers", a.answerFlow)
	funnel.POST("/continue", a.continueFlow)
	funnel.POST("/signup", a.signupFlow)
	funnel.POST("/reset", a.resetFlow)

	v1.GET("/toys/recommended", a.recommendedToys)
	v1.GET("/toys/featured", a.featuredToys)
	v1.GET("/toys/:id", a.getToy)
	v1.POST("/toys/:id/reviews", a.addReview)

	v1.GET("/results/:id/insights", a.resultInsights)
	v1.POST("/insights/compare", a.compareResults)

	v1.POST("/waitlist", a.joinWaitlist)

	admin := v1.Group("/admin")
	admin.GET("/toys", a.adminListToys)
	admin.POST("/toys", a.adminCreateToy)
	admin.PUT("/toys/:id", a.adminUpdateToy)
	admin.DELETE("/toys/:id", a.adminDeleteToy)
	admin.GET("/waitlist/stats", a.adminWaitlistStats)
	admin.GET("/waitlist/referrers", a.adminTopReferrers)
	admin.GET("/results/stats", a.adminResultStats)

	e.GET("/ws/support-chat", a.supportChat)
}

// renderError maps a service error onto the wire: canonical code, HTTP
// status, user-facing message, and the offending field for inline display.
func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"route", c.FullPath(),
			"error", err,
		)
	}

	body := gin.H{
		"code":    e.Code.String(),
		"message": e.Message,
	}
	if e.Field() != "" {
		body["field"] = e.Field()
	}

	c.JSON(e.HTTPStatusCode(), gin.H{"error": body})
}

type questionResponse struct {
	QuestionID string           `json:"question_id"`
	Prompt     string           `json:"prompt"`
	Answers    []answerResponse `json:"answers"`
}

type answerResponse struct {
	AnswerID string `json:"answer_id"`
	Text     string `json:"text"`
	Icon     string `json:"icon"`
	Value    string `json:"value"`
}

func (a *API) listQuestions(c *gin.Context) {
	qs := quiz.Questions()

	resp := make([]questionResponse, 0, len(qs))
	for _, q := range qs {
		qr := questionResponse{
			QuestionID: q.QuestionID,
			Prompt:     q.Prompt,
			Answers:    make([]answerResponse, 0, len(q.Answers)),
		}
		for _, an := range q.Answers {
			qr.Answers = append(qr.Answers, answerResponse{
				AnswerID: an.AnswerID,
				Text:     an.Text,
				Icon:     an.Icon,
				Value:    an.Value,
			})
		}
		resp = append(resp, qr)
	}

	c.JSON(200, gin.H{"questions": resp})
}

type categoryResponse struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type profileResponse struct {
	Type        domain.PersonalityType `json:"type"`
	Title       string                 `json:"title"`
	Emoji       string                 `json:"emoji"`
	Description string                 `json:"description"`
	Categories  []categoryResponse     `json:"categories"`
}

func toProfileResponse(p domain.PersonalityProfile) profileResponse {
	pr := profileResponse{
		Type:        p.Type,
		Title:       p.Title,
		Emoji:       p.Emoji,
		Description: p.Description,
		Categories:  make([]categoryResponse, 0, len(p.Categories)),
	}
	for _, cat := range p.Categories {
		pr.Categories = append(pr.Categories, categoryResponse{Name: cat.Name, Icon: cat.Icon})
	}
	return pr
}

func (a *API) listPersonalities(c *gin.Context) {
	ps := quiz.Profiles()

	resp := make([]profileResponse, 0, len(ps))
	for _, p := range ps {
		resp = append(resp, toProfileResponse(p))
	}

	c.JSON(200, gin.H{"personalities": resp})
}

type flowStateResponse struct {
	SessionID   string             `json:"session_id"`
	Step        domain.FlowStep    `json:"step"`
	Cursor      int                `json:"cursor"`
	Answers     domain.AnswerSet   `json:"answers"`
	Personality *profileResponse   `json:"personality,omitempty"`
	Scores      domain.ScoreVector `json:"scores,omitempty"`
	ResultID    string             `json:"result_id,omitempty"`
	Question    *questionResponse  `json:"question,omitempty"`
}

func toFlowStateResponse(state *domain.FlowState) flowStateResponse {
	resp := flowStateResponse{
		SessionID: state.SessionID,
		Step:      state.Step,
		Cursor:    state.Cursor,
		Answers:   state.Answers,
		Scores:    state.Scores,
		ResultID:  state.ResultID,
	}

	if state.Personality != "" {
		p := toProfileResponse(quiz.Profile(state.Personality))
		resp.Personality = &p
	}

	if state.Step == domain.StepQuiz {
		if q, ok := quiz.QuestionAt(state.Cursor); ok {
			qr := questionResponse{
				QuestionID: q.QuestionID,
				Prompt:     q.Prompt,
				Answers:    make([]answerResponse, 0, len(q.Answers)),
			}
			for _, an := range q.Answers {
				qr.Answers = append(qr.Answers, answerResponse{
					AnswerID: an.AnswerID,
					Text:     an.Text,
					Icon:     an.Icon,
					Value:    an.Value,
				})
			}
			resp.Question = &qr
		}
	}

	return resp
}

func (a *API) getFlow(c *gin.Context) {
	state, err := a.flow.Get(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toFlowStateResponse(state))
}

func (a *API) startFlow(c *gin.Context) {
	state, err := a.flow.Start(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toFlowStateResponse(state))
}

type answerRequest struct {
	Value string `json:"value" binding:"required"`
}

func (a *API) answerFlow(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Choose an answer to continue"),
			errors.WithCause(err)))
		return
	}

	state, err := a.flow.Answer(c.Request.Context(), c.Param("session"), req.Value)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toFlowStateResponse(state))
}

func (a *API) continueFlow(c *gin.Context) {
	state, err := a.flow.Continue(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toFlowStateResponse(state))
}

type signupRequest struct {
	ParentName     string `json:"parent_name"`
	WhatsappNumber string `json:"whatsapp_number"`
	Pincode        string `json:"pincode"`
	ChildAge       *int   `json:"child_age"`
	UserID         string `json:"user_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (a *API) signupFlow(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Fill in the signup form to continue"),
			errors.WithCause(err)))
		return
	}

	state, err := a.flow.Signup(c.Request.Context(), flow.SignupRequest{
		SessionID: c.Param("session"),
		Contact: domain.ContactInfo{
			ParentName:     req.ParentName,
			WhatsappNumber: req.WhatsappNumber,
			Pincode:        req.Pincode,
			ChildAge:       req.ChildAge,
			UserID:         req.UserID,
		},
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toFlowStateResponse(state))
}

func (a *API) resetFlow(c *gin.Context) {
	state, err := a.flow.Reset(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toFlowStateResponse(state))
}
