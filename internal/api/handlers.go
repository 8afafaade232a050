package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/insight"
	"github.com/joyboxhq/funnel/internal/quiz"
	"github.com/joyboxhq/funnel/internal/result"
	"github.com/joyboxhq/funnel/internal/toy"
	"github.com/joyboxhq/funnel/internal/waitlist"
)

type toyResponse struct {
	ToyID            string                   `json:"toy_id"`
	Name             string                   `json:"name"`
	Description      string                   `json:"description"`
	ImageURL         string                   `json:"image_url"`
	AgeGroup         string                   `json:"age_group"`
	Category         string                   `json:"category"`
	Price            string                   `json:"price"`
	Stock            int                      `json:"stock"`
	PersonalityTypes []domain.PersonalityType `json:"personality_types"`
	Featured         bool                     `json:"featured"`
	AvgRating        string                   `json:"avg_rating"`
	ReviewCount      int                      `json:"review_count"`
	CreateTime       time.Time                `json:"create_time"`
}

func toToyResponse(t domain.Toy) toyResponse {
	return toyResponse{
		ToyID:            t.ToyID,
		Name:             t.Name,
		Description:      t.Description,
		ImageURL:         t.ImageURL,
		AgeGroup:         t.AgeGroup,
		Category:         t.Category,
		Price:            t.Price.StringFixed(2),
		Stock:            t.Stock,
		PersonalityTypes: t.PersonalityTypes,
		Featured:         t.Featured,
		AvgRating:        t.AvgRating.Round(1).String(),
		ReviewCount:      t.ReviewCount,
		CreateTime:       t.CreateTime,
	}
}

func toToyResponses(toys []domain.Toy) []toyResponse {
	resp := make([]toyResponse, 0, len(toys))
	for _, t := range toys {
		resp = append(resp, toToyResponse(t))
	}
	return resp
}

func (a *API) recommendedToys(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	// The personality may arrive as a clean identifier or a legacy display
	// title; both resolve to the canonical type.
	toys := a.toys.Recommended(c.Request.Context(), toy.RecommendedRequest{
		Personality: quiz.NormalizeLabel(c.Query("personality")),
		AgeGroup:    c.Query("age_group"),
		Limit:       limit,
	})

	c.JSON(200, gin.H{"toys": toToyResponses(toys)})
}

func (a *API) featuredToys(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	toys := a.toys.Featured(c.Request.Context(), limit)

	c.JSON(200, gin.H{"toys": toToyResponses(toys)})
}

func (a *API) getToy(c *gin.Context) {
	t, err := a.toys.GetToy(c.Request.Context(), toy.GetToyRequest{ToyID: c.Param("id")})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toToyResponse(*t))
}

type reviewRequest struct {
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (a *API) addReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Invalid review"),
			errors.WithCause(err)))
		return
	}

	rev, err := a.toys.AddReview(c.Request.Context(), toy.AddReviewRequest{
		ToyID:   c.Param("id"),
		UserID:  req.UserID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"review_id":   rev.ReviewID,
		"toy_id":      rev.ToyID,
		"rating":      rev.Rating,
		"comment":     rev.Comment,
		"create_time": rev.CreateTime,
	})
}

func (a *API) resultInsights(c *gin.Context) {
	res, err := a.results.GetResult(c.Request.Context(), result.GetResultRequest{ResultID: c.Param("id")})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"result_id":   res.ResultID,
		"personality": toProfileResponse(quiz.Profile(res.Personality)),
		"radar":       insight.RadarSeries(*res),
		"top":         insight.TopRanked(*res),
		"create_time": res.CreateTime,
	})
}

type compareRequest struct {
	ResultIDs []string `json:"result_ids" binding:"required"`
}

func (a *API) compareResults(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Select results to compare"),
			errors.WithCause(err)))
		return
	}

	cmp, err := a.insights.Compare(c.Request.Context(), insight.CompareRequest{
		ResultIDs: req.ResultIDs,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, cmp)
}

type joinWaitlistRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Pincode      string `json:"pincode"`
	ReferralCode string `json:"referral_code"`
}

func (a *API) joinWaitlist(c *gin.Context) {
	var req joinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Fill in the waitlist form"),
			errors.WithCause(err)))
		return
	}

	entry, err := a.waitlist.Join(c.Request.Context(), waitlist.JoinRequest{
		Name:         req.Name,
		Phone:        req.Phone,
		Pincode:      req.Pincode,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"entry_id":      entry.EntryID,
		"referral_code": entry.ReferralCode,
	})
}

type saveToyRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ImageURL         string   `json:"image_url"`
	AgeGroup         string   `json:"age_group"`
	Category         string   `json:"category"`
	Price            string   `json:"price"`
	Stock            int      `json:"stock"`
	PersonalityTypes []string `json:"personality_types"`
	Featured         bool     `json:"featured"`
}

func (r saveToyRequest) toServiceRequest(toyID string) (toy.SaveToyRequest, error) {
	price := decimal.Zero
	if r.Price != "" {
		var err error
		price, err = decimal.NewFromString(r.Price)
		if err != nil {
			return toy.SaveToyRequest{}, errors.New(errors.CodeInvalidArgument,
				errors.WithField("price"),
				errors.WithMessagef("Price must be a number"),
				errors.WithCause(err))
		}
	}

	tags := make([]domain.PersonalityType, 0, len(r.PersonalityTypes))
	for _, t := range r.PersonalityTypes {
		tags = append(tags, quiz.NormalizeLabel(t))
	}

	return toy.SaveToyRequest{
		ToyID:            toyID,
		Name:             r.Name,
		Description:      r.Description,
		ImageURL:         r.ImageURL,
		AgeGroup:         r.AgeGroup,
		Category:         r.Category,
		Price:            price,
		Stock:            r.Stock,
		PersonalityTypes: tags,
		Featured:         r.Featured,
	}, nil
}

func (a *API) adminListToys(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	toys, err := a.toys.ListToys(c.Request.Context(), toy.ListToysRequest{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{"toys": toToyResponses(toys)})
}

func (a *API) adminCreateToy(c *gin.Context) {
	var req saveToyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Invalid toy"),
			errors.WithCause(err)))
		return
	}

	sreq, err := req.toServiceRequest("")
	if err != nil {
		renderError(c, err)
		return
	}

	t, err := a.toys.CreateToy(c.Request.Context(), sreq)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(201, toToyResponse(*t))
}

func (a *API) adminUpdateToy(c *gin.Context) {
	var req saveToyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Invalid toy"),
			errors.WithCause(err)))
		return
	}

	sreq, err := req.toServiceRequest(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	t, err := a.toys.UpdateToy(c.Request.Context(), sreq)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, toToyResponse(*t))
}

func (a *API) adminDeleteToy(c *gin.Context) {
	if err := a.toys.DeleteToy(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}

	c.Status(204)
}

func (a *API) adminWaitlistStats(c *gin.Context) {
	stats, err := a.waitlist.GetStats(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, stats)
}

func (a *API) adminTopReferrers(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("limit"))

	top, err := a.waitlist.TopReferrers(c.Request.Context(), n)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{"referrers": top})
}

func (a *API) adminResultStats(c *gin.Context) {
	stats, err := a.insights.GetResultStats(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, stats)
}
