package toy

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
)

const (
	codeUniqueViolation = "23505"

	// DefaultRecommendationLimit caps the preview list shown after the quiz.
	DefaultRecommendationLimit = 6
)

type Config struct {
	DB *pgxpool.Pool
}

// Service reads the toy catalog and owns the review/admin write paths. The
// recommendation reads are stale-is-acceptable: whatever the store currently
// reflects is good enough, and a failed read degrades to an empty list.
type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{db: c.DB}
}

const selectToyColumns = `
SELECT t.toy_id, t.name, t.description, t.image_url, t.age_group, t.category,
       t.price, t.stock, t.personality_types, t.featured, t.create_time,
       COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)
FROM toys t
LEFT JOIN (
	SELECT toy_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
	FROM toy_reviews
	GROUP BY toy_id
) r ON r.toy_id = t.toy_id`

type RecommendedRequest struct {
	Personality domain.PersonalityType
	AgeGroup    string
	Limit       int
}

// Recommended returns up to Limit in-stock toys tagged with the personality,
// featured first then newest. Any query failure is logged and yields an empty
// list, never an error: the preview page renders fine without toys.
func (s *Service) Recommended(ctx context.Context, req RecommendedRequest) []domain.Toy {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	stmt := selectToyColumns + `
WHERE $1 = ANY(t.personality_types) AND t.stock > 0`
	args := []any{string(req.Personality)}

	if req.AgeGroup != "" {
		stmt += ` AND t.age_group = $2`
		args = append(args, req.AgeGroup)
	}
	stmt += fmt.Sprintf(` ORDER BY t.featured DESC, t.create_time DESC LIMIT %d;`, limit)

	toys, err := s.queryToys(ctx, stmt, args...)
	if err != nil {
		slog.ErrorContext(ctx, "toy: recommendation lookup failed",
			"personality", req.Personality,
			"error", err,
		)
		return []domain.Toy{}
	}

	return toys
}

// Featured returns globally featured in-stock toys, newest first, with the
// same empty-list-on-failure contract as Recommended.
func (s *Service) Featured(ctx context.Context, limit int) []domain.Toy {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	stmt := selectToyColumns + fmt.Sprintf(`
WHERE t.featured AND t.stock > 0
ORDER BY t.create_time DESC LIMIT %d;`, limit)

	toys, err := s.queryToys(ctx, stmt)
	if err != nil {
		slog.ErrorContext(ctx, "toy: featured lookup failed", "error", err)
		return []domain.Toy{}
	}

	return toys
}

type GetToyRequest struct {
	ToyID string
}

func (s *Service) GetToy(ctx context.Context, req GetToyRequest) (*domain.Toy, error) {
	stmt := selectToyColumns + `
WHERE t.toy_id = $1;`

	toys, err := s.queryToys(ctx, stmt, req.ToyID)
	if err != nil {
		return nil, err
	}
	if len(toys) == 0 {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("toy not found: %s", req.ToyID))
	}

	return &toys[0], nil
}

type ListToysRequest struct {
	Limit  int
	Offset int
}

// ListToys is the back-office inventory view: every toy, in or out of stock.
func (s *Service) ListToys(ctx context.Context, req ListToysRequest) ([]domain.Toy, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	stmt := selectToyColumns + fmt.Sprintf(`
ORDER BY t.create_time DESC LIMIT %d OFFSET %d;`, limit, req.Offset)

	return s.queryToys(ctx, stmt)
}

func (s *Service) queryToys(ctx context.Context, stmt string, args ...any) ([]domain.Toy, error) {
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Toy, error) {
		var (
			t    domain.Toy
			tags []string
		)
		err := r.Scan(&t.ToyID, &t.Name, &t.Description, &t.ImageURL, &t.AgeGroup,
			&t.Category, &t.Price, &t.Stock, &tags, &t.Featured, &t.CreateTime,
			&t.AvgRating, &t.ReviewCount)
		if err != nil {
			return domain.Toy{}, err
		}
		t.PersonalityTypes = make([]domain.PersonalityType, 0, len(tags))
		for _, tag := range tags {
			t.PersonalityTypes = append(t.PersonalityTypes, domain.PersonalityType(tag))
		}
		return t, nil
	})
}

type AddReviewRequest struct {
	ToyID   string
	UserID  string
	Rating  int
	Comment string
}

// AddReview records one user's rating of a toy. The table enforces one review
// per user per toy; a second attempt surfaces a friendly conflict.
func (s *Service) AddReview(ctx context.Context, req AddReviewRequest) (*domain.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithField("rating"),
			errors.WithMessagef("Rating must be between 1 and 5"))
	}
	if req.UserID == "" {
		return nil, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("Sign in to review toys"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	rev := &domain.Review{
		ReviewID:   id.String(),
		ToyID:      req.ToyID,
		UserID:     req.UserID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreateTime: time.Now().UTC(),
	}

	const stmt = `
INSERT INTO toy_reviews (review_id, toy_id, user_id, rating, comment, create_time)
VALUES ($1, $2, $3, $4, $5, $6);`

	_, err = s.db.Exec(ctx, stmt, rev.ReviewID, rev.ToyID, rev.UserID, rev.Rating, rev.Comment, rev.CreateTime)

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return nil, errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("You have already reviewed this toy"),
			errors.WithCause(err))
	}
	if err != nil {
		return nil, err
	}

	return rev, nil
}

type RatingSummary struct {
	ToyID       string
	AvgRating   decimal.Decimal
	ReviewCount int
}

// GetRatingSummary returns the aggregate rating of one toy. A toy with no
// reviews has a zero summary, not an error.
func (s *Service) GetRatingSummary(ctx context.Context, toyID string) (*RatingSummary, error) {
	const stmt = `
SELECT COALESCE(AVG(rating), 0), COUNT(*)
FROM toy_reviews
WHERE toy_id = $1;`

	sum := &RatingSummary{ToyID: toyID}
	if err := s.db.QueryRow(ctx, stmt, toyID).Scan(&sum.AvgRating, &sum.ReviewCount); err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}

	return sum, nil
}

type SaveToyRequest struct {
	ToyID            string // empty on create
	Name             string
	Description      string
	ImageURL         string
	AgeGroup         string
	Category         string
	Price            decimal.Decimal
	Stock            int
	PersonalityTypes []domain.PersonalityType
	Featured         bool
}

// CreateToy adds a catalog record from the back-office.
func (s *Service) CreateToy(ctx context.Context, req SaveToyRequest) (*domain.Toy, error) {
	if err := validateToy(req); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate toy ID: %w", err)
	}

	t := &domain.Toy{
		ToyID:            id.String(),
		Name:             req.Name,
		Description:      req.Description,
		ImageURL:         req.ImageURL,
		AgeGroup:         req.AgeGroup,
		Category:         req.Category,
		Price:            req.Price,
		Stock:            req.Stock,
		PersonalityTypes: req.PersonalityTypes,
		Featured:         req.Featured,
		CreateTime:       time.Now().UTC(),
	}

	const stmt = `
INSERT INTO toys (toy_id, name, description, image_url, age_group, category, price, stock, personality_types, featured, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	_, err = s.db.Exec(ctx, stmt, t.ToyID, t.Name, t.Description, t.ImageURL, t.AgeGroup,
		t.Category, t.Price, t.Stock, tagStrings(t.PersonalityTypes), t.Featured, t.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("insert toy: %w", err)
	}

	return t, nil
}

// UpdateToy overwrites a catalog record.
func (s *Service) UpdateToy(ctx context.Context, req SaveToyRequest) (*domain.Toy, error) {
	if err := validateToy(req); err != nil {
		return nil, err
	}

	const stmt = `
UPDATE toys
SET name = $2, description = $3, image_url = $4, age_group = $5, category = $6,
    price = $7, stock = $8, personality_types = $9, featured = $10
WHERE toy_id = $1;`

	tag, err := s.db.Exec(ctx, stmt, req.ToyID, req.Name, req.Description, req.ImageURL,
		req.AgeGroup, req.Category, req.Price, req.Stock, tagStrings(req.PersonalityTypes), req.Featured)
	if err != nil {
		return nil, fmt.Errorf("update toy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("toy not found: %s", req.ToyID))
	}

	return s.GetToy(ctx, GetToyRequest{ToyID: req.ToyID})
}

// DeleteToy removes a catalog record. Back-office only; the funnel never
// deletes anything.
func (s *Service) DeleteToy(ctx context.Context, toyID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM toys WHERE toy_id = $1;`, toyID)
	if err != nil {
		return fmt.Errorf("delete toy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeNotFound,
			errors.WithMessagef("toy not found: %s", toyID))
	}

	return nil
}

func validateToy(req SaveToyRequest) error {
	if req.Name == "" {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithField("name"),
			errors.WithMessagef("Toy name is required"))
	}
	if req.Price.IsNegative() {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithField("price"),
			errors.WithMessagef("Price cannot be negative"))
	}
	if req.Stock < 0 {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithField("stock"),
			errors.WithMessagef("Stock cannot be negative"))
	}
	return nil
}

func tagStrings(ts []domain.PersonalityType) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, string(t))
	}
	return out
}
