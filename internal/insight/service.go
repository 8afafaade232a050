package insight

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/quiz"
	"github.com/joyboxhq/funnel/internal/result"
)

const (
	// MaxCompared bounds the side-by-side comparison view.
	MaxCompared = 3

	// reconstructedScore stands in for the chosen type of a legacy result
	// that was persisted without its score vector.
	reconstructedScore = 10

	topRankSize = 3
)

type Config struct {
	DB      *pgxpool.Pool
	Results *result.Service
}

// Service turns stored score vectors into chart-ready series and feeds the
// back-office analytics. It never mutates anything.
type Service struct {
	db      *pgxpool.Pool
	results *result.Service
}

func NewService(c Config) *Service {
	return &Service{
		db:      c.DB,
		results: c.Results,
	}
}

// RadarPoint is one axis of the radar chart.
type RadarPoint struct {
	Type  domain.PersonalityType `json:"type"`
	Title string                 `json:"title"`
	Score int                    `json:"score"`
}

// RadarSeries lays the score vector out in enumeration order so every chart
// draws its axes identically.
func RadarSeries(res domain.QuizResult) []RadarPoint {
	v := res.Scores
	if v == nil {
		v = reconstructVector(res.Personality)
	}

	points := make([]RadarPoint, 0, len(domain.PersonalityTypes()))
	for _, t := range domain.PersonalityTypes() {
		points = append(points, RadarPoint{
			Type:  t,
			Title: quiz.Profile(t).Title,
			Score: v[t],
		})
	}

	return points
}

// TopRanked returns the three highest-scoring personalities, descending,
// ties broken by enumeration order.
func TopRanked(res domain.QuizResult) []RadarPoint {
	points := RadarSeries(res)

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Score > points[j].Score
	})

	if len(points) > topRankSize {
		points = points[:topRankSize]
	}
	return points
}

// ComparisonColumn describes one compared result.
type ComparisonColumn struct {
	ResultID      string    `json:"result_id"`
	CreateTime    time.Time `json:"create_time"`
	Reconstructed bool      `json:"reconstructed"`
}

// ComparisonRow holds each compared result's score for one personality type.
type ComparisonRow struct {
	Type   domain.PersonalityType `json:"type"`
	Title  string                 `json:"title"`
	Scores []int                  `json:"scores"`
}

type Comparison struct {
	Columns []ComparisonColumn `json:"columns"`
	Rows    []ComparisonRow    `json:"rows"`
}

// BuildComparison assembles the side-by-side view for up to three results.
// Results recorded before vectors were kept get a 10/0 reconstruction from
// their stored identifier; the column is flagged so the UI can say the values
// are approximate, not measured.
func BuildComparison(results []domain.QuizResult) (*Comparison, error) {
	if len(results) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("select at least one result to compare"))
	}
	if len(results) > MaxCompared {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("at most %d results can be compared", MaxCompared))
	}

	cmp := &Comparison{
		Columns: make([]ComparisonColumn, 0, len(results)),
		Rows:    make([]ComparisonRow, 0, len(domain.PersonalityTypes())),
	}

	vectors := make([]domain.ScoreVector, 0, len(results))
	for _, res := range results {
		col := ComparisonColumn{
			ResultID:   res.ResultID,
			CreateTime: res.CreateTime,
		}
		v := res.Scores
		if v == nil {
			v = reconstructVector(res.Personality)
			col.Reconstructed = true
		}
		vectors = append(vectors, v)
		cmp.Columns = append(cmp.Columns, col)
	}

	for _, t := range domain.PersonalityTypes() {
		row := ComparisonRow{
			Type:   t,
			Title:  quiz.Profile(t).Title,
			Scores: make([]int, 0, len(vectors)),
		}
		for _, v := range vectors {
			row.Scores = append(row.Scores, v[t])
		}
		cmp.Rows = append(cmp.Rows, row)
	}

	return cmp, nil
}

type CompareRequest struct {
	ResultIDs []string
}

// Compare loads the selected results and builds their comparison.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	if len(req.ResultIDs) > MaxCompared {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("at most %d results can be compared", MaxCompared))
	}

	results, err := s.results.ListResults(ctx, result.ListResultsRequest{
		ResultIDs: req.ResultIDs,
	})
	if err != nil {
		return nil, err
	}

	return BuildComparison(results)
}

func reconstructVector(t domain.PersonalityType) domain.ScoreVector {
	v := make(domain.ScoreVector, len(domain.PersonalityTypes()))
	for _, pt := range domain.PersonalityTypes() {
		v[pt] = 0
	}
	v[t] = reconstructedScore
	return v
}

// PersonalityCount is one slice of the admin distribution chart.
type PersonalityCount struct {
	Type  domain.PersonalityType `json:"type"`
	Title string                 `json:"title"`
	Count int                    `json:"count"`
}

// DailyCount is one bucket of the signups-over-time chart.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

type ResultStats struct {
	Total         int                `json:"total"`
	Personalities []PersonalityCount `json:"personalities"`
	Daily         []DailyCount       `json:"daily"`
}

type labelCount struct {
	label string
	count int
}

// mergePersonalityCounts folds raw stored labels into canonical types before
// counting. Legacy rows stored display titles, so the same personality can
// arrive under several spellings; grouping in SQL would split them.
func mergePersonalityCounts(pairs []labelCount) []PersonalityCount {
	merged := make(map[domain.PersonalityType]int)
	for _, p := range pairs {
		merged[quiz.NormalizeLabel(p.label)] += p.count
	}

	counts := make([]PersonalityCount, 0, len(merged))
	for _, t := range domain.PersonalityTypes() {
		if c, ok := merged[t]; ok {
			counts = append(counts, PersonalityCount{
				Type:  t,
				Title: quiz.Profile(t).Title,
				Count: c,
			})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts
}

// GetResultStats aggregates recorded results for the back-office dashboard.
func (s *Service) GetResultStats(ctx context.Context) (*ResultStats, error) {
	stats := &ResultStats{}

	const byTypeStmt = `
SELECT personality_type, COUNT(*)
FROM quiz_results
GROUP BY personality_type
ORDER BY COUNT(*) DESC;`

	rows, err := s.db.Query(ctx, byTypeStmt)
	if err != nil {
		return nil, err
	}

	pairs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (labelCount, error) {
		var p labelCount
		err := r.Scan(&p.label, &p.count)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	stats.Personalities = mergePersonalityCounts(pairs)
	for _, c := range stats.Personalities {
		stats.Total += c.Count
	}

	const byDayStmt = `
SELECT date_trunc('day', create_time) AS day, COUNT(*)
FROM quiz_results
WHERE create_time >= now() - interval '30 days'
GROUP BY day
ORDER BY day;`

	rows, err = s.db.Query(ctx, byDayStmt)
	if err != nil {
		return nil, err
	}

	stats.Daily, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (DailyCount, error) {
		var d DailyCount
		err := r.Scan(&d.Day, &d.Count)
		return d, err
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
