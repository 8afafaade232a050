package result

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/event"
	"github.com/joyboxhq/funnel/internal/quiz"
)

const codeUniqueViolation = "23505"

type Config struct {
	DB       *pgxpool.Pool
	EventBus *event.Bus
}

// Service owns the quiz_results table. Recording a result also enqueues the
// parent notification in the outbox, in the same transaction, so "result
// recorded" and "email sent" are decoupled but never half-lost.
type Service struct {
	db *pgxpool.Pool
	eb *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
		eb: c.EventBus,
	}
}

type RecordResultRequest struct {
	Personality    domain.PersonalityType
	Scores         domain.ScoreVector
	Answers        domain.AnswerSet
	Contact        domain.ContactInfo
	IdempotencyKey string
}

// RecordResult inserts a quiz result exactly once per idempotency key. A
// duplicate submit returns the already-recorded result instead of a second
// row or an error.
func (s *Service) RecordResult(ctx context.Context, req RecordResultRequest) (*domain.QuizResult, error) {
	res := &domain.QuizResult{
		Personality:    req.Personality,
		Scores:         req.Scores,
		Answers:        req.Answers,
		ParentName:     req.Contact.ParentName,
		WhatsappNumber: req.Contact.WhatsappNumber,
		Pincode:        req.Contact.Pincode,
		ChildAge:       req.Contact.ChildAge,
		UserID:         req.Contact.UserID,
		IdempotencyKey: req.IdempotencyKey,
		CreateTime:     time.Now().UTC(),
	}

	err := s.insertResult(ctx, res)

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return s.getByIdempotencyKey(ctx, req.IdempotencyKey)
	}
	if err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventResultRecorded{
		Result: *res,
	})

	return res, nil
}

func (s *Service) insertResult(ctx context.Context, res *domain.QuizResult) (err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate result ID: %w", err)
	}
	res.ResultID = id.String()

	scores, err := json.Marshal(res.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insResultStmt = `
INSERT INTO quiz_results (result_id, personality_type, scores, answers, parent_name, whatsapp_number, pincode, child_age, user_id, idempotency_key, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11);`

	_, err = tx.Exec(ctx, insResultStmt,
		res.ResultID, res.Personality, scores, answers,
		res.ParentName, res.WhatsappNumber, res.Pincode, res.ChildAge,
		res.UserID, res.IdempotencyKey, res.CreateTime,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	if err = s.insertOutbox(ctx, tx, res); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}

	return tx.Commit(ctx)
}

// NotificationPayload is what the mailer function receives for each result.
type NotificationPayload struct {
	ResultID    string `json:"result_id"`
	ParentName  string `json:"parent_name"`
	Personality string `json:"personality"`
	ChildAge    *int   `json:"child_age,omitempty"`
}

func (s *Service) insertOutbox(ctx context.Context, tx pgx.Tx, res *domain.QuizResult) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate outbox ID: %w", err)
	}

	payload, err := json.Marshal(NotificationPayload{
		ResultID:    res.ResultID,
		ParentName:  res.ParentName,
		Personality: string(res.Personality),
		ChildAge:    res.ChildAge,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	const stmt = `
INSERT INTO notification_outbox (outbox_id, result_id, recipient, payload, status, attempts, next_attempt_time, create_time)
VALUES ($1, $2, $3, $4, 'pending', 0, $5, $5);`

	_, err = tx.Exec(ctx, stmt, id.String(), res.ResultID, res.WhatsappNumber, payload, res.CreateTime)
	return err
}

func (s *Service) getByIdempotencyKey(ctx context.Context, key string) (*domain.QuizResult, error) {
	const stmt = `
SELECT result_id, personality_type, scores, answers, parent_name, whatsapp_number, pincode, child_age, COALESCE(user_id, ''), idempotency_key, create_time
FROM quiz_results
WHERE idempotency_key = $1;`

	return s.scanResult(s.db.QueryRow(ctx, stmt, key))
}

type GetResultRequest struct {
	ResultID string
}

func (s *Service) GetResult(ctx context.Context, req GetResultRequest) (*domain.QuizResult, error) {
	const stmt = `
SELECT result_id, personality_type, scores, answers, parent_name, whatsapp_number, pincode, child_age, COALESCE(user_id, ''), idempotency_key, create_time
FROM quiz_results
WHERE result_id = $1;`

	return s.scanResult(s.db.QueryRow(ctx, stmt, req.ResultID))
}

type ListResultsRequest struct {
	ResultIDs []string
}

// ListResults returns the requested results in storage order. Missing IDs are
// silently absent from the response.
func (s *Service) ListResults(ctx context.Context, req ListResultsRequest) ([]domain.QuizResult, error) {
	const stmt = `
SELECT result_id, personality_type, scores, answers, parent_name, whatsapp_number, pincode, child_age, COALESCE(user_id, ''), idempotency_key, create_time
FROM quiz_results
WHERE result_id = ANY($1)
ORDER BY create_time;`

	rows, err := s.db.Query(ctx, stmt, req.ResultIDs)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.QuizResult, error) {
		res, err := scanResultRow(r)
		if err != nil {
			return domain.QuizResult{}, err
		}
		return *res, nil
	})
}

type row interface {
	Scan(dest ...any) error
}

func (s *Service) scanResult(r row) (*domain.QuizResult, error) {
	res, err := scanResultRow(r)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("quiz result not found"),
			errors.WithCause(err))
	}
	return res, err
}

func scanResultRow(r row) (*domain.QuizResult, error) {
	var (
		res     domain.QuizResult
		label   string
		scores  []byte
		answers []byte
	)

	err := r.Scan(&res.ResultID, &label, &scores, &answers,
		&res.ParentName, &res.WhatsappNumber, &res.Pincode, &res.ChildAge,
		&res.UserID, &res.IdempotencyKey, &res.CreateTime)
	if err != nil {
		return nil, err
	}

	// Legacy rows stored the display title instead of the identifier; every
	// read normalizes back to the canonical enumeration.
	res.Personality = quiz.NormalizeLabel(label)

	if len(scores) > 0 && string(scores) != "null" {
		if err := json.Unmarshal(scores, &res.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
	}
	if len(answers) > 0 && string(answers) != "null" {
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}

	return &res, nil
}
