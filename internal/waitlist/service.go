package waitlist

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
	"github.com/joyboxhq/funnel/internal/event"
)

const codeUniqueViolation = "23505"

var (
	nonDigits     = regexp.MustCompile(`\D`)
	pincodeFormat = regexp.MustCompile(`^\d{6}$`)
)

type Config struct {
	DB       *pgxpool.Pool
	Redis    redis.UniversalClient
	Prefix   string
	EventBus *event.Bus
}

// Service captures pre-launch leads. Unlike signup, any serviceable pincode
// format is accepted here: unserved regions are exactly who the waitlist is
// for.
type Service struct {
	db     *pgxpool.Pool
	ledger *ReferralLedger
	eb     *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		db:     c.DB,
		ledger: NewReferralLedger(c.Redis, c.Prefix),
		eb:     c.EventBus,
	}
}

type JoinRequest struct {
	Name         string
	Phone        string
	Pincode      string
	ReferralCode string // code of the entry that referred this one, optional
}

// Join adds one lead. Each entry gets its own shareable referral code; a used
// referral bumps the referrer's count on the ledger, best-effort.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*domain.WaitlistEntry, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithField("name"),
			errors.WithMessagef("Please tell us your name"))
	}

	phone := nonDigits.ReplaceAllString(req.Phone, "")
	if len(phone) != 10 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithField("phone"),
			errors.WithMessagef("Please enter a valid 10-digit phone number"))
	}

	pincode := strings.TrimSpace(req.Pincode)
	if !pincodeFormat.MatchString(pincode) {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithField("pincode"),
			errors.WithMessagef("Please enter a valid 6-digit pincode"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate entry ID: %w", err)
	}

	entry := &domain.WaitlistEntry{
		EntryID:      id.String(),
		Name:         name,
		Phone:        phone,
		Pincode:      pincode,
		ReferralCode: newReferralCode(id),
		ReferredBy:   strings.ToUpper(strings.TrimSpace(req.ReferralCode)),
		CreateTime:   time.Now().UTC(),
	}

	const stmt = `
INSERT INTO waitlist_entries (entry_id, name, phone, pincode, referral_code, referred_by, create_time)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7);`

	_, err = s.db.Exec(ctx, stmt, entry.EntryID, entry.Name, entry.Phone, entry.Pincode,
		entry.ReferralCode, entry.ReferredBy, entry.CreateTime)

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return nil, errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("This number is already on the waitlist"),
			errors.WithCause(err))
	}
	if err != nil {
		return nil, fmt.Errorf("insert waitlist entry: %w", err)
	}

	if entry.ReferredBy != "" {
		// Best-effort bookkeeping: a lost increment is not worth failing a lead.
		if err := s.ledger.Record(ctx, entry.ReferredBy); err != nil {
			slog.ErrorContext(ctx, "waitlist: referral bookkeeping failed",
				"code", entry.ReferredBy,
				"error", err,
			)
		}
	}

	s.eb.Publish(ctx, domain.EventWaitlistJoined{
		Entry: *entry,
	})

	return entry, nil
}

// TopReferrers exposes the ledger for the admin dashboard.
func (s *Service) TopReferrers(ctx context.Context, n int) ([]Referrer, error) {
	return s.ledger.Top(ctx, n)
}

// RegionCount is the number of leads sharing a pincode prefix.
type RegionCount struct {
	PincodePrefix string `json:"pincode_prefix"`
	Count         int    `json:"count"`
}

type Stats struct {
	Total    int           `json:"total"`
	Referred int           `json:"referred"`
	Regions  []RegionCount `json:"regions"`
}

// GetStats aggregates the waitlist for the back-office: totals, how many came
// through referrals, and demand by region (3-digit pincode prefix).
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	const totalsStmt = `
SELECT COUNT(*), COUNT(referred_by)
FROM waitlist_entries;`

	if err := s.db.QueryRow(ctx, totalsStmt).Scan(&stats.Total, &stats.Referred); err != nil {
		return nil, fmt.Errorf("waitlist totals: %w", err)
	}

	const regionsStmt = `
SELECT substr(pincode, 1, 3) AS prefix, COUNT(*)
FROM waitlist_entries
GROUP BY prefix
ORDER BY COUNT(*) DESC;`

	rows, err := s.db.Query(ctx, regionsStmt)
	if err != nil {
		return nil, err
	}

	stats.Regions, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (RegionCount, error) {
		var rc RegionCount
		err := r.Scan(&rc.PincodePrefix, &rc.Count)
		return rc, err
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// newReferralCode derives a short shareable code from the entry ID.
func newReferralCode(id uuid.UUID) string {
	return "JOY" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:9]
}
