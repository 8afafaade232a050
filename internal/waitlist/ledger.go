package waitlist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ReferralLedger keeps per-code referral counts in a redis sorted set so the
// top-referrer board is a single range read.
type ReferralLedger struct {
	redis  redis.UniversalClient
	prefix string
}

func NewReferralLedger(r redis.UniversalClient, prefix string) *ReferralLedger {
	return &ReferralLedger{
		redis:  r,
		prefix: prefix,
	}
}

// Record bumps the referral count of a code.
func (l *ReferralLedger) Record(ctx context.Context, code string) error {
	if err := l.redis.ZIncrBy(ctx, l.key(), 1, code).Err(); err != nil {
		return fmt.Errorf("waitlist: record referral: %w", err)
	}

	return nil
}

// Referrer is one row of the top-referrer board.
type Referrer struct {
	ReferralCode string `json:"referral_code"`
	Referred     int    `json:"referred"`
}

// Top returns the n most successful referral codes, descending.
func (l *ReferralLedger) Top(ctx context.Context, n int) ([]Referrer, error) {
	if n <= 0 {
		n = 10
	}

	res, err := l.redis.ZRevRangeWithScores(ctx, l.key(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("waitlist: top referrers: %w", err)
	}

	top := make([]Referrer, 0, len(res))
	for _, z := range res {
		top = append(top, Referrer{
			ReferralCode: z.Member.(string),
			Referred:     int(z.Score),
		})
	}

	return top, nil
}

func (l *ReferralLedger) key() string {
	return fmt.Sprintf("%s:waitlist:referrals", l.prefix)
}
