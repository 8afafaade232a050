package notify

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/event"
)

const (
	defaultInterval      = 5 * time.Second
	defaultBatchSize     = 50
	defaultMaxAttempts   = 5
	defaultMaxConcurrent = 10
	sendTimeout          = 10 * time.Second
)

type Config struct {
	DB        *pgxpool.Pool
	EventBus  *event.Bus
	MailerURL string

	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	HTTPClient  *http.Client
}

// Dispatcher drains the notification outbox: rows are committed alongside the
// quiz result, then delivered here at least once. The mailer endpoint must
// tolerate the occasional duplicate.
type Dispatcher struct {
	db       *pgxpool.Pool
	eb       *event.Bus
	mailer   string
	client   *http.Client
	interval time.Duration
	batch    int
	maxTries int
}

func NewDispatcher(c Config) *Dispatcher {
	d := &Dispatcher{
		db:       c.DB,
		eb:       c.EventBus,
		mailer:   c.MailerURL,
		client:   c.HTTPClient,
		interval: c.Interval,
		batch:    c.BatchSize,
		maxTries: c.MaxAttempts,
	}

	if d.client == nil {
		d.client = &http.Client{Timeout: sendTimeout}
	}
	if d.interval <= 0 {
		d.interval = defaultInterval
	}
	if d.batch <= 0 {
		d.batch = defaultBatchSize
	}
	if d.maxTries <= 0 {
		d.maxTries = defaultMaxAttempts
	}

	return d
}

// Run polls the outbox until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.InfoContext(ctx, "notify: dispatcher started", "interval", d.interval)

	t := time.NewTicker(d.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "notify: dispatcher stopped")
			return
		case <-t.C:
			if err := d.dispatchDue(ctx); err != nil {
				slog.ErrorContext(ctx, "notify: dispatch round failed", "error", err)
			}
		}
	}
}

type outboxRow struct {
	OutboxID  string
	ResultID  string
	Recipient string
	Payload   []byte
	Attempts  int
}

// dispatchDue claims a batch of due rows and delivers them concurrently.
// Claiming bumps the attempt counter and pushes next_attempt_time forward, so
// a crash mid-send leaves the row retryable instead of stuck.
func (d *Dispatcher) dispatchDue(ctx context.Context) error {
	rows, err := d.claimDue(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	var eg errgroup.Group
	eg.SetLimit(defaultMaxConcurrent)

	for _, r := range rows {
		r := r
		eg.Go(func() error {
			d.deliver(ctx, r)
			return nil
		})
	}

	return eg.Wait()
}

func (d *Dispatcher) claimDue(ctx context.Context) (rows []outboxRow, err error) {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const claimStmt = `
UPDATE notification_outbox
SET attempts = attempts + 1, next_attempt_time = now() + (interval '30 seconds' * (attempts + 1))
WHERE outbox_id IN (
	SELECT outbox_id FROM notification_outbox
	WHERE status = 'pending' AND next_attempt_time <= now()
	ORDER BY create_time
	LIMIT $1
	FOR UPDATE SKIP LOCKED
)
RETURNING outbox_id, result_id, recipient, payload, attempts;`

	res, err := tx.Query(ctx, claimStmt, d.batch)
	if err != nil {
		return nil, fmt.Errorf("claim outbox rows: %w", err)
	}

	rows, err = pgx.CollectRows(res, func(r pgx.CollectableRow) (outboxRow, error) {
		var row outboxRow
		err := r.Scan(&row.OutboxID, &row.ResultID, &row.Recipient, &row.Payload, &row.Attempts)
		return row, err
	})
	if err != nil {
		return nil, err
	}

	return rows, tx.Commit(ctx)
}

// deliver sends one notification and records the outcome. Failures are never
// propagated: they either wait for the next attempt or exhaust the budget and
// get parked as failed.
func (d *Dispatcher) deliver(ctx context.Context, row outboxRow) {
	err := send(ctx, d.client, d.mailer, row.Payload)
	if err == nil {
		if err := d.markSent(ctx, row.OutboxID); err != nil {
			slog.ErrorContext(ctx, "notify: mark sent failed", "outbox_id", row.OutboxID, "error", err)
			return
		}

		d.eb.Publish(ctx, domain.EventNotificationSent{
			ResultID:  row.ResultID,
			Recipient: row.Recipient,
		})
		return
	}

	slog.ErrorContext(ctx, "notify: send failed",
		"outbox_id", row.OutboxID,
		"attempts", row.Attempts,
		"error", err,
	)

	if row.Attempts >= d.maxTries {
		if err := d.markFailed(ctx, row.OutboxID); err != nil {
			slog.ErrorContext(ctx, "notify: mark failed failed", "outbox_id", row.OutboxID, "error", err)
		}
	}
}

func (d *Dispatcher) markSent(ctx context.Context, outboxID string) error {
	const stmt = `
UPDATE notification_outbox
SET status = 'sent', sent_time = now()
WHERE outbox_id = $1;`

	_, err := d.db.Exec(ctx, stmt, outboxID)
	return err
}

func (d *Dispatcher) markFailed(ctx context.Context, outboxID string) error {
	const stmt = `
UPDATE notification_outbox
SET status = 'failed'
WHERE outbox_id = $1;`

	_, err := d.db.Exec(ctx, stmt, outboxID)
	return err
}

// send posts one payload to the mailer function. Anything but a 2xx is a
// failure.
func send(ctx context.Context, client *http.Client, url string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post to mailer: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailer returned %s", resp.Status)
	}

	return nil
}
